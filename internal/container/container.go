package container

import (
	"analytics-be/internal/config"
	"analytics-be/internal/ga"
	"analytics-be/internal/service"
	"analytics-be/pkg/logger"
	"analytics-be/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	Gateway     *ga.Gateway
	Analytics   service.AnalyticsService
}

// New creates a new dependency injection container. Credential loading
// happens here so a bad key file fails startup instead of the first
// request.
func New(cfg *config.Config, log *logger.Logger) (*Container, error) {
	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without caching")
	}

	cred, err := ga.LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	authenticator := ga.NewAuthenticator(cred, log)
	gateway := ga.NewGateway(cfg.ViewID, authenticator, log)

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheService = service.NewCacheService(redisClient, log.Logger)
	}

	analytics := service.NewAnalyticsService(gateway, cacheService, log)

	return &Container{
		Config:      cfg,
		Logger:      log,
		RedisClient: redisClient,
		Gateway:     gateway,
		Analytics:   analytics,
	}, nil
}

// GetAnalyticsService returns the analytics query service
func (c *Container) GetAnalyticsService() service.AnalyticsService {
	return c.Analytics
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// GetCacheService returns a cache service instance (returns nil if Redis is not available)
func (c *Container) GetCacheService() *service.CacheService {
	if c.RedisClient == nil {
		return nil
	}
	return service.NewCacheService(c.RedisClient, c.Logger.Logger)
}
