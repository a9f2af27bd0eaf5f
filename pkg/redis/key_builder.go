package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyReport builds the cache key for one normalized report
func (kb *KeyBuilder) KeyReport(kind, start, end string, limit int) string {
	return kb.BuildKey(fmt.Sprintf(KeyReport, kind, start, end, limit))
}

// KeyRealTime builds the cache key for the active-user snapshot
func (kb *KeyBuilder) KeyRealTime() string {
	return kb.BuildKey(KeyRealTime)
}
