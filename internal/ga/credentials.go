package ga

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2/google"

	"analytics-be/pkg/errors"
)

// AnalyticsReadOnlyScope is the OAuth2 scope requested for all report calls
const AnalyticsReadOnlyScope = "https://www.googleapis.com/auth/analytics.readonly"

// ServiceCredential holds the service-account identity used to sign
// token assertions. Immutable once loaded; re-read only via an explicit
// LoadCredentials call.
type ServiceCredential struct {
	ClientEmail string
	PrivateKey  *rsa.PrivateKey
	TokenURL    string
}

// LoadCredentials reads and validates a service-account JSON key file.
// Any problem with the file is a fatal configuration error: the caller
// must not continue with a half-initialized credential.
func LoadCredentials(path string) (*ServiceCredential, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("failed to read credentials file %s", path), err)
	}

	conf, err := google.JWTConfigFromJSON(raw, AnalyticsReadOnlyScope)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid service account key file", err)
	}

	if conf.Email == "" {
		return nil, errors.NewConfigurationError("service account key is missing client_email", nil)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(conf.PrivateKey)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid private key in service account key file", err)
	}

	tokenURL := conf.TokenURL
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}

	return &ServiceCredential{
		ClientEmail: conf.Email,
		PrivateKey:  key,
		TokenURL:    tokenURL,
	}, nil
}
