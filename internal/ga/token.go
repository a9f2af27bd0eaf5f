package ga

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"analytics-be/pkg/errors"
	"analytics-be/pkg/logger"
)

const (
	// Refresh the cached token this long before its actual expiry
	tokenRefreshMargin = 60 * time.Second

	// Lifetime requested for the signed assertion
	assertionLifetime = time.Hour

	jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// Authenticator exchanges a signed service-account assertion for a
// short-lived bearer token and caches it until near expiry. It owns the
// only shared mutable state in the reporting layer; callers never see
// the cache, only the token value returned by GetAccessToken.
type Authenticator struct {
	cred       *ServiceCredential
	httpClient *http.Client
	log        *logger.Logger

	now func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// NewAuthenticator creates an authenticator for the given credential
func NewAuthenticator(cred *ServiceCredential, log *logger.Logger) *Authenticator {
	return &Authenticator{
		cred: cred,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.Named("authenticator"),
		now: time.Now,
	}
}

// GetAccessToken returns a valid bearer token, refreshing it first when
// the cached one is within the refresh margin of expiry. Concurrent
// callers during a refresh wait for and share its result; only one
// token exchange is ever in flight.
func (a *Authenticator) GetAccessToken(ctx context.Context) (string, error) {
	if tok, ok := a.cached(); ok {
		return tok, nil
	}

	v, err, _ := a.group.Do("token", func() (interface{}, error) {
		// A waiter that queued behind the winning refresh sees the fresh
		// token here without a second exchange.
		if tok, ok := a.cached(); ok {
			return tok, nil
		}
		return a.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate discards the cached token, forcing the next caller to refresh
func (a *Authenticator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
	a.expiresAt = time.Time{}
}

func (a *Authenticator) cached() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" && a.now().Before(a.expiresAt.Add(-tokenRefreshMargin)) {
		return a.token, true
	}
	return "", false
}

// refresh performs the full assertion -> bearer token exchange and
// updates the cache before returning the new token value.
func (a *Authenticator) refresh(ctx context.Context) (string, error) {
	assertion, err := a.signAssertion()
	if err != nil {
		return "", errors.NewAuthError("failed to sign token assertion", 0, "", err)
	}

	form := url.Values{
		"grant_type": {jwtBearerGrantType},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cred.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.NewAuthError("failed to build token request", 0, "", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := a.now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.log.WithError(err).Error("Token endpoint unreachable")
		return "", errors.NewAuthError("token endpoint unreachable", 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewAuthError("failed to read token response", resp.StatusCode, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.log.WithFields(map[string]interface{}{
			"status_code": resp.StatusCode,
			"body":        string(body),
		}).Error("Token exchange failed")
		return "", errors.NewAuthError(
			fmt.Sprintf("token exchange returned status %d", resp.StatusCode),
			resp.StatusCode, string(body), nil)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", errors.NewAuthError("failed to decode token response", resp.StatusCode, string(body), err)
	}
	if tokenResp.AccessToken == "" {
		return "", errors.NewAuthError("token response is missing access_token", resp.StatusCode, string(body), nil)
	}

	a.mu.Lock()
	a.token = tokenResp.AccessToken
	a.expiresAt = a.now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	a.mu.Unlock()

	a.log.WithFields(map[string]interface{}{
		"expires_in": tokenResp.ExpiresIn,
		"duration":   a.now().Sub(start).String(),
	}).Debug("Access token refreshed")

	return tokenResp.AccessToken, nil
}

// signAssertion builds the RS256-signed JWT presented to the token
// endpoint: issuer is the service account, audience the token URL.
func (a *Authenticator) signAssertion() (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"iss":   a.cred.ClientEmail,
		"scope": AnalyticsReadOnlyScope,
		"aud":   a.cred.TokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(a.cred.PrivateKey)
}
