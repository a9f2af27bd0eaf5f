package ga

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-be/pkg/errors"
	"analytics-be/pkg/logger"
)

// testCredential builds a credential signed with the embedded test key
func testCredential(t *testing.T, tokenURL string) *ServiceCredential {
	t.Helper()

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(testPrivateKeyPEM))
	require.NoError(t, err)

	return &ServiceCredential{
		ClientEmail: "reporter@test-project.iam.gserviceaccount.com",
		PrivateKey:  key,
		TokenURL:    tokenURL,
	}
}

func TestGetAccessToken_ExchangesSignedAssertion(t *testing.T) {
	cred := testCredential(t, "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, jwtBearerGrantType, r.PostFormValue("grant_type"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		// The assertion must verify against the service account's own key
		assertion := r.PostFormValue("assertion")
		require.NotEmpty(t, assertion)

		parsed, err := jwt.Parse(assertion, func(tok *jwt.Token) (interface{}, error) {
			return &cred.PrivateKey.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		require.NoError(t, err)

		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, cred.ClientEmail, claims["iss"])
		assert.Equal(t, AnalyticsReadOnlyScope, claims["scope"])
		assert.Equal(t, cred.TokenURL, claims["aud"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-token","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	cred.TokenURL = server.URL
	auth := NewAuthenticator(cred, logger.NewNop())

	token, err := auth.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
}

func TestGetAccessToken_CachesUntilRefreshMargin(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	}))
	defer server.Close()

	auth := NewAuthenticator(testCredential(t, server.URL), logger.NewNop())

	now := time.Now()
	auth.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		_, err := auth.GetAccessToken(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "cached token should be reused")

	// Step inside the refresh margin; the next call must re-exchange
	now = now.Add(3600*time.Second - 30*time.Second)
	_, err := auth.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetAccessToken_SingleFlight(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"access_token":"shared-token","expires_in":3600}`))
	}))
	defer server.Close()

	auth := NewAuthenticator(testCredential(t, server.URL), logger.NewNop())

	const callers = 20
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = auth.GetAccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared-token", tokens[i])
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "only one exchange should be in flight")
}

func TestGetAccessToken_ExchangeFailureCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid JWT signature."}`))
	}))
	defer server.Close()

	auth := NewAuthenticator(testCredential(t, server.URL), logger.NewNop())

	_, err := auth.GetAccessToken(context.Background())
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrorTypeAuth, appErr.Type)
	assert.Equal(t, http.StatusBadRequest, appErr.UpstreamStatus)
	assert.Contains(t, appErr.UpstreamBody, "invalid_grant")
	assert.True(t, appErr.Retryable())
}

func TestGetAccessToken_MissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expires_in":3600}`))
	}))
	defer server.Close()

	auth := NewAuthenticator(testCredential(t, server.URL), logger.NewNop())

	_, err := auth.GetAccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuth))
}

func TestInvalidate_ForcesRefresh(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	}))
	defer server.Close()

	auth := NewAuthenticator(testCredential(t, server.URL), logger.NewNop())

	_, err := auth.GetAccessToken(context.Background())
	require.NoError(t, err)

	auth.Invalidate()

	_, err = auth.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
