package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := NewClientFromRDB(rdb, "test", zap.NewNop())
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestNewClient_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"invalid scheme", "invalid://url"},
		{"empty URL", ""},
		{"garbage", "not a url at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", zap.NewNop())
			assert.Error(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestClient_SetGet(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))

	val, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestClient_GetMissingKey(t *testing.T) {
	_, client := setupTestRedis(t)

	_, err := client.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNil(err))
}

func TestClient_Delete(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, client.Delete(ctx, "k"))

	_, err := client.Get(ctx, "k")
	assert.True(t, IsNil(err))
}

func TestClient_Exists(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	n, err := client.Exists(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))

	n, err = client.Exists(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClient_TTLExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", 30*time.Second))

	mr.FastForward(31 * time.Second)

	_, err := client.Get(ctx, "k")
	assert.True(t, IsNil(err))
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)

	require.NoError(t, client.Health(context.Background()))

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}

func TestKeyBuilder_EnvironmentPrefix(t *testing.T) {
	tests := []struct {
		environment string
		wantPrefix  string
	}{
		{"production", "prod"},
		{"development", "staging"},
		{"staging", "staging"},
		{"", "prod"},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			assert.Equal(t, tt.wantPrefix, kb.GetPrefix())
			assert.Equal(t, tt.wantPrefix+":some:key", kb.BuildKey("some:key"))
		})
	}
}

func TestKeyBuilder_ReportKeys(t *testing.T) {
	kb := NewKeyBuilder("production")

	assert.Equal(t,
		"prod:analytics:report:top-pages:2025-01-01:2025-01-31:10",
		kb.KeyReport("top-pages", "2025-01-01", "2025-01-31", 10))
	assert.Equal(t, "prod:analytics:realtime", kb.KeyRealTime())
}
