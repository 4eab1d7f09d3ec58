package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	v, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	cmd.SetVal("OK")
	return cmd
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if _, ok := m.data[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	cmd.SetVal(true)
	return cmd
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestSetNX_SoloLaPrimeraVez(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	c := &Client{store: mock}
	key := c.IdempotencyKey("u-1|POST|/api/inventory/transfers", "abc")
	assert.Equal(t, "fishstock:idempotency:u-1|POST|/api/inventory/transfers:abc", key)

	ok, err := c.SetNX(ctx, key, "first", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.SetNX(ctx, key, "second", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Hour, mock.ttls[key])

	v, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	require.NoError(t, c.Set(ctx, key, "final", 2*time.Hour))
	v, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "final", v)
	assert.Equal(t, 2*time.Hour, mock.ttls[key])

	require.NoError(t, c.Del(ctx, key))
	_, err = c.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestClient_SinInicializar(t *testing.T) {
	c := &Client{}
	_, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
	assert.Error(t, c.Set(context.Background(), "k", "v", time.Minute))
	assert.NoError(t, c.Close())

	var nilClient *Client
	assert.NoError(t, nilClient.Close())
}
