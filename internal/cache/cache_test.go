package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	c, err := NewRedis(mr.Addr(), ttl)
	require.NoError(t, err)

	return c, mr
}

func TestNewRedis_InvalidAddress(t *testing.T) {
	_, err := NewRedis("invalid:99999", time.Minute)
	assert.Error(t, err)
}

func TestGet_Miss(t *testing.T) {
	c, mr := setupTestCache(t, time.Minute)
	defer mr.Close()
	defer func() { _ = c.Close() }()

	val, ok, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, val)
}

func TestSetThenGet(t *testing.T) {
	c, mr := setupTestCache(t, time.Minute)
	defer mr.Close()
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "answer text"))

	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "answer text", val)
	assert.True(t, mr.Exists(keyPrefix+"k"))
}

func TestSet_Expires(t *testing.T) {
	c, mr := setupTestCache(t, 30*time.Second)
	defer mr.Close()
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v"))

	mr.FastForward(31 * time.Second)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_ServerDown(t *testing.T) {
	c, mr := setupTestCache(t, time.Minute)
	defer func() { _ = c.Close() }()
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	a := Key("entry", "soru", "ctx")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Key("entry", "soru", "ctx"))
	assert.NotEqual(t, a, Key("exit", "soru", "ctx"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}
