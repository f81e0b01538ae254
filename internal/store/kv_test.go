package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, NewRedisKV(c)
}

func TestRedisKV_GetMiss(t *testing.T) {
	_, kv := newTestKV(t)
	_, err := kv.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_SetGetExpires(t *testing.T) {
	mr, kv := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "daraja:token", "abc", time.Minute))
	v, err := kv.Get(ctx, "daraja:token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	mr.FastForward(2 * time.Minute)
	_, err = kv.Get(ctx, "daraja:token")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_IncrWindow(t *testing.T) {
	mr, kv := newTestKV(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := kv.Incr(ctx, "otp:254700000001", 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	assert.Equal(t, 15*time.Minute, mr.TTL("otp:254700000001"))

	mr.FastForward(16 * time.Minute)
	n, err := kv.Incr(ctx, "otp:254700000001", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
