package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icu-monitor/internal/models"
)

func newRedisKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { c.Close() })
	return NewRedisKV(c), mr
}

func TestRedisKV_GetSetDel(t *testing.T) {
	ctx := context.Background()
	kv, mr := newRedisKV(t)

	_, err := kv.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	mr.FastForward(2 * time.Minute)
	_, err = kv.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrMiss))

	require.NoError(t, kv.Set(ctx, "k2", "v", 0))
	require.NoError(t, kv.Del(ctx, "k2"))
	_, err = kv.Get(ctx, "k2")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestRedisKV_ScanKeys(t *testing.T) {
	ctx := context.Background()
	kv, _ := newRedisKV(t)
	for _, k := range []string{"icu:vitals:1", "icu:vitals:2", "other"} {
		require.NoError(t, kv.Set(ctx, k, "x", 0))
	}
	keys, err := kv.ScanKeys(ctx, "icu:vitals:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"icu:vitals:1", "icu:vitals:2"}, keys)
}

func TestMemoryKV_TTL(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }

	require.NoError(t, kv.Set(ctx, "a", "1", time.Second))
	require.NoError(t, kv.Set(ctx, "b", "2", 0))

	now = now.Add(2 * time.Second)
	_, err := kv.Get(ctx, "a")
	assert.True(t, errors.Is(err, ErrMiss))
	v, err := kv.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	keys, err := kv.ScanKeys(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestVitalsStore_LatestOverwrites(t *testing.T) {
	ctx := context.Background()
	kv, _ := newRedisKV(t)
	s := NewVitalsStore(kv)

	hr1, hr2 := 80.0, 95.0
	require.NoError(t, s.Put(ctx, &models.StandardVitals{PatientID: "7", Name: "A", Fields: map[string]*float64{"hr_mean": &hr1}}))
	require.NoError(t, s.Put(ctx, &models.StandardVitals{PatientID: "7", Name: "A", Fields: map[string]*float64{"hr_mean": &hr2, "spo2_mean": nil}}))

	v, err := s.Latest(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, v.Fields["hr_mean"])
	assert.Equal(t, 95.0, *v.Fields["hr_mean"])
	assert.Nil(t, v.Fields["spo2_mean"])

	_, err = s.Latest(ctx, "8")
	assert.True(t, errors.Is(err, ErrMiss))

	ids, err := s.PatientIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, ids)
}

func TestTokenRevoker(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	r := NewTokenRevoker(kv)

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// 已过期的 token 无需记录
	require.NoError(t, r.Revoke(ctx, "jti-2", -time.Second))
	revoked, err = r.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
