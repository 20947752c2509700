package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the two commands the blacklist uses.
type fakeRedis struct {
	redis.Cmdable
	keys   map[string]time.Duration
	err    error
	setArg string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.setArg = key
	f.keys[key] = ttl
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisBlacklist_RevokeThenCheck(t *testing.T) {
	rdb := newFakeRedis()
	b := NewRedisBlacklist(rdb)
	ctx := context.Background()

	revoked, err := b.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, b.Revoke(ctx, "tok", time.Minute))
	assert.Equal(t, "blacklist:tok", rdb.setArg)
	assert.Equal(t, time.Minute, rdb.keys["blacklist:tok"])

	revoked, err = b.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRedisBlacklist_ExpiredTokenNotStored(t *testing.T) {
	rdb := newFakeRedis()
	b := NewRedisBlacklist(rdb)

	require.NoError(t, b.Revoke(context.Background(), "old", -time.Second))
	assert.Empty(t, rdb.keys)
}

func TestRedisBlacklist_Errors(t *testing.T) {
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	b := NewRedisBlacklist(rdb)

	assert.Error(t, b.Revoke(context.Background(), "tok", time.Minute))
	_, err := b.IsRevoked(context.Background(), "tok")
	assert.Error(t, err)
}
