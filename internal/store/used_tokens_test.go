package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"bitwise74/blog/internal/model"
	"bitwise74/blog/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBUsedTokensMarkOnce(t *testing.T) {
	d := testutil.NewDB(t)
	s := NewDBUsedTokens(d)
	ctx := context.Background()
	exp := time.Now().Add(30 * time.Minute)

	used, err := s.IsUsed(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, s.MarkUsed(ctx, "abc", 1, exp))
	assert.ErrorIs(t, s.MarkUsed(ctx, "abc", 1, exp), ErrTokenUsed)

	used, err = s.IsUsed(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, used)
}

func TestDBUsedTokensRelease(t *testing.T) {
	s := NewDBUsedTokens(testutil.NewDB(t))
	ctx := context.Background()
	exp := time.Now().Add(30 * time.Minute)

	require.NoError(t, s.MarkUsed(ctx, "abc", 1, exp))
	require.NoError(t, s.Release(ctx, "abc"))

	used, err := s.IsUsed(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, used)
	assert.NoError(t, s.MarkUsed(ctx, "abc", 1, exp))
}

func TestDBUsedTokensPurgeExpired(t *testing.T) {
	d := testutil.NewDB(t)
	s := NewDBUsedTokens(d)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.MarkUsed(ctx, "old", 1, now.Add(-time.Minute)))
	require.NoError(t, s.MarkUsed(ctx, "new", 1, now.Add(time.Minute)))

	n, err := s.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var left []model.UsedResetToken
	require.NoError(t, d.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].ID)
}

func newRedisUsedTokens(t *testing.T) (*RedisUsedTokens, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { c.Close() })

	return NewRedisUsedTokens(c), mr
}

func TestRedisUsedTokensMarkOnce(t *testing.T) {
	s, mr := newRedisUsedTokens(t)
	ctx := context.Background()
	exp := time.Now().Add(10 * time.Minute)

	require.NoError(t, s.MarkUsed(ctx, "abc", 7, exp))
	assert.ErrorIs(t, s.MarkUsed(ctx, "abc", 7, exp), ErrTokenUsed)

	used, err := s.IsUsed(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, used)

	v, err := mr.Get(usedTokenPrefix + "abc")
	require.NoError(t, err)
	assert.Equal(t, "7", v)

	ttl := mr.TTL(usedTokenPrefix + "abc")
	assert.True(t, ttl > 9*time.Minute && ttl <= 10*time.Minute, "ttl %s", ttl)
}

func TestRedisUsedTokensRelease(t *testing.T) {
	s, mr := newRedisUsedTokens(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)

	require.NoError(t, s.MarkUsed(ctx, "abc", 1, exp))
	require.NoError(t, s.Release(ctx, "abc"))
	assert.False(t, mr.Exists(usedTokenPrefix+"abc"))
	assert.NoError(t, s.MarkUsed(ctx, "abc", 1, exp))
}

func TestRedisUsedTokensExpire(t *testing.T) {
	s, mr := newRedisUsedTokens(t)
	ctx := context.Background()

	require.NoError(t, s.MarkUsed(ctx, "abc", 1, time.Now().Add(time.Minute)))
	mr.FastForward(2 * time.Minute)

	used, err := s.IsUsed(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, used)
}

func TestRedisUsedTokensConcurrent(t *testing.T) {
	s, _ := newRedisUsedTokens(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.MarkUsed(ctx, "race", 1, exp) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, wins)
}
