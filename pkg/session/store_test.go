package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/morph/pkg/session"
)

// runStoreContract checks the behaviour every Store must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) session.Store) {
	ctx := context.Background()
	later := time.Now().Add(time.Hour)

	t.Run("miss", func(t *testing.T) {
		s := newStore(t)
		data, err := s.Load(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("save load overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "a", []byte("one"), later))
		require.NoError(t, s.Save(ctx, "a", []byte("two"), later))

		data, err := s.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), data)
	})

	t.Run("save copies input", func(t *testing.T) {
		s := newStore(t)
		buf := []byte("abc")
		require.NoError(t, s.Save(ctx, "a", buf, later))
		buf[0] = 'X'

		data, err := s.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), data)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "a", []byte("x"), later))
		require.NoError(t, s.Delete(ctx, "a"))
		require.NoError(t, s.Delete(ctx, "missing"))

		data, err := s.Load(ctx, "a")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("expired save removes", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "a", []byte("x"), later))
		require.NoError(t, s.Save(ctx, "a", []byte("y"), time.Now().Add(-time.Second)))

		data, err := s.Load(ctx, "a")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("touch", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, "a", []byte("x"), later))
		require.NoError(t, s.Touch(ctx, "a", later.Add(time.Hour)))
		require.NoError(t, s.Touch(ctx, "missing", later))

		data, err := s.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), data)
	})

	t.Run("save all", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveAll(ctx, map[string]session.Entry{
			"a": {Data: []byte("1"), ExpiresAt: later},
			"b": {Data: []byte("2"), ExpiresAt: later},
			"c": {Data: []byte("3"), ExpiresAt: time.Now().Add(-time.Second)},
		}))
		require.NoError(t, s.SaveAll(ctx, nil))

		for id, want := range map[string][]byte{"a": []byte("1"), "b": []byte("2"), "c": nil} {
			data, err := s.Load(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, want, data, id)
		}
	})

	t.Run("closed", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())

		assert.ErrorIs(t, s.Save(ctx, "a", nil, later), session.ErrStoreClosed)
		_, err := s.Load(ctx, "a")
		assert.ErrorIs(t, err, session.ErrStoreClosed)
		assert.ErrorIs(t, s.Delete(ctx, "a"), session.ErrStoreClosed)
		assert.ErrorIs(t, s.Touch(ctx, "a", later), session.ErrStoreClosed)
		assert.ErrorIs(t, s.SaveAll(ctx, nil), session.ErrStoreClosed)
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) session.Store {
		s := session.NewMemoryStore(session.WithSweepInterval(0))
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestRedisStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) session.Store {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		return session.NewRedisStoreFromClient(client)
	})
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	s := session.NewMemoryStore(
		session.WithSweepInterval(0),
		session.WithClock(func() time.Time { return now }),
	)
	defer s.Close()

	require.NoError(t, s.Save(ctx, "short", []byte("x"), now.Add(time.Minute)))
	require.NoError(t, s.Save(ctx, "long", []byte("y"), now.Add(time.Hour)))

	now = now.Add(2 * time.Minute)

	data, err := s.Load(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Equal(t, 2, s.Len())

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestRedisStore_TTLAndPrefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := session.NewRedisStoreFromClient(client, session.WithRedisPrefix("test:"))
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Save(ctx, "a", []byte("x"), time.Now().Add(time.Minute)))

	assert.True(t, mr.Exists("test:a"))
	ttl := mr.TTL("test:a")
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)

	mr.FastForward(2 * time.Minute)
	data, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisStore_CloseKeepsSharedClient(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := session.NewRedisStoreFromClient(client)
	require.NoError(t, s.Close())
	assert.NoError(t, client.Ping(ctx).Err())
}

func TestRedisStore_Owned(t *testing.T) {
	mr := miniredis.RunT(t)
	s := session.NewRedisStore(mr.Addr(), "", 0)
	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
