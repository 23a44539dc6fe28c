package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewRedis(rdb), mr
}

// registries runs fn against every implementation.
func registries(t *testing.T, fn func(t *testing.T, r Registry)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("redis", func(t *testing.T) {
		r, _ := setupRedis(t)
		fn(t, r)
	})
}

func entry(accountID int64, login, addr string, since time.Time) Entry {
	return Entry{SessionID: fmt.Sprintf("s-%d-%s", accountID, addr), AccountID: accountID, Login: login, Address: addr, Since: since}
}

func TestRegistry_RegisterListDeregister(t *testing.T) {
	registries(t, func(t *testing.T, r Registry) {
		ctx := context.Background()
		t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, r.Register(ctx, entry(1, "Root", "127.0.0.1:4000", t0)))
		require.NoError(t, r.Register(ctx, entry(2, "John", "127.0.0.1:4001", t0.Add(time.Second))))

		list, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Root", list[0].Login)
		assert.Equal(t, "John", list[1].Login)
		assert.Equal(t, "127.0.0.1:4001", list[1].Address)
		assert.True(t, t0.Add(time.Second).Equal(list[1].Since))

		require.NoError(t, r.Deregister(ctx, 2, "127.0.0.1:4001"))
		list, err = r.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, int64(1), list[0].AccountID)

		e, err := r.ByAddress(ctx, "127.0.0.1:4001")
		require.NoError(t, err)
		assert.Nil(t, e)
	})
}

func TestRegistry_SameAccountAndAddressReplaces(t *testing.T) {
	registries(t, func(t *testing.T, r Registry) {
		ctx := context.Background()
		first := entry(2, "John", "10.0.0.5:7000", time.Now())
		second := first
		second.SessionID = "fresh"
		require.NoError(t, r.Register(ctx, first))
		require.NoError(t, r.Register(ctx, second))

		list, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "fresh", list[0].SessionID)
	})
}

func TestRegistry_ByAddress(t *testing.T) {
	registries(t, func(t *testing.T, r Registry) {
		ctx := context.Background()
		require.NoError(t, r.Register(ctx, entry(2, "John", "10.0.0.5:7000", time.Now())))

		e, err := r.ByAddress(ctx, "10.0.0.5:7000")
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, int64(2), e.AccountID)

		// Same address, different port: a different connection.
		e, err = r.ByAddress(ctx, "10.0.0.5:7001")
		require.NoError(t, err)
		assert.Nil(t, e)

		// Re-login from the same connection as another account moves the address index.
		require.NoError(t, r.Deregister(ctx, 2, "10.0.0.5:7000"))
		require.NoError(t, r.Register(ctx, entry(1, "Root", "10.0.0.5:7000", time.Now())))
		e, err = r.ByAddress(ctx, "10.0.0.5:7000")
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, int64(1), e.AccountID)
	})
}

func TestRegistry_DeregisterKeepsNewerAddressOwner(t *testing.T) {
	registries(t, func(t *testing.T, r Registry) {
		ctx := context.Background()
		require.NoError(t, r.Register(ctx, entry(2, "John", "10.0.0.5:7000", time.Now())))
		require.NoError(t, r.Register(ctx, entry(1, "Root", "10.0.0.5:7000", time.Now())))

		require.NoError(t, r.Deregister(ctx, 2, "10.0.0.5:7000"))
		e, err := r.ByAddress(ctx, "10.0.0.5:7000")
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, int64(1), e.AccountID)
	})
}

func TestRegistry_Reset(t *testing.T) {
	registries(t, func(t *testing.T, r Registry) {
		ctx := context.Background()
		require.NoError(t, r.Register(ctx, entry(1, "Root", "a:1", time.Now())))
		require.NoError(t, r.Register(ctx, entry(2, "John", "b:2", time.Now())))
		require.NoError(t, r.Reset(ctx))

		list, err := r.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
		e, err := r.ByAddress(ctx, "a:1")
		require.NoError(t, err)
		assert.Nil(t, e)
		assert.NoError(t, r.Ping(ctx))
	})
}

func TestRegistry_ConcurrentRegisterAndList(t *testing.T) {
	registries(t, func(t *testing.T, r Registry) {
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				addr := fmt.Sprintf("10.0.0.1:%d", 5000+i)
				_ = r.Register(ctx, entry(int64(i+1), fmt.Sprintf("u%d", i), addr, time.Now()))
				_ = r.Deregister(ctx, int64(i+1), addr)
			}(i)
			go func() {
				defer wg.Done()
				list, err := r.List(ctx)
				assert.NoError(t, err)
				for _, e := range list {
					assert.NotEmpty(t, e.Login)
					assert.NotEmpty(t, e.Address)
				}
			}()
		}
		wg.Wait()

		list, err := r.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestRedis_KeysLayout(t *testing.T) {
	r, mr := setupRedis(t)
	ctx := context.Background()
	require.NoError(t, r.Register(ctx, entry(2, "John", "127.0.0.1:9", time.Now())))

	members, err := mr.SMembers(ActiveSessionsKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"2|127.0.0.1:9"}, members)
	assert.Equal(t, "John", mr.HGet(ActiveSessionPrefix+"2|127.0.0.1:9", "login"))
	got, err := mr.Get(ActiveAddressPrefix + "127.0.0.1:9")
	require.NoError(t, err)
	assert.Equal(t, "2|127.0.0.1:9", got)
}
