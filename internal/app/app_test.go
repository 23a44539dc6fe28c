package app

import (
	"context"
	"net"
	"testing"
	"time"

	"tradeledger/internal/client"
	"tradeledger/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:          "test",
		Host:         "127.0.0.1",
		Port:         "0",
		DatabaseURL:  ":memory:",
		AdminLogin:   "Root",
		LogLevel:     "error",
		SeedDefaults: true,
	}
}

func serve(t *testing.T, a *App) (string, chan error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- a.Serve(context.Background(), ln) }()
	return ln.Addr().String(), done
}

func TestApp_EndToEnd(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	defer a.Close()
	addr, done := serve(t, a)

	john, err := client.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer john.Close()
	root, err := client.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer root.Close()

	lines, err := john.Do("BALANCE")
	require.NoError(t, err)
	assert.Equal(t, "403 not logged in, please login first", lines[0])

	lines, err = john.Do("LOGIN John John01")
	require.NoError(t, err)
	assert.Equal(t, []string{"200 OK"}, lines)
	lines, err = john.Do("BUY ABC 10 5 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"200 OK", "BOUGHT: New balance: 10 ABC. USD balance $50.00"}, lines)

	lines, err = root.Do("LOGIN Root Root01")
	require.NoError(t, err)
	assert.Equal(t, []string{"200 OK"}, lines)
	lines, err = root.Do("WHO")
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Equal(t, "The list of active users:", lines[1])

	lines, err = root.Do("SHUTDOWN")
	require.NoError(t, err)
	assert.Equal(t, []string{"200 OK", "Server is shutting down."}, lines)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	count, err := a.Registry.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, count)
}

func TestApp_RedisRegistryAndSeedIdempotent(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	// A stale row from an earlier process.
	_, err = mr.SAdd("active_sessions", "1|10.0.0.1:1")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	rows, err := a.Registry.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.False(t, mr.Exists("active_sessions"))

	accounts, err := a.Store.Accounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestApp_UnknownAdminFails(t *testing.T) {
	cfg := testConfig()
	cfg.AdminLogin = "nobody"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
