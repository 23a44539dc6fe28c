package trading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/infrastructure/database"
	"tradeledger/internal/ledgererr"
	"tradeledger/internal/registry"
	"tradeledger/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type caller struct {
	id    int64
	admin bool
}

func (c caller) AccountID() int64 { return c.id }
func (c caller) IsAdmin() bool    { return c.admin }

func setupService(t *testing.T) (*Service, *domain.Account, *domain.Account) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	user := domain.Account{LoginName: "John", CredentialHash: "x", Cash: decimal.NewFromInt(100)}
	admin := domain.Account{LoginName: "Root", CredentialHash: "x", Cash: decimal.NewFromInt(1000000)}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&admin).Error)
	return &Service{Store: store.New(db), Registry: registry.NewMemory()}, &user, &admin
}

func order(t *testing.T, args ...string) Order {
	o, err := ParseOrder(args)
	require.NoError(t, err)
	return o
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder([]string{"MSFT", "3.4", "1.35", "1"})
	require.NoError(t, err)
	assert.Equal(t, "MSFT", o.Ticker)
	assert.Equal(t, "3.4", o.Quantity.String())
	assert.Equal(t, "1.35", o.Price.String())
	assert.Equal(t, int64(1), o.AccountID)

	_, err = ParseOrder([]string{"MSFT", "1", "1"})
	assert.EqualError(t, err, "invalid command, missing arguments")

	for _, args := range [][]string{
		{"MSFT", "abc", "1", "1"},
		{"MSFT", "0", "1", "1"},
		{"MSFT", "-2", "1", "1"},
		{"MSFT", "1", "-0.01", "1"},
		{"MSFT", "1", "1", "one"},
		{"MS%FT", "1", "1", "1"},
		{"WAYTOOLONGTICKERSYMBOL", "1", "1", "1"},
		{"ABC", "1e-20000000", "0", "1"},
		{"ABC", "1e3", "1", "1"},
		{"ABC", "1", "1e2", "1"},
		{"ABC", "0.000000001", "1", "1"},
		{"ABC", "1", "1.355", "1"},
		{"ABC", "1000000000000", "1", "1"},
		{"ABC", "1", "1000000000000", "1"},
		{"ABC", "+1", "1", "1"},
	} {
		_, err := ParseOrder(args)
		assert.EqualError(t, err, "invalid command, invalid arguments", "%v", args)
		assert.True(t, errors.Is(err, ledgererr.ErrInvalidArgument))
	}

	o, err = ParseOrder([]string{"FREE", "1", "0", "1"})
	require.NoError(t, err)
	assert.True(t, o.Price.IsZero())

	o, err = ParseOrder([]string{"BTC", "0.12345678", "999999999999.99", "1"})
	require.NoError(t, err)
	assert.Equal(t, "0.12345678", o.Quantity.String())
	assert.Equal(t, "999999999999.99", o.Price.String())
}

func TestBuySellScenario(t *testing.T) {
	s, user, _ := setupService(t)
	ctx := context.Background()
	me := caller{id: user.AccountID}
	id := decimal.NewFromInt(user.AccountID).String()

	fill, err := s.Buy(ctx, me, order(t, "ABC", "10", "5", id))
	require.NoError(t, err)
	assert.Equal(t, "BOUGHT: New balance: 10 ABC. USD balance $50.00", fill.Bought())

	fill, err = s.Sell(ctx, me, order(t, "ABC", "5", "6", id))
	require.NoError(t, err)
	assert.Equal(t, "SOLD: New balance: 5 ABC. USD balance $80.00", fill.Sold())

	_, err = s.Buy(ctx, me, order(t, "ABC", "100", "1", id))
	assert.ErrorIs(t, err, ledgererr.ErrInsufficientFunds)
	assert.Equal(t, ledgererr.StatusBadRequest, ledgererr.StatusOf(err))

	acct, err := s.Store.Account(ctx, user.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "80", acct.Cash.String())
	holdings, err := s.Store.Holdings(ctx, &user.AccountID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "5", holdings[0].Quantity.String())
}

func TestBuySellRoundTripRestoresBalances(t *testing.T) {
	s, user, _ := setupService(t)
	ctx := context.Background()
	me := caller{id: user.AccountID}
	id := decimal.NewFromInt(user.AccountID).String()

	_, err := s.Buy(ctx, me, order(t, "MSFT", "3.4", "1.35", id))
	require.NoError(t, err)
	fill, err := s.Sell(ctx, me, order(t, "MSFT", "3.4", "1.35", id))
	require.NoError(t, err)
	assert.True(t, fill.Cash.Equal(decimal.NewFromInt(100)))
	assert.True(t, fill.Quantity.IsZero())

	// Zero positions are retained.
	holdings, err := s.Store.Holdings(ctx, &user.AccountID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.True(t, holdings[0].Quantity.IsZero())
}

func TestSell_Errors(t *testing.T) {
	s, user, _ := setupService(t)
	ctx := context.Background()
	me := caller{id: user.AccountID}
	id := decimal.NewFromInt(user.AccountID).String()

	_, err := s.Sell(ctx, me, order(t, "NOPE", "1", "1", id))
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)

	_, err = s.Buy(ctx, me, order(t, "ABC", "2", "1", id))
	require.NoError(t, err)
	_, err = s.Sell(ctx, me, order(t, "ABC", "3", "1", id))
	assert.ErrorIs(t, err, ledgererr.ErrInsufficientStock)
	assert.EqualError(t, err, "insufficient stock balance for ABC")
}

func TestTrade_Ownership(t *testing.T) {
	s, user, admin := setupService(t)
	ctx := context.Background()
	adminID := decimal.NewFromInt(admin.AccountID).String()
	userID := decimal.NewFromInt(user.AccountID).String()

	// Ordinary caller on another account: forbidden, even when it does not exist.
	_, err := s.Buy(ctx, caller{id: user.AccountID}, order(t, "ABC", "1", "1", adminID))
	assert.ErrorIs(t, err, ledgererr.ErrForbidden)
	_, err = s.Sell(ctx, caller{id: user.AccountID}, order(t, "ABC", "1", "1", "999"))
	assert.ErrorIs(t, err, ledgererr.ErrForbidden)

	// Admin may trade on any account.
	fill, err := s.Buy(ctx, caller{id: admin.AccountID, admin: true}, order(t, "ABC", "1", "10", userID))
	require.NoError(t, err)
	assert.Equal(t, "90.00", fill.Cash.StringFixed(2))

	_, err = s.Buy(ctx, caller{id: admin.AccountID, admin: true}, order(t, "ABC", "1", "1", "999"))
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
	assert.EqualError(t, err, "user 999 not found")
}

func TestBuy_ConcurrentExactlyKSucceed(t *testing.T) {
	s, user, _ := setupService(t)
	ctx := context.Background()
	me := caller{id: user.AccountID}
	o := order(t, "ABC", "1", "10", decimal.NewFromInt(user.AccountID).String())

	const n = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Buy(ctx, me, o)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ledgererr.ErrInsufficientFunds)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	acct, err := s.Store.Account(ctx, user.AccountID)
	require.NoError(t, err)
	assert.True(t, acct.Cash.IsZero())
	holdings, err := s.Store.Holdings(ctx, &user.AccountID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "10", holdings[0].Quantity.String())
}

func TestDeposit(t *testing.T) {
	s, user, _ := setupService(t)
	ctx := context.Background()

	_, err := s.Deposit(ctx, "127.0.0.1:5000", decimal.NewFromInt(5))
	assert.ErrorIs(t, err, ledgererr.ErrNotAuthenticated)

	require.NoError(t, s.Registry.Register(ctx, registry.Entry{
		SessionID: "s1", AccountID: user.AccountID, Login: "John", Address: "127.0.0.1:5000", Since: time.Now(),
	}))
	cash, err := s.Deposit(ctx, "127.0.0.1:5000", decimal.RequireFromString("12.5"))
	require.NoError(t, err)
	assert.Equal(t, "DEPOSIT: New balance: $112.50", Deposited(cash))

	// A different port is a different connection.
	_, err = s.Deposit(ctx, "127.0.0.1:5001", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ledgererr.ErrNotAuthenticated)
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount([]string{"20.25"})
	require.NoError(t, err)
	assert.Equal(t, "20.25", amount.String())

	for _, args := range [][]string{nil, {"0"}, {"-1"}, {"ten"}, {"1e-2000000000"}, {"1E6"}, {"0.001"}, {"1000000000000"}} {
		_, err := ParseAmount(args)
		assert.EqualError(t, err, "invalid command, missing or invalid amount", "%v", args)
	}
}
