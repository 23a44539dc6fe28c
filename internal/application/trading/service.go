// Package trading implements the cash-moving ledger operations: BUY, SELL and DEPOSIT.
package trading

import (
	"context"
	"fmt"
	"strconv"

	"tradeledger/internal/domain"
	"tradeledger/internal/ledgererr"
	"tradeledger/internal/pkg/validation"
	"tradeledger/internal/registry"
	"tradeledger/internal/store"

	"github.com/shopspring/decimal"
)

// Caller is the authenticated identity issuing an operation.
type Caller interface {
	AccountID() int64
	IsAdmin() bool
}

type Service struct {
	Store    *store.Store
	Registry registry.Registry
}

// Order is a parsed BUY or SELL request.
type Order struct {
	Ticker    string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	AccountID int64
}

// ParseOrder reads "<ticker> <qty> <price> <accountID>". Extra arguments are ignored.
// Quantity and price must be plain decimals (see validation.IsValidQuantity/IsValidMoney).
func ParseOrder(args []string) (Order, error) {
	if len(args) < 4 {
		return Order{}, ledgererr.Invalid("missing arguments")
	}
	if !validation.IsValidTicker(args[0]) {
		return Order{}, ledgererr.Invalid("invalid arguments")
	}
	if !validation.IsValidQuantity(args[1]) || !validation.IsValidMoney(args[2]) {
		return Order{}, ledgererr.Invalid("invalid arguments")
	}
	qty, err := decimal.NewFromString(args[1])
	if err != nil || !qty.IsPositive() {
		return Order{}, ledgererr.Invalid("invalid arguments")
	}
	price, err := decimal.NewFromString(args[2])
	if err != nil {
		return Order{}, ledgererr.Invalid("invalid arguments")
	}
	id, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		return Order{}, ledgererr.Invalid("invalid arguments")
	}
	return Order{Ticker: args[0], Quantity: qty, Price: price, AccountID: id}, nil
}

// Fill is the state of the account after a BUY or SELL.
type Fill struct {
	Ticker   string
	Quantity decimal.Decimal // holding after the trade
	Cash     decimal.Decimal
}

func (f Fill) Bought() string {
	return fmt.Sprintf("BOUGHT: New balance: %s %s. USD balance $%s", f.Quantity.String(), f.Ticker, f.Cash.StringFixed(2))
}

func (f Fill) Sold() string {
	return fmt.Sprintf("SOLD: New balance: %s %s. USD balance $%s", f.Quantity.String(), f.Ticker, f.Cash.StringFixed(2))
}

func authorize(caller Caller, accountID int64) error {
	if caller.IsAdmin() || caller.AccountID() == accountID {
		return nil
	}
	return ledgererr.Denied("you may only trade on your own account")
}

// Buy debits qty*price from the account and credits qty shares, atomically.
func (s *Service) Buy(ctx context.Context, caller Caller, o Order) (*Fill, error) {
	if err := authorize(caller, o.AccountID); err != nil {
		return nil, err
	}
	cost := o.Quantity.Mul(o.Price)

	var fill Fill
	err := s.Store.Update(ctx, o.AccountID, func(tx *store.Tx) error {
		if tx.Account.Cash.LessThan(cost) {
			return ledgererr.ErrInsufficientFunds
		}
		h, err := tx.Holding(o.Ticker)
		if err != nil {
			return err
		}
		if h == nil {
			h = &domain.Holding{Ticker: o.Ticker, Quantity: decimal.Zero}
		}
		h.Quantity = h.Quantity.Add(o.Quantity)
		tx.Account.Cash = tx.Account.Cash.Sub(cost)
		if err := tx.SaveAccount(); err != nil {
			return err
		}
		if err := tx.SaveHolding(h); err != nil {
			return err
		}
		fill = Fill{Ticker: h.Ticker, Quantity: h.Quantity, Cash: tx.Account.Cash}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fill, nil
}

// Sell removes qty shares and credits qty*price, atomically.
func (s *Service) Sell(ctx context.Context, caller Caller, o Order) (*Fill, error) {
	if err := authorize(caller, o.AccountID); err != nil {
		return nil, err
	}
	proceeds := o.Quantity.Mul(o.Price)

	var fill Fill
	err := s.Store.Update(ctx, o.AccountID, func(tx *store.Tx) error {
		h, err := tx.Holding(o.Ticker)
		if err != nil {
			return err
		}
		if h == nil {
			return fmt.Errorf("holding %s for user %d %w", o.Ticker, o.AccountID, ledgererr.ErrNotFound)
		}
		if h.Quantity.LessThan(o.Quantity) {
			return fmt.Errorf("%w for %s", ledgererr.ErrInsufficientStock, o.Ticker)
		}
		h.Quantity = h.Quantity.Sub(o.Quantity)
		tx.Account.Cash = tx.Account.Cash.Add(proceeds)
		if err := tx.SaveAccount(); err != nil {
			return err
		}
		if err := tx.SaveHolding(h); err != nil {
			return err
		}
		fill = Fill{Ticker: h.Ticker, Quantity: h.Quantity, Cash: tx.Account.Cash}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fill, nil
}

// ParseAmount reads a strictly positive DEPOSIT amount.
func ParseAmount(args []string) (decimal.Decimal, error) {
	if len(args) < 1 || !validation.IsValidMoney(args[0]) {
		return decimal.Zero, ledgererr.Invalid("missing or invalid amount")
	}
	amount, err := decimal.NewFromString(args[0])
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ledgererr.Invalid("missing or invalid amount")
	}
	return amount, nil
}

// Deposit credits the account logged in from address. The account is found
// through the session registry, not taken from the request.
func (s *Service) Deposit(ctx context.Context, address string, amount decimal.Decimal) (decimal.Decimal, error) {
	entry, err := s.Registry.ByAddress(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	if entry == nil {
		return decimal.Zero, ledgererr.ErrNotAuthenticated
	}

	var cash decimal.Decimal
	err = s.Store.Update(ctx, entry.AccountID, func(tx *store.Tx) error {
		tx.Account.Cash = tx.Account.Cash.Add(amount)
		if err := tx.SaveAccount(); err != nil {
			return err
		}
		cash = tx.Account.Cash
		return nil
	})
	return cash, err
}

// Deposited renders the DEPOSIT result line.
func Deposited(cash decimal.Decimal) string {
	return fmt.Sprintf("DEPOSIT: New balance: $%s", cash.StringFixed(2))
}
