// Package holdings implements the read-only ledger views: BALANCE, LIST and LOOKUP.
package holdings

import (
	"context"
	"fmt"
	"strconv"

	"tradeledger/internal/domain"
	"tradeledger/internal/ledgererr"
	"tradeledger/internal/store"
)

// Caller is the authenticated identity issuing an operation.
type Caller interface {
	AccountID() int64
	IsAdmin() bool
}

// Service encapsulates holdings and balance views.
type Service struct {
	Store *store.Store
}

// NoRecords is the single data line of an empty LIST.
const NoRecords = "No records found."

// scope resolves which account a view covers. A nil result means every
// account and is only returned for admins.
func (s *Service) scope(ctx context.Context, caller Caller, args []string) (*int64, error) {
	if len(args) == 0 {
		if caller.IsAdmin() {
			return nil, nil
		}
		own := caller.AccountID()
		return &own, nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, ledgererr.Invalid("invalid arguments")
	}
	if !caller.IsAdmin() && id != caller.AccountID() {
		return nil, ledgererr.Denied("you may only view your own account")
	}
	if _, err := s.Store.Account(ctx, id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Balance renders one line per visible account.
func (s *Service) Balance(ctx context.Context, caller Caller, args []string) ([]string, error) {
	target, err := s.scope(ctx, caller, args)
	if err != nil {
		return nil, err
	}
	var accounts []domain.Account
	if target == nil {
		if accounts, err = s.Store.Accounts(ctx); err != nil {
			return nil, err
		}
	} else {
		acct, err := s.Store.Account(ctx, *target)
		if err != nil {
			return nil, err
		}
		accounts = []domain.Account{*acct}
	}

	lines := make([]string, 0, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		lines = append(lines, fmt.Sprintf("Balance for user %s: $%s", a.DisplayName(), a.Cash.StringFixed(2)))
	}
	return lines, nil
}

// List renders the visible holdings. The all-accounts view also names each owner.
func (s *Service) List(ctx context.Context, caller Caller, args []string) ([]string, error) {
	target, err := s.scope(ctx, caller, args)
	if err != nil {
		return nil, err
	}
	rows, err := s.Store.Holdings(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []string{NoRecords}, nil
	}

	lines := make([]string, 0, len(rows))
	for i := range rows {
		h := &rows[i]
		line := fmt.Sprintf("%d %s %s", h.HoldingID, h.Ticker, h.Quantity.String())
		if target == nil && h.Account != nil {
			line += fmt.Sprintf(" %s %s", h.Account.DisplayName(), h.Account.LoginName)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Lookup searches the visible holdings by ticker symbol or display name.
func (s *Service) Lookup(ctx context.Context, caller Caller, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, ledgererr.Invalid("missing arguments")
	}
	query := args[0]
	var target *int64
	if !caller.IsAdmin() {
		own := caller.AccountID()
		target = &own
	}
	rows, err := s.Store.SearchHoldings(ctx, target, query)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ledgererr.Classify(ledgererr.ErrNotFound,
			fmt.Sprintf("Your search for '%s' did not match any records.", query))
	}

	noun := "matches"
	if len(rows) == 1 {
		noun = "match"
	}
	lines := []string{fmt.Sprintf("Found %d %s for '%s':", len(rows), noun, query)}
	for i := range rows {
		h := &rows[i]
		line := fmt.Sprintf("%s %s", h.Ticker, h.Quantity.String())
		if target == nil && h.Account != nil {
			line += " " + h.Account.LoginName
		}
		lines = append(lines, line)
	}
	return lines, nil
}
