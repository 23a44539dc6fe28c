// Package store is the Ledger Store: the only code path that writes account
// cash and holding quantities.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tradeledger/internal/domain"
	"tradeledger/internal/ledgererr"

	"gorm.io/gorm"
)

// Store wraps the ledger database. Read-modify-write sequences go through
// Update, which serializes them per account.
type Store struct {
	DB    *gorm.DB
	locks *accountLocks
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db, locks: newAccountLocks()}
}

// Tx is the view of one account inside an Update.
type Tx struct {
	db      *gorm.DB
	Account *domain.Account
}

// Holding returns the account's holding for ticker, or nil when none exists.
func (t *Tx) Holding(ticker string) (*domain.Holding, error) {
	var h domain.Holding
	res := t.db.Where("account_id = ? AND ticker = ?", t.Account.AccountID, ticker).Limit(1).Find(&h)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &h, nil
}

// SaveAccount writes back the account row (cash).
func (t *Tx) SaveAccount() error {
	return t.db.Save(t.Account).Error
}

// SaveHolding inserts or updates a holding owned by the account.
func (t *Tx) SaveHolding(h *domain.Holding) error {
	h.AccountID = t.Account.AccountID
	return t.db.Save(h).Error
}

// Update runs fn as one atomic unit for accountID: the account lock is held and
// a single database transaction wraps fn. Any error from fn rolls everything back.
func (s *Store) Update(ctx context.Context, accountID int64, fn func(tx *Tx) error) error {
	// Accounts are never deleted, so only IDs that exist get a lock entry.
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Account{}).Where("account_id = ?", accountID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return accountNotFound(accountID)
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	return s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var acct domain.Account
		if err := db.Where("account_id = ?", accountID).First(&acct).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return accountNotFound(accountID)
			}
			return err
		}
		return fn(&Tx{db: db, Account: &acct})
	})
}

// Account loads one account by ID.
func (s *Store) Account(ctx context.Context, accountID int64) (*domain.Account, error) {
	var acct domain.Account
	if err := s.DB.WithContext(ctx).Where("account_id = ?", accountID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accountNotFound(accountID)
		}
		return nil, err
	}
	return &acct, nil
}

// AccountByLogin loads one account by its login name (exact match).
func (s *Store) AccountByLogin(ctx context.Context, login string) (*domain.Account, error) {
	var acct domain.Account
	if err := s.DB.WithContext(ctx).Where("login_name = ?", login).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s %w", login, ledgererr.ErrNotFound)
		}
		return nil, err
	}
	return &acct, nil
}

// Accounts lists every account ordered by ID.
func (s *Store) Accounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := s.DB.WithContext(ctx).Order("account_id").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Holdings lists holdings with their owning account preloaded. A nil
// accountID lists every account's holdings.
func (s *Store) Holdings(ctx context.Context, accountID *int64) ([]domain.Holding, error) {
	q := s.DB.WithContext(ctx).Preload("Account").Order("holding_id")
	if accountID != nil {
		q = q.Where("account_id = ?", *accountID)
	}
	var holdings []domain.Holding
	if err := q.Find(&holdings).Error; err != nil {
		return nil, err
	}
	return holdings, nil
}

// SearchHoldings is Holdings filtered by a case-insensitive substring match
// against the ticker symbol or the ticker display name.
func (s *Store) SearchHoldings(ctx context.Context, accountID *int64, query string) ([]domain.Holding, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	q := s.DB.WithContext(ctx).Preload("Account").Order("holding_id").
		Where("(LOWER(ticker) LIKE ? ESCAPE '\\' OR LOWER(ticker_name) LIKE ? ESCAPE '\\')", pattern, pattern)
	if accountID != nil {
		q = q.Where("account_id = ?", *accountID)
	}
	var holdings []domain.Holding
	if err := q.Find(&holdings).Error; err != nil {
		return nil, err
	}
	return holdings, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func accountNotFound(accountID int64) error {
	return fmt.Errorf("user %d %w", accountID, ledgererr.ErrNotFound)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
