package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNegativeCash     = errors.New("cash balance cannot be negative")
	ErrNegativeQuantity = errors.New("holding quantity cannot be negative")
	ErrEmptyTicker      = errors.New("ticker is required")
)

// Account is a provisioned ledger participant. Accounts are created by seeding,
// never by client commands.
type Account struct {
	AccountID      int64           `gorm:"column:account_id;primaryKey;autoIncrement" json:"account_id"`
	FirstName      *string         `gorm:"column:first_name" json:"first_name"`
	LastName       *string         `gorm:"column:last_name" json:"last_name"`
	LoginName      string          `gorm:"column:login_name;type:varchar(64);not null;uniqueIndex" json:"login_name"`
	CredentialHash string          `gorm:"column:credential_hash;not null" json:"-"`
	Cash           decimal.Decimal `gorm:"column:cash;type:varchar(64);not null" json:"cash"`
	CreatedAt      time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Account) TableName() string {
	return "Accounts"
}

// BeforeSave keeps the non-negative cash invariant at the persistence boundary.
func (a *Account) BeforeSave(tx *gorm.DB) error {
	if a.Cash.IsNegative() {
		return ErrNegativeCash
	}
	return nil
}

// DisplayName is "First Last", falling back to the login name when either part is missing.
func (a *Account) DisplayName() string {
	first, last := deref(a.FirstName), deref(a.LastName)
	if first == "" || last == "" {
		return a.LoginName
	}
	return first + " " + last
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
