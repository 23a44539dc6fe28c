package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Holding is an account's position in one ticker. Rows are never deleted, a
// holding sold down to zero stays at zero.
type Holding struct {
	HoldingID  int64           `gorm:"column:holding_id;primaryKey;autoIncrement" json:"holding_id"`
	AccountID  int64           `gorm:"column:account_id;not null;uniqueIndex:idx_holding_account_ticker" json:"account_id"`
	Ticker     string          `gorm:"column:ticker;type:varchar(16);not null;uniqueIndex:idx_holding_account_ticker" json:"ticker"`
	TickerName string          `gorm:"column:ticker_name;type:varchar(64);not null;default:''" json:"ticker_name"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:varchar(64);not null" json:"quantity"`
	CreatedAt  time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"column:updatedAt" json:"updatedAt"`

	Account *Account `gorm:"foreignKey:AccountID;references:AccountID" json:"-"`
}

func (Holding) TableName() string {
	return "Holdings"
}

// BeforeSave rejects a negative position before it reaches the database.
func (h *Holding) BeforeSave(tx *gorm.DB) error {
	h.Ticker = strings.TrimSpace(h.Ticker)
	if h.Ticker == "" {
		return ErrEmptyTicker
	}
	if h.Quantity.IsNegative() {
		return ErrNegativeQuantity
	}
	return nil
}
