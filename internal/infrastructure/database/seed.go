package database

import (
	"errors"
	"fmt"

	"tradeledger/internal/domain"
	"tradeledger/internal/pkg/validation"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAccount describes one provisioned account.
type SeedAccount struct {
	FirstName string
	LastName  string
	LoginName string
	Secret    string
	Cash      decimal.Decimal
}

// DefaultAccounts is the default dataset: one ordinary trader and the administrator.
var DefaultAccounts = []SeedAccount{
	{FirstName: "John", LastName: "Doe", LoginName: "John", Secret: "John01", Cash: decimal.NewFromInt(100)},
	{FirstName: "Root", LastName: "User", LoginName: "Root", Secret: "Root01", Cash: decimal.NewFromInt(1000000)},
}

// HashSecret returns the stored credential form of a login secret.
func HashSecret(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Seed creates each account whose login name does not exist yet. Existing rows
// are left untouched so balances survive restarts.
func Seed(db *gorm.DB, accounts []SeedAccount) (created int, err error) {
	for _, s := range accounts {
		if !validation.IsValidLoginName(s.LoginName) {
			return created, fmt.Errorf("seed: invalid login name %q", s.LoginName)
		}
		var existing domain.Account
		err := db.Where("login_name = ?", s.LoginName).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}
		hash, err := HashSecret(s.Secret)
		if err != nil {
			return created, err
		}
		acct := domain.Account{
			LoginName:      s.LoginName,
			CredentialHash: hash,
			Cash:           s.Cash,
		}
		if s.FirstName != "" {
			first := s.FirstName
			acct.FirstName = &first
		}
		if s.LastName != "" {
			last := s.LastName
			acct.LastName = &last
		}
		if err := db.Create(&acct).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
