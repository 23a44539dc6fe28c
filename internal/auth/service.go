package auth

import (
	"context"
	"errors"
	"fmt"

	"tradeledger/internal/constants"
	"tradeledger/internal/domain"
	"tradeledger/internal/ledgererr"

	"golang.org/x/crypto/bcrypt"
)

// AccountFinder abstracts account lookup by login name (Store in production, fakes in tests).
type AccountFinder interface {
	AccountByLogin(ctx context.Context, login string) (*domain.Account, error)
}

// Service authenticates LOGIN requests and derives privilege tiers. The admin
// account ID is resolved once by login name and cached.
type Service struct {
	Accounts AccountFinder
	adminID  int64
}

// NewService resolves the administrator account named adminLogin.
func NewService(ctx context.Context, accounts AccountFinder, adminLogin string) (*Service, error) {
	admin, err := accounts.AccountByLogin(ctx, adminLogin)
	if err != nil {
		return nil, fmt.Errorf("resolve admin account %q: %w", adminLogin, err)
	}
	return &Service{Accounts: accounts, adminID: admin.AccountID}, nil
}

// AdminID is the cached ID of the administrator account.
func (s *Service) AdminID() int64 {
	return s.adminID
}

// TierOf derives the privilege tier from an account ID.
func (s *Service) TierOf(accountID int64) constants.Tier {
	if accountID != 0 && accountID == s.adminID {
		return constants.Admin
	}
	return constants.Ordinary
}

// Authenticate finds the account by exact login name and verifies the secret
// against its stored credential.
func (s *Service) Authenticate(ctx context.Context, login, secret string) (*domain.Account, constants.Tier, error) {
	if login == "" || secret == "" {
		return nil, constants.Anonymous, ErrCredentialsRequired
	}
	acct, err := s.Accounts.AccountByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ledgererr.ErrNotFound) {
			return nil, constants.Anonymous, ErrWrongCredentials
		}
		return nil, constants.Anonymous, err
	}
	if acct.CredentialHash == "" {
		return nil, constants.Anonymous, ErrWrongCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.CredentialHash), []byte(secret)); err != nil {
		return nil, constants.Anonymous, ErrWrongCredentials
	}
	return acct, s.TierOf(acct.AccountID), nil
}
