// Package session holds the per-connection authentication state.
package session

import (
	"tradeledger/internal/constants"

	"github.com/google/uuid"
)

// Session is owned by exactly one connection worker and is not safe for
// concurrent use.
type Session struct {
	ID         string
	RemoteAddr string

	accountID int64
	login     string
	tier      constants.Tier
}

// New returns an anonymous session for a freshly accepted connection.
func New(remoteAddr string) *Session {
	return &Session{
		ID:         uuid.New().String(),
		RemoteAddr: remoteAddr,
		tier:       constants.Anonymous,
	}
}

// Authenticate moves the session to Authenticated(accountID, tier).
func (s *Session) Authenticate(accountID int64, login string, tier constants.Tier) {
	s.accountID = accountID
	s.login = login
	s.tier = tier
}

// Reset drops the identity and returns the session to Anonymous.
func (s *Session) Reset() {
	s.accountID = 0
	s.login = ""
	s.tier = constants.Anonymous
}

func (s *Session) Authenticated() bool  { return s.tier != constants.Anonymous }
func (s *Session) IsAdmin() bool        { return s.tier == constants.Admin }
func (s *Session) AccountID() int64     { return s.accountID }
func (s *Session) Login() string        { return s.login }
func (s *Session) Tier() constants.Tier { return s.tier }
