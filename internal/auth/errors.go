package auth

import "tradeledger/internal/ledgererr"

var (
	ErrCredentialsRequired = ledgererr.Invalid("missing arguments")
	ErrWrongCredentials    = ledgererr.Classify(ledgererr.ErrForbidden, "Wrong UserID or Password")
)
