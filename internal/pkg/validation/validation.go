package validation

import (
	"regexp"
)

// Ticker symbols: letters, digits, dots and hyphens, at most 16 characters
// (the width of the holdings column).
var tickerRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-]{0,15}$`)

// Login names: letters, digits, underscores, dots and hyphens.
var loginRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

// Plain decimal literals only: no sign, no exponent, bounded integer and
// fractional digits so stored balances stay inside their varchar(64) columns.
var (
	quantityRe = regexp.MustCompile(`^[0-9]{1,12}(\.[0-9]{1,8})?$`)
	moneyRe    = regexp.MustCompile(`^[0-9]{1,12}(\.[0-9]{1,2})?$`)
)

func IsValidTicker(ticker string) bool {
	return tickerRe.MatchString(ticker)
}

func IsValidLoginName(login string) bool {
	return loginRe.MatchString(login)
}

// IsValidQuantity accepts share counts with up to 8 fractional digits.
func IsValidQuantity(s string) bool {
	return quantityRe.MatchString(s)
}

// IsValidMoney accepts prices and cash amounts with up to 2 fractional digits.
func IsValidMoney(s string) bool {
	return moneyRe.MatchString(s)
}
