package constants

// Command verbs. Matching is case-sensitive.
const (
	Login    = "LOGIN"
	Buy      = "BUY"
	Sell     = "SELL"
	List     = "LIST"
	Balance  = "BALANCE"
	Lookup   = "LOOKUP"
	Deposit  = "DEPOSIT"
	Logout   = "LOGOUT"
	Who      = "WHO"
	Help     = "HELP"
	Quit     = "QUIT"
	Shutdown = "SHUTDOWN"
)

// Verbs is the known verb set in the order HELP and suggestions list them.
var Verbs = []string{Login, Buy, Sell, List, Balance, Lookup, Deposit, Logout, Who, Help, Quit, Shutdown}
