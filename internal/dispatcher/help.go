package dispatcher

var anonymousHelp = []string{
	"To use the system, please log in using the following command:",
	"LOGIN <user_name> <password>",
	"Once logged in, you can access additional commands and get further help.",
}

const loginGuidance = "Use LOGIN <user_name> <password> to sign in, or HELP for more information."

var commandHelp = []string{
	"Available Commands:",
	"LOGIN <user_name> <password>: Log in with your username and password.",
	"BUY <stock_symbol> <amount> <price> <user_id>: Buy stocks with the specified amount, price, and user ID.",
	"SELL <stock_symbol> <amount> <price> <user_id>: Sell stocks with the specified amount, price, and user ID.",
	"LIST [<user_id>]: List holdings. Without a user ID, lists your own.",
	"BALANCE [<user_id>]: Display the cash balance. Without a user ID, displays your own.",
	"LOOKUP <stock_name>: Search your holdings by symbol or name.",
	"DEPOSIT <amount>: Deposit funds into your account.",
	"LOGOUT: Log out and close the connection.",
	"WHO: Display active users (administrator only).",
	"HELP: Display this help message.",
	"QUIT: Terminate the connection.",
	"SHUTDOWN: Shut down the server (administrator only).",
}
