// Package dispatcher routes request lines to ledger operations and enforces
// the session authentication state machine.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"tradeledger/internal/application/holdings"
	"tradeledger/internal/application/trading"
	"tradeledger/internal/auth"
	"tradeledger/internal/command"
	"tradeledger/internal/constants"
	"tradeledger/internal/health"
	"tradeledger/internal/ledgererr"
	"tradeledger/internal/pkg/response"
	"tradeledger/internal/registry"
	"tradeledger/internal/session"

	"github.com/rs/zerolog/log"
)

// Dispatcher is shared by every connection worker.
type Dispatcher struct {
	Auth     *auth.Service
	Registry registry.Registry
	Trading  *trading.Service
	Holdings *holdings.Service
	Stats    health.Stats
	// Shutdown is invoked after an administrator's SHUTDOWN has been accepted.
	Shutdown func()
}

const unknownVerb = "UNKNOWN"

// Handle processes one request line for sess and returns the response to write.
func (d *Dispatcher) Handle(ctx context.Context, sess *session.Session, line string) (resp *response.Line) {
	start := time.Now()
	verb := unknownVerb

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("session_id", sess.ID).Str("verb", verb).Interface("panic", r).Msg("command panicked")
			resp = response.Fail(ledgererr.ErrInternal)
		}
		d.record(ctx, sess, verb, resp, time.Since(start))
	}()

	cmd, err := command.Parse(line)
	if err != nil {
		verb = ""
		return response.Fail(err)
	}
	if cmd.Known() {
		verb = cmd.Verb
	}
	log.Info().Str("session_id", sess.ID).Str("remote", sess.RemoteAddr).Str("verb", verb).Msg("Entering command")

	switch cmd.Verb {
	case constants.Help:
		return d.help(sess)
	case constants.Quit:
		return response.OK().Closing()
	}

	if !sess.Authenticated() {
		if cmd.Verb == constants.Login {
			return d.login(ctx, sess, cmd)
		}
		return response.Fail(ledgererr.ErrNotAuthenticated, loginGuidance)
	}

	if !cmd.Known() {
		return response.Fail(ledgererr.ErrInvalidArgument, command.SuggestionLine(cmd.Verb))
	}
	if !constants.AllowedTier(cmd.Verb, sess.Tier()) {
		return response.Fail(ledgererr.Denied(fmt.Sprintf("%s command is only allowed for the administrator", cmd.Verb)))
	}
	return d.dispatch(ctx, sess, cmd)
}

func (d *Dispatcher) dispatch(ctx context.Context, sess *session.Session, cmd command.Command) *response.Line {
	switch cmd.Verb {
	case constants.Login:
		return d.login(ctx, sess, cmd)
	case constants.Logout:
		return d.logout(ctx, sess)
	case constants.Buy, constants.Sell:
		return d.trade(ctx, sess, cmd)
	case constants.Deposit:
		amount, err := trading.ParseAmount(cmd.Args)
		if err != nil {
			return d.fail(sess, cmd, err)
		}
		cash, err := d.Trading.Deposit(ctx, sess.RemoteAddr, amount)
		if err != nil {
			return d.fail(sess, cmd, err)
		}
		return response.OK(trading.Deposited(cash))
	case constants.Balance:
		return d.view(ctx, sess, cmd, d.Holdings.Balance)
	case constants.List:
		return d.view(ctx, sess, cmd, d.Holdings.List)
	case constants.Lookup:
		return d.view(ctx, sess, cmd, d.Holdings.Lookup)
	case constants.Who:
		return d.who(ctx, sess, cmd)
	case constants.Shutdown:
		log.Warn().Str("session_id", sess.ID).Str("login", sess.Login()).Msg("shutdown requested")
		if d.Shutdown != nil {
			d.Shutdown()
		}
		return response.OK("Server is shutting down.").Closing()
	}
	return response.Fail(ledgererr.ErrInvalidArgument)
}

func (d *Dispatcher) help(sess *session.Session) *response.Line {
	if !sess.Authenticated() {
		return response.OK(anonymousHelp...)
	}
	return response.OK(commandHelp...)
}

func (d *Dispatcher) login(ctx context.Context, sess *session.Session, cmd command.Command) *response.Line {
	if len(cmd.Args) != 2 {
		return response.Fail(auth.ErrCredentialsRequired)
	}
	acct, tier, err := d.Auth.Authenticate(ctx, cmd.Args[0], cmd.Args[1])
	if err != nil {
		log.Warn().Str("session_id", sess.ID).Str("remote", sess.RemoteAddr).Str("login", cmd.Args[0]).Msg("login failed")
		return d.fail(sess, cmd, err)
	}

	if sess.Authenticated() {
		if err := d.Registry.Deregister(ctx, sess.AccountID(), sess.RemoteAddr); err != nil {
			return d.fail(sess, cmd, err)
		}
		sess.Reset()
	}
	entry := registry.Entry{
		SessionID: sess.ID,
		AccountID: acct.AccountID,
		Login:     acct.LoginName,
		Address:   sess.RemoteAddr,
		Since:     time.Now(),
	}
	if err := d.Registry.Register(ctx, entry); err != nil {
		return d.fail(sess, cmd, err)
	}
	sess.Authenticate(acct.AccountID, acct.LoginName, tier)
	log.Info().Str("session_id", sess.ID).Str("remote", sess.RemoteAddr).Int64("account_id", acct.AccountID).Str("tier", tier.String()).Msg("login succeeded")
	return response.OK()
}

func (d *Dispatcher) logout(ctx context.Context, sess *session.Session) *response.Line {
	if err := d.Registry.Deregister(ctx, sess.AccountID(), sess.RemoteAddr); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("logout deregister failed")
	}
	sess.Reset()
	return response.OK().Closing()
}

func (d *Dispatcher) trade(ctx context.Context, sess *session.Session, cmd command.Command) *response.Line {
	o, err := trading.ParseOrder(cmd.Args)
	if err != nil {
		return d.fail(sess, cmd, err)
	}
	if cmd.Verb == constants.Buy {
		fill, err := d.Trading.Buy(ctx, sess, o)
		if err != nil {
			return d.fail(sess, cmd, err)
		}
		return response.OK(fill.Bought())
	}
	fill, err := d.Trading.Sell(ctx, sess, o)
	if err != nil {
		return d.fail(sess, cmd, err)
	}
	return response.OK(fill.Sold())
}

type viewFunc func(ctx context.Context, caller holdings.Caller, args []string) ([]string, error)

func (d *Dispatcher) view(ctx context.Context, sess *session.Session, cmd command.Command, fn viewFunc) *response.Line {
	lines, err := fn(ctx, sess, cmd.Args)
	if err != nil {
		return d.fail(sess, cmd, err)
	}
	return response.OK(lines...)
}

func (d *Dispatcher) who(ctx context.Context, sess *session.Session, cmd command.Command) *response.Line {
	entries, err := d.Registry.List(ctx)
	if err != nil {
		return d.fail(sess, cmd, err)
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "The list of active users:")
	for _, e := range entries {
		lines = append(lines, e.Login+" "+e.Address)
	}
	return response.OK(lines...)
}

// fail renders err. Errors outside the taxonomy are logged here and never reach the client.
func (d *Dispatcher) fail(sess *session.Session, cmd command.Command, err error) *response.Line {
	if !ledgererr.IsClientError(err) {
		log.Error().Err(err).Str("session_id", sess.ID).Str("verb", cmd.Verb).Int64("account_id", sess.AccountID()).Msg("command failed")
	}
	return response.Fail(err)
}

// Disconnect runs the cleanup every connection gets when it ends, however it ends.
func (d *Dispatcher) Disconnect(ctx context.Context, sess *session.Session) {
	if !sess.Authenticated() {
		return
	}
	if err := d.Registry.Deregister(ctx, sess.AccountID(), sess.RemoteAddr); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("disconnect deregister failed")
	}
	sess.Reset()
}

func (d *Dispatcher) record(ctx context.Context, sess *session.Session, verb string, resp *response.Line, elapsed time.Duration) {
	status := ledgererr.StatusInternal
	if resp != nil {
		status = resp.Code
	}
	log.Info().
		Str("session_id", sess.ID).
		Str("remote", sess.RemoteAddr).
		Str("verb", verb).
		Int64("account_id", sess.AccountID()).
		Int("status", status).
		Int64("ms", elapsed.Milliseconds()).
		Msg("Exiting command")
	if d.Stats != nil && verb != "" {
		d.Stats.Record(ctx, health.Sample{Verb: verb, Remote: sess.RemoteAddr, Status: status, Duration: elapsed, At: time.Now()})
	}
}
