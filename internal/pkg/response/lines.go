package response

import (
	"errors"
	"fmt"
	"strings"

	"tradeledger/internal/ledgererr"
)

// Line is a response on the ledger protocol: a status line, zero or more data
// lines, then an empty terminator line.
type Line struct {
	Code    int
	Message string
	Lines   []string
	// Close asks the transport to end the connection after writing.
	Close bool
}

// OK builds a 200 response carrying data lines.
func OK(lines ...string) *Line {
	return &Line{Code: ledgererr.StatusOK, Message: "OK", Lines: lines}
}

// Fail builds an error response. Client-facing taxonomy errors are echoed;
// anything else becomes a generic 500.
func Fail(err error, extra ...string) *Line {
	code := ledgererr.StatusOf(err)
	msg := err.Error()
	if code == ledgererr.StatusInternal {
		msg = ledgererr.ErrInternal.Error()
	}
	return &Line{Code: code, Message: msg, Lines: extra}
}

// Status builds a response with an explicit code and message.
func Status(code int, msg string, lines ...string) *Line {
	return &Line{Code: code, Message: msg, Lines: lines}
}

// Closing marks the response as the last one on the connection.
func (r *Line) Closing() *Line {
	r.Close = true
	return r
}

// Is reports whether the response status matches the status of err.
func (r *Line) Is(err error) bool {
	return r.Code == ledgererr.StatusOf(err) && strings.Contains(r.Message, rootMessage(err))
}

// Render produces the wire form. Empty data lines are dropped so the only
// empty line is the terminator.
func (r *Line) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s\n", r.Code, r.Message)
	for _, l := range r.Lines {
		for _, part := range strings.Split(l, "\n") {
			part = strings.TrimRight(part, "\r")
			if part == "" {
				continue
			}
			b.WriteString(part)
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
