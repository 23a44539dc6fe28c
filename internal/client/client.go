// Package client is a line client for the ledger server.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// DefaultTimeout bounds the wait for a response.
const DefaultTimeout = 10 * time.Second

var ErrTimeout = errors.New("request timed out")

type Client struct {
	conn    net.Conn
	r       *bufio.Reader
	Timeout time.Duration

	stale   int    // responses abandoned after a timeout, still to be read
	partial string // unterminated line cut off by a timeout
}

// Dial connects to a ledger server.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn), Timeout: DefaultTimeout}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends one command and returns the response lines, status line first.
// Replies that arrive after an earlier timeout are discarded first.
func (c *Client) Do(line string) ([]string, error) {
	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		return nil, err
	}
	if c.Timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.Timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}

	for c.stale > 0 {
		if _, err := c.readResponse(); err != nil {
			if errors.Is(err, ErrTimeout) {
				c.stale++
			}
			return nil, err
		}
		c.stale--
	}
	lines, err := c.readResponse()
	if errors.Is(err, ErrTimeout) {
		c.stale++
	}
	return lines, err
}

// readResponse reads lines up to the empty terminator line.
func (c *Client) readResponse() ([]string, error) {
	var lines []string
	for {
		s, err := c.r.ReadString('\n')
		if err != nil {
			c.partial += s
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return lines, ErrTimeout
			}
			return lines, err
		}
		s = strings.TrimRight(c.partial+s, "\r\n")
		c.partial = ""
		if s == "" {
			return lines, nil
		}
		lines = append(lines, s)
	}
}

// closesSession lists the commands after which the server hangs up.
var closesSession = map[string]bool{"QUIT": true, "LOGOUT": true, "SHUTDOWN": true}

// Run is the interactive loop: prompt, send, print, until QUIT or EOF.
func Run(c *Client, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Enter command: ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		cmd := strings.TrimSpace(sc.Text())
		if cmd == "" {
			continue
		}

		lines, err := c.Do(cmd)
		if errors.Is(err, ErrTimeout) {
			fmt.Fprintln(out, "Request timed out.")
			continue
		}
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "Connection closed by server.")
				return nil
			}
			return err
		}
		fields := strings.Fields(cmd)
		if closesSession[fields[0]] && len(lines) > 0 && strings.HasPrefix(lines[0], "200") {
			return nil
		}
	}
}
