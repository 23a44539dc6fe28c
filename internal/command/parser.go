// Package command turns a request line into a verb and its arguments.
package command

import (
	"fmt"
	"strings"

	"tradeledger/internal/constants"
	"tradeledger/internal/ledgererr"
)

// Command is one parsed request line.
type Command struct {
	Verb string
	Args []string
}

// Known reports whether the verb is part of the command set.
func (c Command) Known() bool {
	return constants.IsVerb(c.Verb)
}

// Arg returns the i-th argument, or "" when absent.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Parse splits line on whitespace. A blank line is a format error.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ledgererr.ErrFormat
	}
	return Command{Verb: fields[0], Args: fields[1:]}, nil
}

// Suggest lists the known verbs starting with typed, ignoring case.
func Suggest(typed string) []string {
	if typed == "" {
		return nil
	}
	prefix := strings.ToUpper(typed)
	var out []string
	for _, v := range constants.Verbs {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	return out
}

// SuggestionLine renders the "did you mean" hint, or "" when nothing matches.
func SuggestionLine(typed string) string {
	matches := Suggest(typed)
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf("Did you mean one of these commands?: %s", strings.Join(matches, " "))
}
