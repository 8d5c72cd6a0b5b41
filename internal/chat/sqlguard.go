package chat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDisallowedSQL marks a query rejected by the guard. The bridge fails the
// user turn instead of executing.
var ErrDisallowedSQL = errors.New("disallowed SQL")

// deniedSubstrings are rejected anywhere in the lowered query text. This is a
// substring denylist, not a SQL parser: it can false-positive on identifiers
// containing these words and is not a security boundary on its own. The
// SELECT-prefix and single-statement checks below narrow it, and the
// connection should additionally run under a read-only database role.
var deniedSubstrings = []string{"delete", "update", "insert", "drop", "alter"}

// GuardSQL validates that a model-generated query is a single read-only
// SELECT statement. Returns ErrDisallowedSQL (wrapped with the reason)
// otherwise.
func GuardSQL(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return fmt.Errorf("%w: empty query", ErrDisallowedSQL)
	}

	lowered := strings.ToLower(trimmed)
	if !strings.HasPrefix(lowered, "select") {
		return fmt.Errorf("%w: only SELECT queries are allowed", ErrDisallowedSQL)
	}

	// One statement only: a semicolon may terminate the query but nothing
	// may follow it.
	if rest := strings.TrimRight(trimmed, "; \t\r\n"); strings.Contains(rest, ";") {
		return fmt.Errorf("%w: multiple statements", ErrDisallowedSQL)
	}

	for _, bad := range deniedSubstrings {
		if strings.Contains(lowered, bad) {
			return fmt.Errorf("%w: contains %q", ErrDisallowedSQL, bad)
		}
	}
	return nil
}
