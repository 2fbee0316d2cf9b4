package solverlog

import (
	"errors"
	"fmt"
)

var (
	ErrTooFewTokens = errors.New("too few tokens")
	ErrBadNumber    = errors.New("malformed number")
	ErrBadBranch    = errors.New("malformed branching constraint")
	ErrNoRecord     = errors.New("line range does not end in a selection record")
)

// ParseError describes a malformed selection record or branching line. The
// record is skipped; the rest of the log is still usable.
type ParseError struct {
	Line  int // 1-based line number in the log
	Field string
	Token string
	Cause error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("line %d", e.Line)
	if e.Field != "" {
		msg += " field " + e.Field
	}
	if e.Token != "" {
		msg += fmt.Sprintf(" token %q", e.Token)
	}
	return fmt.Sprintf("%s: %v", msg, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// IsParseError reports whether err carries a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
