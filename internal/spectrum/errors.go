package spectrum

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest      = errors.New("invalid simulation request")
	ErrDegenerateIntensity = errors.New("degenerate stick intensity")
	ErrStickOverflow       = errors.New("stick spectrum overflow")
)

// Error reports a synthesis failure for one radical of a request.
// Radical is 1-based; zero means the failure is not tied to a radical.
type Error struct {
	Kind    error
	Radical int
	Msg     string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	prefix := e.Kind.Error()
	if e.Radical > 0 {
		prefix = fmt.Sprintf("radical %d: %s", e.Radical, prefix)
	}
	if e.Msg == "" {
		return prefix
	}
	return prefix + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidRequest, Msg: fmt.Sprintf(format, args...)}
}

func overflowf(format string, args ...any) error {
	return &Error{Kind: ErrStickOverflow, Msg: fmt.Sprintf(format, args...)}
}

// forRadical tags err with the radical it came from.
func forRadical(err error, n int) error {
	var se *Error
	if errors.As(err, &se) {
		c := *se
		c.Radical = n
		return &c
	}
	return fmt.Errorf("radical %d: %w", n, err)
}
