package attractor

import (
	"errors"
	"fmt"
)

// Domain errors for sampling and parsing.
var (
	// ErrMalformed indicates a coefficient string that cannot be tokenised.
	ErrMalformed = errors.New("attractor: malformed coefficient string")

	// ErrOutOfRange indicates a coefficient that cannot be encoded in a field.
	ErrOutOfRange = errors.New("attractor: coefficient out of range")

	// ErrNotChaotic indicates well-formed coefficients that failed classification.
	ErrNotChaotic = errors.New("attractor: coefficients do not form a chaotic attractor")

	// ErrSearchExhausted indicates a bounded random search found nothing.
	ErrSearchExhausted = errors.New("attractor: random search exhausted its attempts")

	// ErrNoInstability indicates a perturbation scan never left the chaotic regime.
	ErrNoInstability = errors.New("attractor: perturbation scan never became unstable")

	// ErrNoStableOffset indicates a coefficient that is chaotic only at its
	// exact base value.
	ErrNoStableOffset = errors.New("attractor: no chaotic offset next to the base value")

	// ErrBadCell indicates a coefficient reference outside the family's table.
	ErrBadCell = errors.New("attractor: coefficient reference out of table")
)

// ParseError wraps a parse failure with its position.
type ParseError struct {
	Line    int // 1-based, 0 when parsing a single string
	Field   int // 1-based, 0 when the field count is wrong
	Text    string
	Wrapped error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Field > 0:
		return fmt.Sprintf("line %d field %d: %v: %q", e.Line, e.Field, e.Wrapped, e.Text)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v: %q", e.Line, e.Wrapped, e.Text)
	case e.Field > 0:
		return fmt.Sprintf("field %d: %v: %q", e.Field, e.Wrapped, e.Text)
	}
	return fmt.Sprintf("%v: %q", e.Wrapped, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}
