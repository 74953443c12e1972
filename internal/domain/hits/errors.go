package hits

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrParse    = errors.New("malformed hit row")
	ErrDivision = errors.New("zero query length")
)

// ParseError reports a row that cannot be turned into a hit record.
// Field is empty when the row itself is short.
type ParseError struct {
	Row   int // 1-based line number
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d: field %s: invalid value %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParse) hold for every ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// DivisionError reports a hit whose query length is zero, which leaves
// coverage undefined.
type DivisionError struct {
	Row     int
	QueryID string
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("row %d: query %q has qlen 0, coverage is undefined", e.Row, e.QueryID)
}

// Is makes errors.Is(err, ErrDivision) hold for every DivisionError.
func (e *DivisionError) Is(target error) bool { return target == ErrDivision }
