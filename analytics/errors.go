package analytics

import (
	"errors"
	"fmt"
)

// ErrEmptyInput describes a document without data rows. Analyze never
// returns it; the report degrades to empty stats instead. Callers that want a
// hard failure can check Report.IsEmpty and return it themselves.
var ErrEmptyInput = errors.New("csv has no data rows")

// ParseError is returned when the CSV stream is malformed. No partial report
// is produced.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("csv parse error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("csv parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err is, or wraps, a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
