package roster

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound    = errors.New("student not found")
	ErrSyncTimeout = errors.New("sync timed out")
)

type FetchErrorKind string

const (
	AccessDenied      FetchErrorKind = "AccessDenied"
	AuthRequired      FetchErrorKind = "AuthRequired"
	FetchFailed       FetchErrorKind = "FetchFailed"
	ConnectionBlocked FetchErrorKind = "ConnectionBlocked"
	ParseError        FetchErrorKind = "ParseError"
)

// FetchError is a classified failure to retrieve or parse a source table.
type FetchError struct {
	Kind   FetchErrorKind
	Label  string
	Status int    // HTTP status, FetchFailed only
	Detail string // parser or transport detail
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case AccessDenied:
		return fmt.Sprintf("access denied: check that the [%s] sheet is shared as \"Anyone with the link can view\"", e.Label)
	case AuthRequired:
		return fmt.Sprintf("authentication required: the [%s] sheet is not publicly accessible", e.Label)
	case FetchFailed:
		return fmt.Sprintf("http error: status %d for %s", e.Status, e.Label)
	case ConnectionBlocked:
		return fmt.Sprintf("connection blocked: could not reach the [%s] sheet: %s", e.Label, e.Detail)
	case ParseError:
		return fmt.Sprintf("csv parse error [%s]: %s", e.Label, e.Detail)
	default:
		return fmt.Sprintf("fetching %s: %s", e.Label, e.Detail)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// AsFetchError reports whether err is, or wraps, a *FetchError.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// RowError is returned by the normalizer in strict mode when a numeric cell cannot be parsed.
type RowError struct {
	Table string
	Row   int // 1-based data row index
	Field string
	Value string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: field %q: %q is not an integer", e.Table, e.Row, e.Field, e.Value)
}

func asRowError(err error) (*RowError, bool) {
	var re *RowError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
