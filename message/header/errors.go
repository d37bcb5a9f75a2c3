package header

import "errors"

// Errors returned by various header methods and functions.
var (
	// ErrNoSuchField is returned by Map methods when the operation being
	// performed failed because the field named does not exist.
	ErrNoSuchField = errors.New("no such header field")

	// ErrWrongType is returned by the typed Map getters when the field
	// exists, but holds a value of some other type.
	ErrWrongType = errors.New("header field has a different type")

	// ErrBadDate is reported when a date field cannot be parsed.
	ErrBadDate = errors.New("unparseable date")

	// ErrBadLine is reported for a header line that is not a field.
	ErrBadLine = errors.New("malformed header line")
)
