package message

import (
	"errors"
	"fmt"
)

// ErrNotBuffered is returned by DataURI for an attachment whose content was
// streamed rather than buffered.
var ErrNotBuffered = errors.New("attachment content is not buffered")

// DecodeError is a warning recorded when the content of a part cannot be
// decoded cleanly. Whatever could be decoded is kept.
type DecodeError struct {
	// PartID is the ID of the part that failed to decode.
	PartID int

	// Err is the error returned by the decoder.
	Err error
}

// Error returns the error message.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("part %d: decode failed: %v", e.PartID, e.Err)
}

// Unwrap returns the decoder error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
