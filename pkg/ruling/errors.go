package ruling

import (
	"errors"
	"fmt"
)

// ErrEndOfData is returned for a well-formed page whose rulings list is absent or empty.
var ErrEndOfData = errors.New("end of data: page has no rulings")

// MalformedPageError is returned when a page body is not valid JSON or does not
// have the expected top-level shape.
type MalformedPageError struct {
	// Body is the raw response body, kept for diagnosis.
	Body []byte
	Err  error
}

// Error implements the error interface.
func (e *MalformedPageError) Error() string {
	return fmt.Sprintf("malformed page (%d bytes): %v", len(e.Body), e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *MalformedPageError) Unwrap() error {
	return e.Err
}
