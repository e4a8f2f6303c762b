package assistant

import (
	"errors"
	"fmt"
)

// ErrNoAccessibleCalendars is returned when the service account can list
// no calendars at all, so there is nothing to query.
var ErrNoAccessibleCalendars = errors.New("no accessible calendars found")

// ResolutionError describes a failure to extract structured data from a model
// response. Op names the resolution step, Reason says what went wrong.
type ResolutionError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not resolve %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("could not resolve %s: %s", e.Op, e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func resolutionErr(op, reason string, err error) *ResolutionError {
	return &ResolutionError{Op: op, Reason: reason, Err: err}
}
