package wtd

import "errors"

// State machine errors are returned before anything is written.
var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNoActiveSession  = errors.New("no active session")
	ErrNoOpenBreak      = errors.New("no open break")
	ErrShiftCompleted   = errors.New("already signed off for today")
)

var (
	// ErrStoreUnavailable wraps any failure of the record store.
	ErrStoreUnavailable = errors.New("time record store unavailable")

	// ErrIncompleteWeekData is advisory. It never stops an analysis and is
	// reported through the warnings of the result.
	ErrIncompleteWeekData = errors.New("incomplete week data")
)

// IsStateError reports whether err is a rejected session transition.
func IsStateError(err error) bool {
	return errors.Is(err, ErrAlreadyClockedIn) ||
		errors.Is(err, ErrNoActiveSession) ||
		errors.Is(err, ErrNoOpenBreak) ||
		errors.Is(err, ErrShiftCompleted)
}

// Lookup and review errors.
var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrAlreadyReviewed     = errors.New("time off request already reviewed")
	ErrNothingToCompensate = errors.New("no outstanding compensation")
)
