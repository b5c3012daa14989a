package wtd

import (
	"fmt"
	"time"
)

type SessionState string

const (
	OffDuty   SessionState = "off_duty"
	OnDuty    SessionState = "on_duty"
	OnBreak   SessionState = "on_break"
	SignedOff SessionState = "signed_off"
)

// Session is a driver's clock state for one day. Today is nil until the
// driver clocks in. Transitions are validated here and returned as values
// for the caller to persist; Session itself never writes anything.
type Session struct {
	DriverID uint
	Today    *TimeEntry
}

// State derives the session state from today's entry.
func (s Session) State() SessionState {
	switch {
	case s.Today == nil:
		return OffDuty
	case s.Today.Status == StatusCompleted:
		return SignedOff
	case s.Today.OnBreak():
		return OnBreak
	default:
		return OnDuty
	}
}

// ClockIn opens a new entry for the day of now.
func (s Session) ClockIn(now time.Time, loc Location) (TimeEntry, error) {
	switch s.State() {
	case OnDuty, OnBreak:
		return TimeEntry{}, ErrAlreadyClockedIn
	case SignedOff:
		return TimeEntry{}, ErrShiftCompleted
	}
	if loc.Label == "" {
		loc = Unknown()
	}
	return TimeEntry{
		DriverID:        s.DriverID,
		Date:            StartOfDay(now),
		ClockInTime:     now,
		Status:          StatusActive,
		ClockInLocation: loc,
	}, nil
}

// StartBreak opens a break. Only valid while on duty.
func (s Session) StartBreak(now time.Time) (EntryPatch, error) {
	switch s.State() {
	case OnDuty:
	case OnBreak:
		return EntryPatch{}, fmt.Errorf("%w: break already in progress", ErrNoActiveSession)
	default:
		return EntryPatch{}, ErrNoActiveSession
	}
	start := notBefore(now, s.Today.ClockInTime)
	return EntryPatch{BreakStartTime: &start, ClearBreakEnd: true}, nil
}

// EndBreak closes the open break and adds its length to the break total.
func (s Session) EndBreak(now time.Time) (EntryPatch, error) {
	if s.State() != OnBreak {
		return EntryPatch{}, ErrNoOpenBreak
	}
	return s.closeBreak(now), nil
}

// ClockOut completes the entry. An open break is closed first.
func (s Session) ClockOut(now time.Time, loc Location) (EntryPatch, error) {
	var patch EntryPatch
	breakHours := 0.0
	switch s.State() {
	case OnBreak:
		patch = s.closeBreak(now)
		breakHours = *patch.BreakHours
	case OnDuty:
		breakHours = s.Today.BreakHours
	default:
		return EntryPatch{}, ErrNoActiveSession
	}
	if loc.Label == "" {
		loc = Unknown()
	}

	out := notBefore(now, s.Today.ClockInTime)
	total := round2(hoursBetween(s.Today.ClockInTime, out) - breakHours)
	if total < 0 {
		total = 0
	}
	status := StatusCompleted
	patch.ClockOutTime = &out
	patch.TotalHours = &total
	patch.Status = &status
	patch.ClockOutLocation = &loc
	return patch, nil
}

func (s Session) closeBreak(now time.Time) EntryPatch {
	end := notBefore(now, *s.Today.BreakStartTime)
	breakHours := round2(s.Today.BreakHours + hoursBetween(*s.Today.BreakStartTime, end))
	return EntryPatch{BreakEndTime: &end, BreakHours: &breakHours}
}

func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}
