// Package wtd implements the Working Time Directive rules for drivers: the
// daily clock state machine, the daily/weekly compliance calculator and the
// weekly rest analyzer. It does no I/O; persistence and delivery of notices
// go through the interfaces below.
package wtd

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TimeRecordStore persists time entries, time-off requests and weekly rest
// records. Failures are reported wrapped in ErrStoreUnavailable, except
// CreateEntry which reports a conflicting active entry as ErrAlreadyClockedIn.
type TimeRecordStore interface {
	CreateEntry(ctx context.Context, entry TimeEntry) (TimeEntry, error)
	UpdateEntry(ctx context.Context, id uuid.UUID, patch EntryPatch) (TimeEntry, error)
	ListEntries(ctx context.Context, driverID uint, from, to time.Time) ([]TimeEntry, error)
	ListTimeOffRequests(ctx context.Context, driverID uint) ([]TimeOffRequest, error)
	CreateTimeOffRequest(ctx context.Context, req TimeOffRequest) (TimeOffRequest, error)
	ListWeeklyRest(ctx context.Context, driverID uint, from, to time.Time) ([]WeeklyRestRecord, error)
	UpsertWeeklyRest(ctx context.Context, rec WeeklyRestRecord) (WeeklyRestRecord, error)
}

// Notice carries the outcome of an analysis to whoever renders it.
type Notice struct {
	DriverID           uint      `json:"driver_id"`
	Kind               string    `json:"kind"`
	Warnings           []string  `json:"warnings"`
	CriticalViolations []string  `json:"critical_violations"`
	At                 time.Time `json:"at"`
}

// Empty reports whether the notice has nothing to say.
func (n Notice) Empty() bool {
	return len(n.Warnings) == 0 && len(n.CriticalViolations) == 0
}

type NotificationSink interface {
	Notify(ctx context.Context, n Notice)
}
