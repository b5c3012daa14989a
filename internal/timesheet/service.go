// Package timesheet runs drivers' clock actions against the record store:
// it validates each transition with the session state machine, records the
// weekly rest on clock-out and emits compliance notices.
package timesheet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleet_tracker/internal/geo"
	"fleet_tracker/internal/metrics"
	"fleet_tracker/internal/session"
	"fleet_tracker/internal/wtd"
)

// Store is the record store plus the review operations managers need.
type Store interface {
	wtd.TimeRecordStore
	ListPendingTimeOffRequests(ctx context.Context) ([]wtd.TimeOffRequest, error)
	GetTimeOffRequest(ctx context.Context, id uuid.UUID) (wtd.TimeOffRequest, error)
	ReviewTimeOffRequest(ctx context.Context, id uuid.UUID, status wtd.RequestStatus, reviewer uint, note string, at time.Time) (wtd.TimeOffRequest, error)
	GetWeeklyRest(ctx context.Context, id uuid.UUID) (wtd.WeeklyRestRecord, error)
	MarkCompensationFulfilled(ctx context.Context, id uuid.UUID, at time.Time) (wtd.WeeklyRestRecord, error)
}

type Service struct {
	store   Store
	limits  wtd.ComplianceLimits
	sink    wtd.NotificationSink
	locator geo.Locator
	caches  *session.Registry
	now     func() time.Time
	loc     *time.Location
}

type Option func(*Service)

// WithSink sets where compliance notices go. The default drops them.
func WithSink(sink wtd.NotificationSink) Option {
	return func(s *Service) { s.sink = sink }
}

func WithLocator(l geo.Locator) Option {
	return func(s *Service) { s.locator = l }
}

// WithCaches lets clock actions invalidate cached analyses.
func WithCaches(r *session.Registry) Option {
	return func(s *Service) { s.caches = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone calendar days are counted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

type discard struct{}

func (discard) Notify(context.Context, wtd.Notice) {}

// New returns a Service over store checking against limits.
func New(store Store, limits wtd.ComplianceLimits, opts ...Option) *Service {
	s := &Service{
		store:  store,
		limits: limits,
		sink:   discard{},
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limits returns the limits the service checks against.
func (s *Service) Limits() wtd.ComplianceLimits {
	return s.limits
}

// Now returns the current time in the service's time zone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Status is a driver's clock state for today.
type Status struct {
	State wtd.SessionState `json:"state"`
	Entry *wtd.TimeEntry   `json:"entry"`
}

func (s *Service) session(ctx context.Context, driverID uint, day time.Time) (wtd.Session, error) {
	entries, err := s.store.ListEntries(ctx, driverID, day, day)
	if err != nil {
		return wtd.Session{}, err
	}
	sess := wtd.Session{DriverID: driverID}
	if len(entries) > 0 {
		sess.Today = &entries[0]
	}
	return sess, nil
}

// Today returns the driver's state and entry for the current day.
func (s *Service) Today(ctx context.Context, driverID uint) (Status, error) {
	sess, err := s.session(ctx, driverID, s.Now())
	if err != nil {
		return Status{}, err
	}
	return Status{State: sess.State(), Entry: sess.Today}, nil
}

func (s *Service) rejected(action string, driverID uint, err error) error {
	metrics.RejectedTransitions.WithLabelValues(action).Inc()
	logrus.WithFields(logrus.Fields{
		"driver_id": driverID,
		"action":    action,
	}).WithError(err).Info("Clock action rejected")
	return err
}

func (s *Service) accepted(action string, entry wtd.TimeEntry) {
	metrics.ClockEvents.WithLabelValues(action).Inc()
	if s.caches != nil {
		s.caches.InvalidateDay(entry.DriverID, entry.Date)
	}
	logrus.WithFields(logrus.Fields{
		"driver_id": entry.DriverID,
		"entry_id":  entry.ID,
		"action":    action,
	}).Info("Clock action recorded")
}

// ClockIn starts today's shift at the position in fix.
func (s *Service) ClockIn(ctx context.Context, driverID uint, fix geo.Fix) (wtd.TimeEntry, error) {
	now := s.Now()
	sess, err := s.session(ctx, driverID, now)
	if err != nil {
		return wtd.TimeEntry{}, err
	}
	entry, err := sess.ClockIn(now, wtd.Unknown())
	if err != nil {
		return wtd.TimeEntry{}, s.rejected("clock_in", driverID, err)
	}
	entry.ClockInLocation = s.locator.Locate(ctx, fix)

	created, err := s.store.CreateEntry(ctx, entry)
	if err != nil {
		if wtd.IsStateError(err) {
			return wtd.TimeEntry{}, s.rejected("clock_in", driverID, err)
		}
		return wtd.TimeEntry{}, err
	}
	s.accepted("clock_in", created)
	return created, nil
}

// StartBreak opens a break in today's shift.
func (s *Service) StartBreak(ctx context.Context, driverID uint) (wtd.TimeEntry, error) {
	return s.transition(ctx, driverID, "break_start", func(sess wtd.Session, now time.Time) (wtd.EntryPatch, error) {
		return sess.StartBreak(now)
	})
}

// EndBreak closes the open break.
func (s *Service) EndBreak(ctx context.Context, driverID uint) (wtd.TimeEntry, error) {
	return s.transition(ctx, driverID, "break_end", func(sess wtd.Session, now time.Time) (wtd.EntryPatch, error) {
		return sess.EndBreak(now)
	})
}

func (s *Service) transition(ctx context.Context, driverID uint, action string, step func(wtd.Session, time.Time) (wtd.EntryPatch, error)) (wtd.TimeEntry, error) {
	now := s.Now()
	sess, err := s.session(ctx, driverID, now)
	if err != nil {
		return wtd.TimeEntry{}, err
	}
	patch, err := step(sess, now)
	if err != nil {
		return wtd.TimeEntry{}, s.rejected(action, driverID, err)
	}
	updated, err := s.store.UpdateEntry(ctx, sess.Today.ID, patch)
	if err != nil {
		return wtd.TimeEntry{}, err
	}
	s.accepted(action, updated)
	return updated, nil
}

// ClockOut completes today's shift, records the week's rest and notifies
// the driver of any warnings or violations.
func (s *Service) ClockOut(ctx context.Context, driverID uint, fix geo.Fix) (wtd.TimeEntry, error) {
	now := s.Now()
	sess, err := s.session(ctx, driverID, now)
	if err != nil {
		return wtd.TimeEntry{}, err
	}
	patch, err := sess.ClockOut(now, wtd.Unknown())
	if err != nil {
		return wtd.TimeEntry{}, s.rejected("clock_out", driverID, err)
	}
	loc := s.locator.Locate(ctx, fix)
	patch.ClockOutLocation = &loc

	updated, err := s.store.UpdateEntry(ctx, sess.Today.ID, patch)
	if err != nil {
		return wtd.TimeEntry{}, err
	}
	s.accepted("clock_out", updated)

	notice := wtd.Notice{DriverID: driverID, Kind: "clock_out", At: now}
	if analysis, err := s.Compliance(ctx, driverID, now); err != nil {
		logrus.WithError(err).WithField("driver_id", driverID).Warn("Compliance check after clock-out failed")
	} else {
		notice.Warnings = append(notice.Warnings, analysis.Warnings...)
		notice.CriticalViolations = append(notice.CriticalViolations, analysis.CriticalViolations...)
		metrics.ComplianceViolations.Add(float64(len(analysis.CriticalViolations)))
	}

	weekStart, weekEnd := wtd.WeekRange(now)
	if _, rest, err := s.AutoRecord(ctx, driverID, weekStart, weekEnd); err != nil {
		// The shift is already closed; the week is recorded again on the next clock-out.
		logrus.WithError(err).WithField("driver_id", driverID).Error("Weekly rest recording failed")
	} else if rest.RestType == wtd.RestInsufficient {
		notice.CriticalViolations = append(notice.CriticalViolations, rest.CriticalViolations...)
	}

	if !notice.Empty() {
		s.sink.Notify(ctx, notice)
	}
	return updated, nil
}

// Entries returns the driver's entries for the days in [from, to].
func (s *Service) Entries(ctx context.Context, driverID uint, from, to time.Time) ([]wtd.TimeEntry, error) {
	return s.store.ListEntries(ctx, driverID, from, to)
}
