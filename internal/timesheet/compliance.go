package timesheet

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"fleet_tracker/internal/metrics"
	"fleet_tracker/internal/session"
	"fleet_tracker/internal/wtd"
)

// Compliance analyses the driver's day and ISO week as of ref. The day
// before the week is loaded too so Monday's daily rest can be measured.
// When the store cannot be read the period is analysed as having no
// records, flagged DataUnavailable with a warning.
func (s *Service) Compliance(ctx context.Context, driverID uint, ref time.Time) (wtd.ComplianceAnalysis, error) {
	ref = ref.In(s.loc)
	weekStart, _ := wtd.WeekRange(ref)
	entries, err := s.store.ListEntries(ctx, driverID, weekStart.AddDate(0, 0, -1), ref)
	switch {
	case errors.Is(err, wtd.ErrStoreUnavailable):
		logrus.WithError(err).WithField("driver_id", driverID).Warn("Analysing compliance without records")
		a := wtd.Analyze(nil, s.limits, ref)
		a.DataUnavailable = true
		a.Warnings = append([]string{"Time records are unavailable; no data for this period"}, a.Warnings...)
		return a, nil
	case err != nil:
		return wtd.ComplianceAnalysis{}, err
	}
	return wtd.Analyze(entries, s.limits, ref), nil
}

// DayCompliance analyses day through cache. Past days are analysed as of
// their last instant. Today's result is only cached while no shift is
// running, since a running shift changes it by the minute; clock actions
// invalidate it.
func (s *Service) DayCompliance(ctx context.Context, cache *session.Cache, driverID uint, day time.Time) (wtd.ComplianceAnalysis, error) {
	now := s.Now()
	day = wtd.StartOfDay(day.In(s.loc))
	key := session.KeyFor(driverID, day)
	if cache != nil {
		if a, ok := cache.Get(key); ok {
			return a, nil
		}
	}

	ref := now
	cacheable := true
	switch {
	case day.After(now):
		ref = day
	case !wtd.SameDay(day, now):
		ref = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	default:
		status, err := s.Today(ctx, driverID)
		if err != nil && !errors.Is(err, wtd.ErrStoreUnavailable) {
			return wtd.ComplianceAnalysis{}, err
		}
		cacheable = err == nil && (status.State == wtd.OffDuty || status.State == wtd.SignedOff)
	}

	a, err := s.Compliance(ctx, driverID, ref)
	if err != nil {
		return wtd.ComplianceAnalysis{}, err
	}
	if cache != nil && cacheable && !a.DataUnavailable {
		cache.Put(key, a)
	}
	return a, nil
}

// WeeklyRest returns the driver's weekly rest records for weeks starting in [from, to].
func (s *Service) WeeklyRest(ctx context.Context, driverID uint, from, to time.Time) ([]wtd.WeeklyRestRecord, error) {
	return s.store.ListWeeklyRest(ctx, driverID, from, to)
}

// AutoRecord analyses the week and writes its rest record, replacing any
// record already held for the driver and week.
func (s *Service) AutoRecord(ctx context.Context, driverID uint, weekStart, weekEnd time.Time) (wtd.WeeklyRestRecord, wtd.WeeklyRestAnalysis, error) {
	entries, err := s.store.ListEntries(ctx, driverID, weekStart, weekEnd)
	if err != nil {
		return wtd.WeeklyRestRecord{}, wtd.WeeklyRestAnalysis{}, err
	}
	// Earlier weeks whose compensation could still be due within this week's window.
	lookback := weekStart.Add(-s.limits.CompensationWindow).AddDate(0, 0, -7)
	prior, err := s.store.ListWeeklyRest(ctx, driverID, lookback, weekStart)
	if err != nil {
		return wtd.WeeklyRestRecord{}, wtd.WeeklyRestAnalysis{}, err
	}

	analysis := wtd.AnalyzeWeek(entries, weekStart, weekEnd, s.limits, prior)
	rec, err := s.store.UpsertWeeklyRest(ctx, analysis.Record(driverID))
	if err != nil {
		return wtd.WeeklyRestRecord{}, analysis, err
	}
	metrics.WeeklyRestRecords.WithLabelValues(string(rec.RestType)).Inc()
	logrus.WithFields(logrus.Fields{
		"driver_id":  driverID,
		"week_start": weekStart.Format(time.DateOnly),
		"rest_type":  rec.RestType,
		"rest_hours": rec.TotalRestHours,
	}).Info("Weekly rest recorded")
	return rec, analysis, nil
}
