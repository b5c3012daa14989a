package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet_tracker/internal/config"
	"fleet_tracker/internal/wtd"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := config.Open(config.DBSettings{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return New(db, time.UTC)
}

func day(d, h, m int) time.Time {
	return time.Date(2026, 3, d, h, m, 0, 0, time.UTC)
}

func clockIn(t *testing.T, s *Store, driverID uint, at time.Time) wtd.TimeEntry {
	t.Helper()
	lat, lng := 51.5, -0.12
	entry, err := wtd.Session{DriverID: driverID}.ClockIn(at, wtd.Location{Label: "Depot", Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)
	created, err := s.CreateEntry(context.Background(), entry)
	require.NoError(t, err)
	return created
}

func TestStore_CreateEntry(t *testing.T) {
	s := newTestStore(t)
	e := clockIn(t, s, 1, day(2, 8, 0))

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, day(2, 0, 0), e.Date)
	assert.Equal(t, wtd.StatusActive, e.Status)
	assert.Equal(t, "Depot", e.ClockInLocation.Label)
	require.True(t, e.ClockInLocation.HasCoordinates())
	assert.InDelta(t, 51.5, *e.ClockInLocation.Latitude, 1e-9)
}

func TestStore_CreateEntryRejectsSecondClockIn(t *testing.T) {
	s := newTestStore(t)
	clockIn(t, s, 1, day(2, 8, 0))

	second := wtd.TimeEntry{DriverID: 1, Date: day(2, 0, 0), ClockInTime: day(2, 9, 0), Status: wtd.StatusActive}
	_, err := s.CreateEntry(context.Background(), second)
	assert.ErrorIs(t, err, wtd.ErrAlreadyClockedIn)

	// Another driver on the same day is fine.
	clockIn(t, s, 2, day(2, 8, 0))
}

func TestStore_CreateEntryConcurrent(t *testing.T) {
	s := newTestStore(t)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := wtd.TimeEntry{DriverID: 9, Date: day(3, 0, 0), ClockInTime: day(3, 8, i), Status: wtd.StatusActive}
			_, err := s.CreateEntry(context.Background(), e)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, wtd.ErrAlreadyClockedIn) {
				dups++
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 4, dups)
}

func TestStore_UpdateEntryAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	e := clockIn(t, s, 1, day(2, 8, 0))
	sess := wtd.Session{DriverID: 1, Today: &e}

	patch, err := sess.ClockOut(day(2, 16, 30), wtd.Location{Label: "Client site"})
	require.NoError(t, err)
	updated, err := s.UpdateEntry(ctx, e.ID, patch)
	require.NoError(t, err)

	assert.Equal(t, wtd.StatusCompleted, updated.Status)
	assert.Equal(t, 8.5, updated.TotalHours)
	require.NotNil(t, updated.ClockOutLocation)
	assert.Equal(t, "Client site", updated.ClockOutLocation.Label)

	clockIn(t, s, 1, day(4, 7, 0))
	clockIn(t, s, 1, day(10, 7, 0))

	entries, err := s.ListEntries(ctx, 1, day(2, 0, 0), day(8, 0, 0))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, day(2, 0, 0), entries[0].Date)
	assert.Equal(t, day(4, 0, 0), entries[1].Date)

	_, err = s.UpdateEntry(ctx, uuid.New(), patch)
	assert.ErrorIs(t, err, wtd.ErrRecordNotFound)
}

func TestStore_SignedOffDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	e := clockIn(t, s, 1, day(2, 8, 0))
	patch, err := wtd.Session{Today: &e}.ClockOut(day(2, 12, 0), wtd.Unknown())
	require.NoError(t, err)
	_, err = s.UpdateEntry(ctx, e.ID, patch)
	require.NoError(t, err)

	_, err = s.CreateEntry(ctx, wtd.TimeEntry{DriverID: 1, Date: day(2, 0, 0), ClockInTime: day(2, 13, 0), Status: wtd.StatusActive})
	assert.ErrorIs(t, err, wtd.ErrShiftCompleted)
}

func TestStore_UpsertWeeklyRestIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	due := day(29, 0, 0)
	rec := wtd.WeeklyRestRecord{
		DriverID:             1,
		WeekStartDate:        day(2, 0, 0),
		WeekEndDate:          day(8, 0, 0),
		RestType:             wtd.RestReduced,
		TotalRestHours:       35,
		CompensationRequired: true,
		CompensationDate:     &due,
	}

	first, err := s.UpsertWeeklyRest(ctx, rec)
	require.NoError(t, err)
	rec.TotalRestHours = 36
	second, err := s.UpsertWeeklyRest(ctx, rec)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	list, err := s.ListWeeklyRest(ctx, 1, day(1, 0, 0), day(31, 0, 0))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 36.0, list[0].TotalRestHours)
	require.NotNil(t, list[0].CompensationDate)
	assert.Equal(t, due, *list[0].CompensationDate)
}

func TestStore_MarkCompensationFulfilled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	due := day(29, 0, 0)
	rec, err := s.UpsertWeeklyRest(ctx, wtd.WeeklyRestRecord{
		DriverID: 1, WeekStartDate: day(2, 0, 0), WeekEndDate: day(8, 0, 0),
		RestType: wtd.RestReduced, TotalRestHours: 30, CompensationRequired: true, CompensationDate: &due,
	})
	require.NoError(t, err)

	done, err := s.MarkCompensationFulfilled(ctx, rec.ID, day(20, 9, 0))
	require.NoError(t, err)
	require.NotNil(t, done.CompensationFulfilledAt)
	assert.False(t, done.PendingCompensation())

	_, err = s.MarkCompensationFulfilled(ctx, rec.ID, day(21, 9, 0))
	assert.ErrorIs(t, err, wtd.ErrNothingToCompensate)

	// Re-recording the week keeps the fulfilment.
	again, err := s.UpsertWeeklyRest(ctx, rec)
	require.NoError(t, err)
	assert.NotNil(t, again.CompensationFulfilledAt)
}

func TestStore_TimeOffRequests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	req, err := s.CreateTimeOffRequest(ctx, wtd.TimeOffRequest{
		DriverID: 3, StartDate: day(16, 0, 0), EndDate: day(18, 0, 0),
		RequestType: wtd.RequestAnnualLeave, Status: wtd.RequestPending, Reason: "holiday",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, req.ID)

	pending, err := s.ListPendingTimeOffRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	reviewed, err := s.ReviewTimeOffRequest(ctx, req.ID, wtd.RequestApproved, 42, "enjoy", day(10, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, wtd.RequestApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, uint(42), *reviewed.ReviewedBy)

	_, err = s.ReviewTimeOffRequest(ctx, req.ID, wtd.RequestRejected, 42, "", day(10, 10, 0))
	assert.ErrorIs(t, err, wtd.ErrAlreadyReviewed)

	list, err := s.ListTimeOffRequests(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, day(16, 0, 0), list[0].StartDate)
	assert.Equal(t, 3, list[0].Days())

	_, err = s.GetTimeOffRequest(ctx, uuid.New())
	assert.ErrorIs(t, err, wtd.ErrRecordNotFound)
}
