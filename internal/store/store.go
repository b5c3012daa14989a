// Package store persists time records with gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet_tracker/internal/models"
	"fleet_tracker/internal/wtd"
)

// Store implements wtd.TimeRecordStore plus the review operations managers use.
type Store struct {
	db  *gorm.DB
	loc *time.Location
}

var _ wtd.TimeRecordStore = (*Store)(nil)

// New returns a Store over db. Calendar days are handed back as midnight in loc.
func New(db *gorm.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", wtd.ErrStoreUnavailable, op, err)
}

// isUniqueViolation recognises duplicate keys from gorm's error translation
// and from lib/pq connections, which gorm does not translate.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// CreateEntry inserts entry only if the driver has none for that day yet.
func (s *Store) CreateEntry(ctx context.Context, entry wtd.TimeEntry) (wtd.TimeEntry, error) {
	var row models.TimeEntry
	entryToRow(entry, &row)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.TimeEntry
		err := tx.Where("driver_id = ? AND work_date = ?", row.DriverID, row.WorkDate).First(&existing).Error
		switch {
		case err == nil:
			if existing.Status == string(wtd.StatusCompleted) {
				return wtd.ErrShiftCompleted
			}
			return wtd.ErrAlreadyClockedIn
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(&row).Error
	})
	switch {
	case err == nil:
		return s.entryFromRow(row), nil
	case wtd.IsStateError(err):
		return wtd.TimeEntry{}, err
	case isUniqueViolation(err):
		logrus.WithField("driver_id", row.DriverID).Warn("Concurrent clock-in rejected by unique index")
		return wtd.TimeEntry{}, wtd.ErrAlreadyClockedIn
	default:
		return wtd.TimeEntry{}, unavailable("create entry", err)
	}
}

// UpdateEntry applies patch to the stored entry and returns the result.
func (s *Store) UpdateEntry(ctx context.Context, id uuid.UUID, patch wtd.EntryPatch) (wtd.TimeEntry, error) {
	var row models.TimeEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		updated := patch.Apply(s.entryFromRow(row))
		entryToRow(updated, &row)
		return tx.Save(&row).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wtd.TimeEntry{}, wtd.ErrRecordNotFound
	}
	if err != nil {
		return wtd.TimeEntry{}, unavailable("update entry", err)
	}
	return s.entryFromRow(row), nil
}

// ListEntries returns the driver's entries for the days in [from, to], oldest first.
func (s *Store) ListEntries(ctx context.Context, driverID uint, from, to time.Time) ([]wtd.TimeEntry, error) {
	var rows []models.TimeEntry
	err := s.db.WithContext(ctx).
		Where("driver_id = ? AND work_date >= ? AND work_date <= ?", driverID, dateKey(from), dateKey(to)).
		Order("work_date asc").
		Find(&rows).Error
	if err != nil {
		return nil, unavailable("list entries", err)
	}
	entries := make([]wtd.TimeEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, s.entryFromRow(r))
	}
	return entries, nil
}

func (s *Store) ListTimeOffRequests(ctx context.Context, driverID uint) ([]wtd.TimeOffRequest, error) {
	var rows []models.TimeOffRequest
	if err := s.db.WithContext(ctx).Where("driver_id = ?", driverID).Order("start_date desc").Find(&rows).Error; err != nil {
		return nil, unavailable("list time off requests", err)
	}
	return s.requestsFromRows(rows), nil
}

// ListPendingTimeOffRequests returns every request still awaiting review, oldest first.
func (s *Store) ListPendingTimeOffRequests(ctx context.Context) ([]wtd.TimeOffRequest, error) {
	var rows []models.TimeOffRequest
	if err := s.db.WithContext(ctx).Where("status = ?", string(wtd.RequestPending)).Order("start_date asc").Find(&rows).Error; err != nil {
		return nil, unavailable("list pending time off requests", err)
	}
	return s.requestsFromRows(rows), nil
}

func (s *Store) requestsFromRows(rows []models.TimeOffRequest) []wtd.TimeOffRequest {
	out := make([]wtd.TimeOffRequest, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.requestFromRow(r))
	}
	return out
}

func (s *Store) CreateTimeOffRequest(ctx context.Context, req wtd.TimeOffRequest) (wtd.TimeOffRequest, error) {
	row := requestToRow(req)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return wtd.TimeOffRequest{}, unavailable("create time off request", err)
	}
	return s.requestFromRow(row), nil
}

func (s *Store) GetTimeOffRequest(ctx context.Context, id uuid.UUID) (wtd.TimeOffRequest, error) {
	var row models.TimeOffRequest
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return wtd.TimeOffRequest{}, wtd.ErrRecordNotFound
		}
		return wtd.TimeOffRequest{}, unavailable("get time off request", err)
	}
	return s.requestFromRow(row), nil
}

// ReviewTimeOffRequest moves a pending request to status. The update is
// conditional on the request still being pending.
func (s *Store) ReviewTimeOffRequest(ctx context.Context, id uuid.UUID, status wtd.RequestStatus, reviewer uint, note string, at time.Time) (wtd.TimeOffRequest, error) {
	res := s.db.WithContext(ctx).Model(&models.TimeOffRequest{}).
		Where("id = ? AND status = ?", id, string(wtd.RequestPending)).
		Updates(map[string]interface{}{
			"status":      string(status),
			"reviewed_by": reviewer,
			"reviewed_at": at,
			"review_note": note,
		})
	if res.Error != nil {
		return wtd.TimeOffRequest{}, unavailable("review time off request", res.Error)
	}
	req, err := s.GetTimeOffRequest(ctx, id)
	if err != nil {
		return wtd.TimeOffRequest{}, err
	}
	if res.RowsAffected == 0 {
		return req, wtd.ErrAlreadyReviewed
	}
	return req, nil
}

// ListWeeklyRest returns records whose week starts within [from, to].
func (s *Store) ListWeeklyRest(ctx context.Context, driverID uint, from, to time.Time) ([]wtd.WeeklyRestRecord, error) {
	var rows []models.WeeklyRestRecord
	err := s.db.WithContext(ctx).
		Where("driver_id = ? AND week_start_date >= ? AND week_start_date <= ?", driverID, dateKey(from), dateKey(to)).
		Order("week_start_date asc").
		Find(&rows).Error
	if err != nil {
		return nil, unavailable("list weekly rest", err)
	}
	out := make([]wtd.WeeklyRestRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.restFromRow(r))
	}
	return out, nil
}

// UpsertWeeklyRest writes the record for the driver and week, updating the
// existing row in place if there is one. A fulfilled compensation is kept.
func (s *Store) UpsertWeeklyRest(ctx context.Context, rec wtd.WeeklyRestRecord) (wtd.WeeklyRestRecord, error) {
	var row models.WeeklyRestRecord
	upsert := func(tx *gorm.DB) error {
		err := tx.Where("driver_id = ? AND week_start_date = ?", rec.DriverID, dateKey(rec.WeekStartDate)).First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		restToRow(rec, &row)
		if row.ID == uuid.Nil {
			return tx.Create(&row).Error
		}
		return tx.Save(&row).Error
	}

	err := s.db.WithContext(ctx).Transaction(upsert)
	if isUniqueViolation(err) {
		// Lost an insert race; the row exists now, so update it.
		row = models.WeeklyRestRecord{}
		err = s.db.WithContext(ctx).Transaction(upsert)
	}
	if err != nil {
		return wtd.WeeklyRestRecord{}, unavailable("upsert weekly rest", err)
	}
	return s.restFromRow(row), nil
}

func (s *Store) GetWeeklyRest(ctx context.Context, id uuid.UUID) (wtd.WeeklyRestRecord, error) {
	var row models.WeeklyRestRecord
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return wtd.WeeklyRestRecord{}, wtd.ErrRecordNotFound
		}
		return wtd.WeeklyRestRecord{}, unavailable("get weekly rest", err)
	}
	return s.restFromRow(row), nil
}

// MarkCompensationFulfilled stamps the record's compensation as taken.
// It is the only change made to a record outside of re-recording its week.
func (s *Store) MarkCompensationFulfilled(ctx context.Context, id uuid.UUID, at time.Time) (wtd.WeeklyRestRecord, error) {
	res := s.db.WithContext(ctx).Model(&models.WeeklyRestRecord{}).
		Where("id = ? AND compensation_required = ? AND compensation_fulfilled_at IS NULL", id, true).
		Update("compensation_fulfilled_at", at)
	if res.Error != nil {
		return wtd.WeeklyRestRecord{}, unavailable("mark compensation fulfilled", res.Error)
	}
	rec, err := s.GetWeeklyRest(ctx, id)
	if err != nil {
		return wtd.WeeklyRestRecord{}, err
	}
	if res.RowsAffected == 0 {
		return rec, wtd.ErrNothingToCompensate
	}
	return rec, nil
}
