package timesheet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleet_tracker/internal/wtd"
)

var (
	ErrInvalidRequest     = errors.New("invalid time off request")
	ErrOverlappingRequest = errors.New("time off request overlaps an existing one")
)

// RequestTimeOff files a pending request for the driver.
func (s *Service) RequestTimeOff(ctx context.Context, driverID uint, req wtd.TimeOffRequest) (wtd.TimeOffRequest, error) {
	if !req.RequestType.Valid() {
		return wtd.TimeOffRequest{}, fmt.Errorf("%w: unknown request type %q", ErrInvalidRequest, req.RequestType)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return wtd.TimeOffRequest{}, fmt.Errorf("%w: start and end dates are required", ErrInvalidRequest)
	}
	req.StartDate = wtd.StartOfDay(req.StartDate.In(s.loc))
	req.EndDate = wtd.StartOfDay(req.EndDate.In(s.loc))
	if req.EndDate.Before(req.StartDate) {
		return wtd.TimeOffRequest{}, fmt.Errorf("%w: end date is before start date", ErrInvalidRequest)
	}

	existing, err := s.store.ListTimeOffRequests(ctx, driverID)
	if err != nil {
		return wtd.TimeOffRequest{}, err
	}
	for _, e := range existing {
		if e.Status == wtd.RequestRejected {
			continue
		}
		if !req.StartDate.After(e.EndDate) && !e.StartDate.After(req.EndDate) {
			return wtd.TimeOffRequest{}, fmt.Errorf("%w: %s to %s", ErrOverlappingRequest,
				e.StartDate.Format("2006-01-02"), e.EndDate.Format("2006-01-02"))
		}
	}

	req.ID = uuid.Nil
	req.DriverID = driverID
	req.Status = wtd.RequestPending
	req.ReviewedBy, req.ReviewedAt, req.ReviewNote = nil, nil, ""
	created, err := s.store.CreateTimeOffRequest(ctx, req)
	if err != nil {
		return wtd.TimeOffRequest{}, err
	}
	logrus.WithFields(logrus.Fields{
		"driver_id": driverID,
		"type":      created.RequestType,
		"days":      created.Days(),
	}).Info("Time off requested")
	return created, nil
}

func (s *Service) TimeOffRequests(ctx context.Context, driverID uint) ([]wtd.TimeOffRequest, error) {
	return s.store.ListTimeOffRequests(ctx, driverID)
}

// PendingTimeOff returns every request awaiting review.
func (s *Service) PendingTimeOff(ctx context.Context) ([]wtd.TimeOffRequest, error) {
	return s.store.ListPendingTimeOffRequests(ctx)
}

// ReviewTimeOff approves or rejects a pending request. Reviewed requests are final.
func (s *Service) ReviewTimeOff(ctx context.Context, id uuid.UUID, approve bool, reviewer uint, note string) (wtd.TimeOffRequest, error) {
	status := wtd.RequestRejected
	if approve {
		status = wtd.RequestApproved
	}
	req, err := s.store.ReviewTimeOffRequest(ctx, id, status, reviewer, note, s.Now())
	if err != nil {
		return req, err
	}
	s.sink.Notify(ctx, wtd.Notice{
		DriverID: req.DriverID,
		Kind:     "time_off_" + string(req.Status),
		Warnings: []string{fmt.Sprintf("Time off from %s to %s was %s", req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), req.Status)},
		At:       s.Now(),
	})
	return req, nil
}

// FulfilCompensation records that the compensating rest of a reduced week was taken.
func (s *Service) FulfilCompensation(ctx context.Context, id uuid.UUID) (wtd.WeeklyRestRecord, error) {
	return s.store.MarkCompensationFulfilled(ctx, id, s.Now())
}
