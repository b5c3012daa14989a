package store

import (
	"time"

	"github.com/sirupsen/logrus"

	"fleet_tracker/internal/geo"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/wtd"
)

// dateKey stores a calendar day as UTC midnight, whatever zone it came in.
func dateKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fromKey turns a stored calendar day back into midnight of loc.
func fromKey(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func inLoc(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(loc)
	return &v
}

func toLocation(label string, point []byte) wtd.Location {
	loc := wtd.Location{Label: label}
	if loc.Label == "" {
		loc.Label = wtd.UnknownLocation
	}
	lat, lng, err := geo.DecodePoint(point)
	if err != nil {
		logrus.WithError(err).Warn("Ignoring unreadable location point")
		return loc
	}
	loc.Latitude, loc.Longitude = lat, lng
	return loc
}

func encodePoint(loc wtd.Location) []byte {
	b, err := geo.EncodePoint(loc)
	if err != nil {
		logrus.WithError(err).Warn("Dropping location point that could not be encoded")
		return nil
	}
	return b
}

func (s *Store) entryFromRow(row models.TimeEntry) wtd.TimeEntry {
	e := wtd.TimeEntry{
		ID:              row.ID,
		DriverID:        row.DriverID,
		Date:            fromKey(row.WorkDate, s.loc),
		ClockInTime:     row.ClockInTime.In(s.loc),
		ClockOutTime:    inLoc(row.ClockOutTime, s.loc),
		BreakStartTime:  inLoc(row.BreakStartTime, s.loc),
		BreakEndTime:    inLoc(row.BreakEndTime, s.loc),
		TotalHours:      row.TotalHours,
		BreakHours:      row.BreakHours,
		Status:          wtd.EntryStatus(row.Status),
		ClockInLocation: toLocation(row.ClockInLocation, row.ClockInPoint),
	}
	if row.ClockOutLocation != nil {
		out := toLocation(*row.ClockOutLocation, row.ClockOutPoint)
		e.ClockOutLocation = &out
	}
	return e
}

func entryToRow(e wtd.TimeEntry, row *models.TimeEntry) {
	row.ID = e.ID
	row.DriverID = e.DriverID
	row.WorkDate = dateKey(e.Date)
	row.ClockInTime = e.ClockInTime
	row.ClockOutTime = e.ClockOutTime
	row.BreakStartTime = e.BreakStartTime
	row.BreakEndTime = e.BreakEndTime
	row.TotalHours = e.TotalHours
	row.BreakHours = e.BreakHours
	row.Status = string(e.Status)
	row.ClockInLocation = e.ClockInLocation.Label
	row.ClockInPoint = encodePoint(e.ClockInLocation)
	row.ClockOutLocation = nil
	row.ClockOutPoint = nil
	if e.ClockOutLocation != nil {
		label := e.ClockOutLocation.Label
		row.ClockOutLocation = &label
		row.ClockOutPoint = encodePoint(*e.ClockOutLocation)
	}
}

func (s *Store) requestFromRow(row models.TimeOffRequest) wtd.TimeOffRequest {
	return wtd.TimeOffRequest{
		ID:          row.ID,
		DriverID:    row.DriverID,
		StartDate:   fromKey(row.StartDate, s.loc),
		EndDate:     fromKey(row.EndDate, s.loc),
		RequestType: wtd.RequestType(row.RequestType),
		Status:      wtd.RequestStatus(row.Status),
		Reason:      row.Reason,
		ReviewedBy:  row.ReviewedBy,
		ReviewedAt:  inLoc(row.ReviewedAt, s.loc),
		ReviewNote:  row.ReviewNote,
	}
}

func requestToRow(r wtd.TimeOffRequest) models.TimeOffRequest {
	return models.TimeOffRequest{
		ID:          r.ID,
		DriverID:    r.DriverID,
		StartDate:   dateKey(r.StartDate),
		EndDate:     dateKey(r.EndDate),
		RequestType: string(r.RequestType),
		Status:      string(r.Status),
		Reason:      r.Reason,
		ReviewedBy:  r.ReviewedBy,
		ReviewedAt:  r.ReviewedAt,
		ReviewNote:  r.ReviewNote,
	}
}

func (s *Store) restFromRow(row models.WeeklyRestRecord) wtd.WeeklyRestRecord {
	rec := wtd.WeeklyRestRecord{
		ID:                      row.ID,
		DriverID:                row.DriverID,
		WeekStartDate:           fromKey(row.WeekStartDate, s.loc),
		WeekEndDate:             fromKey(row.WeekEndDate, s.loc),
		RestType:                wtd.RestType(row.RestType),
		TotalRestHours:          row.TotalRestHours,
		CompensationRequired:    row.CompensationRequired,
		CompensationFulfilledAt: inLoc(row.CompensationFulfilledAt, s.loc),
	}
	if row.CompensationDate != nil {
		d := fromKey(*row.CompensationDate, s.loc)
		rec.CompensationDate = &d
	}
	return rec
}

func restToRow(rec wtd.WeeklyRestRecord, row *models.WeeklyRestRecord) {
	row.DriverID = rec.DriverID
	row.WeekStartDate = dateKey(rec.WeekStartDate)
	row.WeekEndDate = dateKey(rec.WeekEndDate)
	row.RestType = string(rec.RestType)
	row.TotalRestHours = rec.TotalRestHours
	row.CompensationRequired = rec.CompensationRequired
	row.CompensationDate = nil
	if rec.CompensationDate != nil {
		d := dateKey(*rec.CompensationDate)
		row.CompensationDate = &d
	}
}
