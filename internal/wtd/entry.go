package wtd

import (
	"time"

	"github.com/google/uuid"
)

type EntryStatus string

const (
	StatusActive    EntryStatus = "active"
	StatusCompleted EntryStatus = "completed"
)

// UnknownLocation is substituted whenever a location lookup fails.
const UnknownLocation = "Unknown"

// Location is where a clock action happened. Coordinates are optional.
type Location struct {
	Label     string   `json:"label"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Unknown returns the fallback location.
func Unknown() Location {
	return Location{Label: UnknownLocation}
}

// HasCoordinates reports whether both coordinates are present.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// TimeEntry is one driver's shift for one calendar day.
type TimeEntry struct {
	ID               uuid.UUID   `json:"id"`
	DriverID         uint        `json:"driver_id"`
	Date             time.Time   `json:"date"`
	ClockInTime      time.Time   `json:"clock_in_time"`
	ClockOutTime     *time.Time  `json:"clock_out_time,omitempty"`
	BreakStartTime   *time.Time  `json:"break_start_time,omitempty"`
	BreakEndTime     *time.Time  `json:"break_end_time,omitempty"`
	TotalHours       float64     `json:"total_hours"`
	BreakHours       float64     `json:"break_hours"`
	Status           EntryStatus `json:"status"`
	ClockInLocation  Location    `json:"clock_in_location"`
	ClockOutLocation *Location   `json:"clock_out_location,omitempty"`
}

// OnBreak reports whether a break has started and not ended.
func (e TimeEntry) OnBreak() bool {
	return e.BreakStartTime != nil && e.BreakEndTime == nil
}

// HoursWorked returns the working time of the entry as seen at instant at.
// Completed entries report their stored total. Active ones count up to at,
// excluding finished breaks and any break still open, but only on the day
// they were clocked in; a shift left open from an earlier day counts its
// stored total until it is clocked out.
func (e TimeEntry) HoursWorked(at time.Time) float64 {
	if e.Status == StatusCompleted || !SameDay(e.ClockInTime, at) {
		return e.TotalHours
	}
	if !at.After(e.ClockInTime) {
		return 0
	}
	end := at
	if e.OnBreak() && e.BreakStartTime.Before(at) {
		end = *e.BreakStartTime
	}
	worked := hoursBetween(e.ClockInTime, end) - e.BreakHours
	if worked < 0 {
		return 0
	}
	return round2(worked)
}

// EntryPatch lists the fields a state transition changes. Nil fields are left alone.
type EntryPatch struct {
	ClockOutTime     *time.Time
	BreakStartTime   *time.Time
	BreakEndTime     *time.Time
	ClearBreakEnd    bool
	TotalHours       *float64
	BreakHours       *float64
	Status           *EntryStatus
	ClockOutLocation *Location
}

// Apply returns a copy of e with the patch applied.
func (p EntryPatch) Apply(e TimeEntry) TimeEntry {
	if p.ClockOutTime != nil {
		t := *p.ClockOutTime
		e.ClockOutTime = &t
	}
	if p.BreakStartTime != nil {
		t := *p.BreakStartTime
		e.BreakStartTime = &t
	}
	if p.ClearBreakEnd {
		e.BreakEndTime = nil
	}
	if p.BreakEndTime != nil {
		t := *p.BreakEndTime
		e.BreakEndTime = &t
	}
	if p.TotalHours != nil {
		e.TotalHours = *p.TotalHours
	}
	if p.BreakHours != nil {
		e.BreakHours = *p.BreakHours
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.ClockOutLocation != nil {
		loc := *p.ClockOutLocation
		e.ClockOutLocation = &loc
	}
	return e
}

type RequestType string

const (
	RequestAnnualLeave RequestType = "annual_leave"
	RequestSick        RequestType = "sick"
	RequestPersonal    RequestType = "personal"
	RequestBereavement RequestType = "bereavement"
)

// Valid reports whether t is one of the known request types.
func (t RequestType) Valid() bool {
	switch t {
	case RequestAnnualLeave, RequestSick, RequestPersonal, RequestBereavement:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// TimeOffRequest is a driver's absence request.
type TimeOffRequest struct {
	ID          uuid.UUID     `json:"id"`
	DriverID    uint          `json:"driver_id"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	RequestType RequestType   `json:"request_type"`
	Status      RequestStatus `json:"status"`
	Reason      string        `json:"reason"`
	ReviewedBy  *uint         `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`
	ReviewNote  string        `json:"review_note,omitempty"`
}

// Days returns the number of calendar days the request covers, inclusive.
func (r TimeOffRequest) Days() int {
	return calendarDays(r.StartDate, r.EndDate)
}

type RestType string

const (
	RestFull         RestType = "full"
	RestReduced      RestType = "reduced"
	RestInsufficient RestType = "insufficient"
)

// WeeklyRestRecord is the persisted weekly rest outcome for one driver and ISO week.
type WeeklyRestRecord struct {
	ID                      uuid.UUID  `json:"id"`
	DriverID                uint       `json:"driver_id"`
	WeekStartDate           time.Time  `json:"week_start_date"`
	WeekEndDate             time.Time  `json:"week_end_date"`
	RestType                RestType   `json:"rest_type"`
	TotalRestHours          float64    `json:"total_rest_hours"`
	CompensationRequired    bool       `json:"compensation_required"`
	CompensationDate        *time.Time `json:"compensation_date,omitempty"`
	CompensationFulfilledAt *time.Time `json:"compensation_fulfilled_at,omitempty"`
}

// PendingCompensation reports whether the record still owes compensating rest.
func (r WeeklyRestRecord) PendingCompensation() bool {
	return r.CompensationRequired && r.CompensationDate != nil && r.CompensationFulfilledAt == nil
}
