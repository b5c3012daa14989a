package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet_tracker/internal/geo"
	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/session"
	"fleet_tracker/internal/timesheet"
	"fleet_tracker/internal/wtd"
)

// TimesheetController serves clock actions, compliance and rest records.
type TimesheetController struct {
	Service  *timesheet.Service
	Sessions *session.Registry
}

func (tc *TimesheetController) cache(c *gin.Context) *session.Cache {
	a, ok := middleware.CurrentAuth(c)
	if !ok || tc.Sessions == nil {
		return nil
	}
	return tc.Sessions.For(a.SessionID, a.ExpiresAt)
}

func (tc *TimesheetController) Today(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	status, err := tc.Service.Today(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// bindFix reads an optional position fix from the body.
func bindFix(c *gin.Context) (geo.Fix, bool) {
	var fix geo.Fix
	if c.Request.ContentLength == 0 {
		return fix, true
	}
	if err := c.ShouldBindJSON(&fix); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location: " + err.Error()})
		return fix, false
	}
	return fix, true
}

func (tc *TimesheetController) ClockIn(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	fix, ok := bindFix(c)
	if !ok {
		return
	}
	entry, err := tc.Service.ClockIn(c.Request.Context(), driverID, fix)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, withPoints(entry))
}

func (tc *TimesheetController) StartBreak(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	entry, err := tc.Service.StartBreak(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

func (tc *TimesheetController) EndBreak(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	entry, err := tc.Service.EndBreak(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

func (tc *TimesheetController) ClockOut(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	fix, ok := bindFix(c)
	if !ok {
		return
	}
	entry, err := tc.Service.ClockOut(c.Request.Context(), driverID, fix)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withPoints(entry))
}

// withPoints adds GeoJSON points for the entry's clock locations when they carry coordinates.
func withPoints(entry wtd.TimeEntry) gin.H {
	resp := gin.H{"entry": entry}
	if gj, err := geo.PointGeoJSON(entry.ClockInLocation); err == nil && gj != "" {
		resp["clock_in_point"] = json.RawMessage(gj)
	}
	if entry.ClockOutLocation != nil {
		if gj, err := geo.PointGeoJSON(*entry.ClockOutLocation); err == nil && gj != "" {
			resp["clock_out_point"] = json.RawMessage(gj)
		}
	}
	return resp
}

// entries lists a driver's entries, by default for the current ISO week.
func (tc *TimesheetController) entries(c *gin.Context, driverID uint) {
	now := tc.Service.Now()
	weekStart, weekEnd := wtd.WeekRange(now)
	from, ok := dateQuery(c, "from", now.Location(), weekStart)
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to", now.Location(), weekEnd)
	if !ok {
		return
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to is before from"})
		return
	}
	entries, err := tc.Service.Entries(c.Request.Context(), driverID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (tc *TimesheetController) compliance(c *gin.Context, driverID uint) {
	now := tc.Service.Now()
	day, ok := dateQuery(c, "date", now.Location(), now)
	if !ok {
		return
	}
	a, err := tc.Service.DayCompliance(c.Request.Context(), tc.cache(c), driverID, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// weeklyRest lists rest records, by default for the last twelve weeks.
func (tc *TimesheetController) weeklyRest(c *gin.Context, driverID uint) {
	now := tc.Service.Now()
	weekStart, _ := wtd.WeekRange(now)
	from, ok := dateQuery(c, "from", now.Location(), weekStart.AddDate(0, 0, -7*12))
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to", now.Location(), weekStart)
	if !ok {
		return
	}
	recs, err := tc.Service.WeeklyRest(c.Request.Context(), driverID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

func (tc *TimesheetController) Entries(c *gin.Context) {
	if driverID, ok := driverOf(c); ok {
		tc.entries(c, driverID)
	}
}

func (tc *TimesheetController) Compliance(c *gin.Context) {
	if driverID, ok := driverOf(c); ok {
		tc.compliance(c, driverID)
	}
}

func (tc *TimesheetController) WeeklyRest(c *gin.Context) {
	if driverID, ok := driverOf(c); ok {
		tc.weeklyRest(c, driverID)
	}
}

func (tc *TimesheetController) DriverEntries(c *gin.Context) {
	if driverID, ok := uintParam(c, "id"); ok {
		tc.entries(c, driverID)
	}
}

func (tc *TimesheetController) DriverCompliance(c *gin.Context) {
	if driverID, ok := uintParam(c, "id"); ok {
		tc.compliance(c, driverID)
	}
}

func (tc *TimesheetController) DriverWeeklyRest(c *gin.Context) {
	if driverID, ok := uintParam(c, "id"); ok {
		tc.weeklyRest(c, driverID)
	}
}

// RecordWeek re-records the weekly rest of the week containing ?week=YYYY-MM-DD.
func (tc *TimesheetController) RecordWeek(c *gin.Context) {
	driverID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	now := tc.Service.Now()
	day, ok := dateQuery(c, "week", now.Location(), now)
	if !ok {
		return
	}
	start, end := wtd.WeekRange(day)
	rec, analysis, err := tc.Service.AutoRecord(c.Request.Context(), driverID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec, "analysis": analysis})
}

func (tc *TimesheetController) FulfilCompensation(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rec, err := tc.Service.FulfilCompensation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

type timeOffInput struct {
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	RequestType string `json:"request_type" binding:"required"`
	Reason      string `json:"reason"`
}

func (tc *TimesheetController) RequestTimeOff(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	var input timeOffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	loc := tc.Service.Now().Location()
	start, err := time.ParseInLocation(time.DateOnly, input.StartDate, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date, expected YYYY-MM-DD."})
		return
	}
	end, err := time.ParseInLocation(time.DateOnly, input.EndDate, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date, expected YYYY-MM-DD."})
		return
	}

	req, err := tc.Service.RequestTimeOff(c.Request.Context(), driverID, wtd.TimeOffRequest{
		StartDate:   start,
		EndDate:     end,
		RequestType: wtd.RequestType(input.RequestType),
		Reason:      input.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

func (tc *TimesheetController) TimeOffRequests(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	reqs, err := tc.Service.TimeOffRequests(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reqs})
}

func (tc *TimesheetController) PendingTimeOff(c *gin.Context) {
	reqs, err := tc.Service.PendingTimeOff(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reqs})
}

func (tc *TimesheetController) ApproveTimeOff(c *gin.Context) { tc.review(c, true) }

func (tc *TimesheetController) RejectTimeOff(c *gin.Context) { tc.review(c, false) }

func (tc *TimesheetController) review(c *gin.Context, approve bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		Note string `json:"note"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	a, _ := middleware.CurrentAuth(c)
	req, err := tc.Service.ReviewTimeOff(c.Request.Context(), id, approve, a.UserID, body.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// Limits returns the limits drivers are checked against.
func (tc *TimesheetController) Limits(c *gin.Context) {
	c.JSON(http.StatusOK, tc.Service.Limits())
}
