package wtd

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ComplianceAnalysis is the outcome of checking one driver's day and week.
type ComplianceAnalysis struct {
	ReferenceDate      time.Time `json:"reference_date"`
	DailyWorkingTime   float64   `json:"daily_working_time"`
	DailyDrivingTime   float64   `json:"daily_driving_time"`
	WeeklyWorkingTime  float64   `json:"weekly_working_time"`
	TakenBreaks        float64   `json:"taken_breaks"`
	RequiredBreaks     float64   `json:"required_breaks"`
	DailyRestHours     *float64  `json:"daily_rest_hours,omitempty"`
	CriticalViolations []string  `json:"critical_violations"`
	Warnings           []string  `json:"warnings"`
	ComplianceScore    float64   `json:"compliance_score"`
	OverallCompliance  bool      `json:"overall_compliance"`

	// DataUnavailable marks an analysis made without records because the
	// store could not be read.
	DataUnavailable bool `json:"data_unavailable,omitempty"`
}

type checker struct {
	limits     ComplianceLimits
	checks     int
	passed     int
	violations []string
	warnings   []string
}

// maximum checks a metric that must stay at or below limit.
func (c *checker) maximum(name string, value, limit float64) {
	c.checks++
	switch {
	case value > limit:
		c.violations = append(c.violations, fmt.Sprintf("%s of %.2fh exceeds the %.2fh limit", name, value, limit))
	case c.limits.WarningMargin > 0 && value >= c.limits.warnFrom(limit):
		c.passed++
		c.warnings = append(c.warnings, fmt.Sprintf("%s of %.2fh is approaching the %.2fh limit", name, value, limit))
	default:
		c.passed++
	}
}

// minimum checks a metric that must stay at or above limit.
func (c *checker) minimum(name string, value, limit float64) {
	c.checks++
	if value < limit {
		c.violations = append(c.violations, fmt.Sprintf("%s of %.2fh is below the %.2fh minimum", name, value, limit))
		return
	}
	c.passed++
}

// Analyze computes daily and weekly working time for the day of ref and
// classifies them against limits. ref is an instant: entries still active on
// that day count the time worked up to it. Entries of other drivers must be
// filtered out by the caller.
func Analyze(entries []TimeEntry, limits ComplianceLimits, ref time.Time) ComplianceAnalysis {
	weekStart, weekEnd := WeekRange(ref)
	a := ComplianceAnalysis{ReferenceDate: StartOfDay(ref)}

	var today *TimeEntry
	open := 0
	for i := range entries {
		e := entries[i]
		worked := e.HoursWorked(ref)
		if inRange(e.Date, weekStart, weekEnd) {
			a.WeeklyWorkingTime += worked
			if e.Status != StatusCompleted && !SameDay(e.Date, ref) && e.Date.Before(ref) {
				open++
			}
		}
		if SameDay(e.Date, ref) {
			a.DailyWorkingTime += worked
			a.TakenBreaks += e.BreakHours
			if today == nil {
				today = &entries[i]
			}
		}
	}
	a.DailyWorkingTime = round2(a.DailyWorkingTime)
	a.WeeklyWorkingTime = round2(a.WeeklyWorkingTime)
	a.TakenBreaks = round2(a.TakenBreaks)
	// No tachograph source: driving time is taken to equal working time.
	a.DailyDrivingTime = a.DailyWorkingTime
	a.RequiredBreaks = limits.RequiredBreak(a.DailyWorkingTime)

	c := &checker{limits: limits}
	if open > 0 {
		c.warnings = append(c.warnings, fmt.Sprintf("%v: %d earlier shift(s) not clocked out", ErrIncompleteWeekData, open))
	}
	c.maximum("Daily working time", a.DailyWorkingTime, limits.MaxDailyWorkingTime)
	c.maximum("Daily driving time", a.DailyDrivingTime, limits.MaxDailyDrivingTime)
	c.maximum("Weekly working time", a.WeeklyWorkingTime, limits.MaxWeeklyWorkingTime)

	c.checks++
	switch {
	case a.TakenBreaks >= a.RequiredBreaks:
		c.passed++
	case today != nil && today.Status == StatusActive:
		// The shift is still running, so the break can still be taken.
		c.passed++
		c.warnings = append(c.warnings, fmt.Sprintf("Break of %.2fh required, %.2fh taken so far", a.RequiredBreaks, a.TakenBreaks))
	default:
		c.violations = append(c.violations, fmt.Sprintf("Break time of %.2fh is below the required %.2fh", a.TakenBreaks, a.RequiredBreaks))
	}

	if today != nil {
		if rest, ok := dailyRest(entries, *today); ok {
			a.DailyRestHours = &rest
			c.minimum("Daily rest", rest, limits.MinDailyRest)
		}
	}

	a.CriticalViolations = nonNil(c.violations)
	a.Warnings = nonNil(c.warnings)
	a.ComplianceScore = math.Round(float64(c.passed) / float64(c.checks) * 100)
	a.OverallCompliance = len(a.CriticalViolations) == 0
	return a
}

// dailyRest returns the rest between the last completed shift before today and today's clock-in.
func dailyRest(entries []TimeEntry, today TimeEntry) (float64, bool) {
	prev := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		if e.ClockOutTime == nil || SameDay(e.Date, today.Date) {
			continue
		}
		if e.ClockOutTime.Before(today.ClockInTime) {
			prev = append(prev, *e.ClockOutTime)
		}
	}
	if len(prev) == 0 {
		return 0, false
	}
	sort.Slice(prev, func(i, j int) bool { return prev[i].After(prev[j]) })
	return round2(hoursBetween(prev[0], today.ClockInTime)), true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
