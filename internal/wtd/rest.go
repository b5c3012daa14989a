package wtd

import (
	"fmt"
	"time"
)

// WeeklyRestAnalysis is the rest outcome of one week.
type WeeklyRestAnalysis struct {
	WeekStart            time.Time  `json:"week_start"`
	WeekEnd              time.Time  `json:"week_end"`
	TotalWorkHours       float64    `json:"total_work_hours"`
	ActualRestHours      float64    `json:"actual_rest_hours"`
	RestType             RestType   `json:"rest_type"`
	CompensationRequired bool       `json:"compensation_required"`
	CompensationDate     *time.Time `json:"compensation_date,omitempty"`
	DaysRecorded         int        `json:"days_recorded"`
	CriticalViolations   []string   `json:"critical_violations"`
	Warnings             []string   `json:"warnings"`
}

// AnalyzeWeek classifies the weekly rest of [weekStart, weekEnd].
//
// Rest is approximated as the hours of the period minus the hours worked; gaps
// between shifts are not checked for contiguity since non-working intervals
// are not recorded. Missing days and unfinished shifts are reported as
// warnings and the analysis continues with whatever data there is.
//
// prior holds the driver's existing records; a reduced week only gets a
// compensation date when no other pending compensation already falls inside
// its window.
func AnalyzeWeek(entries []TimeEntry, weekStart, weekEnd time.Time, limits ComplianceLimits, prior []WeeklyRestRecord) WeeklyRestAnalysis {
	weekStart, weekEnd = StartOfDay(weekStart), StartOfDay(weekEnd)
	a := WeeklyRestAnalysis{WeekStart: weekStart, WeekEnd: weekEnd}

	days := calendarDays(weekStart, weekEnd)
	if days < 1 {
		days = 1
	}

	seen := make(map[string]bool, days)
	open := 0
	for _, e := range entries {
		if !inRange(e.Date, weekStart, weekEnd) {
			continue
		}
		seen[e.Date.Format(time.DateOnly)] = true
		if e.Status != StatusCompleted {
			open++
			continue
		}
		a.TotalWorkHours += e.TotalHours
	}
	a.TotalWorkHours = round2(a.TotalWorkHours)
	a.DaysRecorded = len(seen)
	a.ActualRestHours = round2(float64(days*24) - a.TotalWorkHours)

	var warnings, violations []string
	if missing := days - a.DaysRecorded; missing > 0 {
		warnings = append(warnings, fmt.Sprintf("%v: no time entries for %d of %d days", ErrIncompleteWeekData, missing, days))
	}
	if open > 0 {
		warnings = append(warnings, fmt.Sprintf("%v: %d shift(s) not clocked out", ErrIncompleteWeekData, open))
	}

	switch {
	case a.ActualRestHours >= limits.MinWeeklyRestFull:
		a.RestType = RestFull
	case a.ActualRestHours >= limits.MinWeeklyRestReduced:
		a.RestType = RestReduced
		a.CompensationRequired = true
		due := weekEnd.Add(limits.CompensationWindow)
		if existing := pendingWithin(prior, weekStart, weekEnd, due); existing != nil {
			warnings = append(warnings, fmt.Sprintf("Compensation already scheduled for %s", existing.CompensationDate.Format(time.DateOnly)))
		} else {
			a.CompensationDate = &due
		}
	default:
		a.RestType = RestInsufficient
		violations = append(violations, fmt.Sprintf("Weekly rest of %.2fh is below the reduced minimum of %.2fh", a.ActualRestHours, limits.MinWeeklyRestReduced))
	}

	a.Warnings = nonNil(warnings)
	a.CriticalViolations = nonNil(violations)
	return a
}

func pendingWithin(prior []WeeklyRestRecord, weekStart, from, to time.Time) *WeeklyRestRecord {
	for i := range prior {
		r := prior[i]
		if SameDay(r.WeekStartDate, weekStart) || !r.PendingCompensation() {
			continue
		}
		if !r.CompensationDate.Before(from) && !r.CompensationDate.After(to) {
			return &prior[i]
		}
	}
	return nil
}

// Record turns the analysis into the record persisted for driverID.
func (a WeeklyRestAnalysis) Record(driverID uint) WeeklyRestRecord {
	return WeeklyRestRecord{
		DriverID:             driverID,
		WeekStartDate:        a.WeekStart,
		WeekEndDate:          a.WeekEnd,
		RestType:             a.RestType,
		TotalRestHours:       a.ActualRestHours,
		CompensationRequired: a.CompensationRequired,
		CompensationDate:     a.CompensationDate,
	}
}
