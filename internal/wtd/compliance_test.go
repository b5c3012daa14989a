package wtd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shift returns a completed entry on March day of 2026 between the given hours.
func shift(day int, in, out float64, breakHours float64) TimeEntry {
	clockIn := at(day, 0, 0).Add(hours(in))
	clockOut := at(day, 0, 0).Add(hours(out))
	return TimeEntry{
		DriverID:     1,
		Date:         at(day, 0, 0),
		ClockInTime:  clockIn,
		ClockOutTime: &clockOut,
		BreakHours:   breakHours,
		TotalHours:   round2(out - in - breakHours),
		Status:       StatusCompleted,
	}
}

func testLimits() ComplianceLimits {
	l := DefaultLimits()
	l.MaxDailyWorkingTime = 10
	l.MaxDailyDrivingTime = 10
	return l
}

func containsPrefix(list []string, prefix string) bool {
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func TestAnalyze_DailyViolation(t *testing.T) {
	entries := []TimeEntry{shift(3, 6, 18.25, 0.75)}
	require.Equal(t, 11.5, entries[0].TotalHours)

	a := Analyze(entries, testLimits(), at(3, 20, 0))

	assert.Equal(t, 11.5, a.DailyWorkingTime)
	assert.Equal(t, a.DailyWorkingTime, a.DailyDrivingTime)
	assert.True(t, containsPrefix(a.CriticalViolations, "Daily working time"))
	assert.False(t, a.OverallCompliance)
	assert.Less(t, a.ComplianceScore, 100.0)
}

func TestAnalyze_Deterministic(t *testing.T) {
	entries := []TimeEntry{shift(2, 8, 17, 0.5), shift(3, 7, 18, 0.75)}
	first := Analyze(entries, testLimits(), at(3, 19, 0))
	second := Analyze(entries, testLimits(), at(3, 19, 0))
	assert.Equal(t, first, second)
}

func TestAnalyze_CompliantDay(t *testing.T) {
	a := Analyze([]TimeEntry{shift(2, 8, 17, 0.5)}, testLimits(), at(2, 18, 0))

	assert.Equal(t, 8.5, a.DailyWorkingTime)
	assert.Equal(t, 0.5, a.TakenBreaks)
	assert.Equal(t, 0.5, a.RequiredBreaks)
	assert.Empty(t, a.CriticalViolations)
	assert.Empty(t, a.Warnings)
	assert.NotNil(t, a.Warnings)
	assert.Equal(t, 100.0, a.ComplianceScore)
	assert.True(t, a.OverallCompliance)
	assert.Nil(t, a.DailyRestHours)
}

func TestAnalyze_WarningMargin(t *testing.T) {
	a := Analyze([]TimeEntry{shift(2, 7, 17.25, 0.75)}, testLimits(), at(2, 18, 0))

	assert.Equal(t, 9.5, a.DailyWorkingTime)
	assert.Empty(t, a.CriticalViolations)
	assert.True(t, containsPrefix(a.Warnings, "Daily working time"))
	assert.True(t, a.OverallCompliance)
	assert.Equal(t, 100.0, a.ComplianceScore)
}

func TestAnalyze_WeeklyTotalUsesISOWeek(t *testing.T) {
	entries := []TimeEntry{
		shift(1, 8, 18, 0.75), // Sunday of the previous week
		shift(2, 8, 17, 0.5),
		shift(4, 8, 17, 0.5),
		shift(8, 8, 17, 0.5), // Sunday, last day of the week
	}
	a := Analyze(entries, testLimits(), at(4, 18, 0))
	assert.Equal(t, 25.5, a.WeeklyWorkingTime)
}

func TestAnalyze_WeeklyViolation(t *testing.T) {
	var entries []TimeEntry
	for day := 2; day <= 7; day++ {
		entries = append(entries, shift(day, 6, 16.75, 0.75))
	}
	a := Analyze(entries, testLimits(), at(7, 18, 0))

	assert.Equal(t, 60.0, a.WeeklyWorkingTime)
	assert.True(t, containsPrefix(a.Warnings, "Weekly working time"))

	entries = append(entries, shift(8, 8, 10, 0))
	a = Analyze(entries, testLimits(), at(8, 18, 0))
	assert.True(t, containsPrefix(a.CriticalViolations, "Weekly working time"))
	assert.False(t, a.OverallCompliance)
}

func TestAnalyze_Breaks(t *testing.T) {
	a := Analyze([]TimeEntry{shift(2, 8, 15, 0)}, testLimits(), at(2, 18, 0))
	assert.Equal(t, 0.5, a.RequiredBreaks)
	assert.True(t, containsPrefix(a.CriticalViolations, "Break time"))

	active := TimeEntry{Date: at(2, 0, 0), ClockInTime: at(2, 8, 0), Status: StatusActive}
	a = Analyze([]TimeEntry{active}, testLimits(), at(2, 15, 0))
	assert.Equal(t, 7.0, a.DailyWorkingTime)
	assert.Empty(t, a.CriticalViolations)
	assert.True(t, containsPrefix(a.Warnings, "Break of"))
}

func TestAnalyze_ForgottenClockOutDoesNotAccrue(t *testing.T) {
	forgotten := TimeEntry{DriverID: 1, Date: at(2, 0, 0), ClockInTime: at(2, 8, 0), Status: StatusActive}

	a := Analyze([]TimeEntry{forgotten}, DefaultLimits(), at(4, 10, 0))
	assert.Equal(t, 0.0, a.WeeklyWorkingTime)
	assert.Equal(t, 0.0, a.DailyWorkingTime)
	assert.Empty(t, a.CriticalViolations)
	assert.True(t, containsPrefix(a.Warnings, ErrIncompleteWeekData.Error()))

	week := AnalyzeWeek([]TimeEntry{forgotten}, at(2, 0, 0), at(8, 0, 0), DefaultLimits(), nil)
	assert.Equal(t, a.WeeklyWorkingTime, week.TotalWorkHours)

	a = Analyze([]TimeEntry{forgotten, shift(4, 8, 12, 0)}, DefaultLimits(), at(5, 20, 0))
	assert.Equal(t, 4.0, a.WeeklyWorkingTime)
	assert.True(t, a.OverallCompliance)
}

func TestAnalyze_DailyRest(t *testing.T) {
	entries := []TimeEntry{shift(2, 13, 22, 0.5), shift(3, 6, 10, 0)}
	a := Analyze(entries, testLimits(), at(3, 12, 0))

	require.NotNil(t, a.DailyRestHours)
	assert.Equal(t, 8.0, *a.DailyRestHours)
	assert.True(t, containsPrefix(a.CriticalViolations, "Daily rest"))

	entries = []TimeEntry{shift(2, 8, 17, 0.5), shift(3, 8, 12, 0)}
	a = Analyze(entries, testLimits(), at(3, 12, 0))
	require.NotNil(t, a.DailyRestHours)
	assert.Equal(t, 15.0, *a.DailyRestHours)
	assert.True(t, a.OverallCompliance)
}

func TestComplianceLimits_RequiredBreak(t *testing.T) {
	l := DefaultLimits()
	tests := []struct {
		worked float64
		want   float64
	}{
		{0, 0},
		{6, 0},
		{6.01, 0.5},
		{9, 0.5},
		{9.5, 0.75},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.RequiredBreak(tt.worked), "worked %.2f", tt.worked)
	}
}

func TestComplianceLimits_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(DefaultLimits())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "504h0m0s", out["compensation_window"])
	assert.EqualValues(t, 21, out["compensation_window_days"])
	assert.EqualValues(t, 13, out["max_daily_working_time"])
	assert.Len(t, out["break_rules"], 2)
}
