package wtd

import (
	"encoding/json"
	"time"
)

// BreakRule requires RequiredHours of break once working time exceeds AfterHours.
type BreakRule struct {
	AfterHours    float64 `json:"after_hours" yaml:"after_hours"`
	RequiredHours float64 `json:"required_hours" yaml:"required_hours"`
}

// ComplianceLimits holds the regulatory limits the calculator checks against.
// All durations are decimal hours.
type ComplianceLimits struct {
	MaxDailyWorkingTime  float64     `json:"max_daily_working_time" yaml:"max_daily_working_time"`
	MaxDailyDrivingTime  float64     `json:"max_daily_driving_time" yaml:"max_daily_driving_time"`
	MaxWeeklyWorkingTime float64     `json:"max_weekly_working_time" yaml:"max_weekly_working_time"`
	MinDailyRest         float64     `json:"min_daily_rest" yaml:"min_daily_rest"`
	MinWeeklyRestFull    float64     `json:"min_weekly_rest_full" yaml:"min_weekly_rest_full"`
	MinWeeklyRestReduced float64     `json:"min_weekly_rest_reduced" yaml:"min_weekly_rest_reduced"`
	BreakRules           []BreakRule `json:"break_rules" yaml:"break_rules"`

	// WarningMargin is the fraction of a limit below it that raises a warning.
	// 0.1 with a 10h limit warns from 9h upwards.
	WarningMargin float64 `json:"warning_margin" yaml:"warning_margin"`

	// CompensationWindow is how long after a reduced week the rest deficit must be made up.
	CompensationWindow time.Duration `json:"compensation_window" yaml:"compensation_window"`
}

// DefaultLimits returns the Working Time Directive / drivers' hours defaults.
func DefaultLimits() ComplianceLimits {
	return ComplianceLimits{
		MaxDailyWorkingTime:  13,
		MaxDailyDrivingTime:  9,
		MaxWeeklyWorkingTime: 60,
		MinDailyRest:         11,
		MinWeeklyRestFull:    45,
		MinWeeklyRestReduced: 24,
		BreakRules: []BreakRule{
			{AfterHours: 6, RequiredHours: 0.5},
			{AfterHours: 9, RequiredHours: 0.75},
		},
		WarningMargin:      0.1,
		CompensationWindow: 3 * 7 * 24 * time.Hour,
	}
}

// MarshalJSON renders CompensationWindow as a duration string and in days
// instead of nanoseconds.
func (l ComplianceLimits) MarshalJSON() ([]byte, error) {
	type plain ComplianceLimits
	return json.Marshal(struct {
		plain
		CompensationWindow     string  `json:"compensation_window"`
		CompensationWindowDays float64 `json:"compensation_window_days"`
	}{
		plain:                  plain(l),
		CompensationWindow:     l.CompensationWindow.String(),
		CompensationWindowDays: l.CompensationWindow.Hours() / 24,
	})
}

// RequiredBreak returns the break time owed for the given working time.
// The largest rule whose trigger is exceeded wins.
func (l ComplianceLimits) RequiredBreak(workingHours float64) float64 {
	var required float64
	for _, r := range l.BreakRules {
		if workingHours > r.AfterHours && r.RequiredHours > required {
			required = r.RequiredHours
		}
	}
	return required
}

// warnFrom is the value from which a metric capped at limit is reported as a warning.
func (l ComplianceLimits) warnFrom(limit float64) float64 {
	return limit * (1 - l.WarningMargin)
}
