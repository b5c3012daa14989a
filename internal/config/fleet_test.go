package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet_tracker/internal/wtd"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFleet_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFleet(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, wtd.DefaultLimits(), cfg.Limits)
	assert.Equal(t, 0.2, cfg.VATRate)
}

func TestLoadFleet_PartialOverride(t *testing.T) {
	path := writeFile(t, `
limits:
  max_daily_working_time: 10
  compensation_window: 336h
  break_rules:
    - after_hours: 4.5
      required_hours: 0.75
depots:
  - name: Main yard
    latitude: 51.5
    longitude: -0.12
`)
	cfg, err := LoadFleet(path)
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Limits.MaxDailyWorkingTime)
	assert.Equal(t, 9.0, cfg.Limits.MaxDailyDrivingTime, "unset keys keep defaults")
	assert.Equal(t, 14*24*time.Hour, cfg.Limits.CompensationWindow)
	require.Len(t, cfg.Limits.BreakRules, 1)
	assert.Equal(t, 0.75, cfg.Limits.RequiredBreak(5))
	require.Len(t, cfg.Depots, 1)
	assert.Equal(t, "Main yard", cfg.Depots[0].Name)
}

func TestLoadFleet_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "limits: [unclosed"},
		{"negative max", "limits:\n  max_weekly_working_time: -1\n"},
		{"reduced above full", "limits:\n  min_weekly_rest_reduced: 50\n"},
		{"margin out of range", "limits:\n  warning_margin: 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFleet(writeFile(t, tt.content))
			assert.Error(t, err)
			assert.Equal(t, DefaultFleet(), cfg)
		})
	}
}

func TestFleet_MarshalRoundTrip(t *testing.T) {
	out, err := DefaultFleet().Marshal()
	require.NoError(t, err)

	cfg, err := LoadFleet(writeFile(t, string(out)))
	require.NoError(t, err)
	assert.Equal(t, DefaultFleet().Limits, cfg.Limits)
}

func TestDBSettings_DSN(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "fleet_test")
	s := LoadDBSettings()
	assert.Contains(t, s.DSN(), "host=db.internal")
	assert.Contains(t, s.DSN(), "dbname=fleet_test")
	assert.Equal(t, "postgres", s.Driver)
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	db, err := Open(DBSettings{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable("time_entries"))
	assert.True(t, db.Migrator().HasIndex("time_entries", "idx_time_entries_driver_day"))

	_, err = Open(DBSettings{Driver: "oracle"}, nil)
	assert.Error(t, err)
}
