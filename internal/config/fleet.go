package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fleet_tracker/internal/geo"
	"fleet_tracker/internal/wtd"
)

// Fleet is the operator configuration file: compliance limits, depots and
// billing defaults.
type Fleet struct {
	Limits     wtd.ComplianceLimits `yaml:"limits"`
	Depots     []geo.Depot          `yaml:"depots"`
	VATRate    float64              `yaml:"vat_rate"`
	InvoicePfx string               `yaml:"invoice_prefix"`
}

// DefaultFleet returns the configuration used when no file is present.
func DefaultFleet() Fleet {
	return Fleet{
		Limits:     wtd.DefaultLimits(),
		VATRate:    0.2,
		InvoicePfx: "INV",
	}
}

// LoadFleet reads path over the defaults. A missing file is not an error;
// keys absent from the file keep their default values.
func LoadFleet(path string) (Fleet, error) {
	cfg := DefaultFleet()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read fleet config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultFleet(), fmt.Errorf("parse fleet config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultFleet(), fmt.Errorf("fleet config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects limits that would make every check meaningless.
func (f Fleet) Validate() error {
	l := f.Limits
	switch {
	case l.MaxDailyWorkingTime <= 0, l.MaxDailyDrivingTime <= 0, l.MaxWeeklyWorkingTime <= 0:
		return errors.New("maximum limits must be positive")
	case l.MinWeeklyRestReduced > l.MinWeeklyRestFull:
		return errors.New("reduced weekly rest cannot exceed full weekly rest")
	case l.WarningMargin < 0 || l.WarningMargin >= 1:
		return errors.New("warning_margin must be in [0, 1)")
	case f.VATRate < 0:
		return errors.New("vat_rate cannot be negative")
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (f Fleet) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}
