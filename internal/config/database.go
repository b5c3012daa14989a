package config

import (
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fleet_tracker/internal/models"
)

var (
	// DB is the globally accessible database handle
	DB *gorm.DB
)

// DBSettings selects and addresses the database.
type DBSettings struct {
	Driver   string // "postgres" or "sqlite"
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
	Path     string // sqlite file, ":memory:" for a throwaway database
}

// LoadDBSettings reads the database settings from the environment.
func LoadDBSettings() DBSettings {
	return DBSettings{
		Driver:   strings.ToLower(GetEnv("DB_DRIVER", "postgres")),
		Host:     GetEnv("DB_HOST", "localhost"),
		Port:     GetEnv("DB_PORT", "5432"),
		User:     GetEnv("DB_USER", "postgres"),
		Password: GetEnv("DB_PASSWORD", "password"),
		Name:     GetEnv("DB_NAME", "fleet"),
		SSLMode:  GetEnv("DB_SSLMODE", "disable"),
		TimeZone: GetEnv("DB_TIMEZONE", "UTC"),
		Path:     GetEnv("DB_PATH", "fleet.db"),
	}
}

// DSN builds the Postgres data source name.
func (s DBSettings) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		s.Host, s.User, s.Password, s.Name, s.Port, s.SSLMode, s.TimeZone,
	)
}

// Open connects to the configured database. Postgres goes through lib/pq.
func Open(s DBSettings, log gormlogger.Interface) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	if log != nil {
		cfg.Logger = log
	}

	var dialector gorm.Dialector
	switch s.Driver {
	case "postgres":
		dialector = postgres.New(postgres.Config{DriverName: "postgres", DSN: s.DSN()})
	case "sqlite":
		dialector = sqlite.Open(s.Path)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.Driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", s.Driver, err)
	}
	if s.Driver == "sqlite" {
		// SQLite allows one writer; a single connection also keeps ":memory:" shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Driver{},
		&models.Vehicle{},
		&models.TimeEntry{},
		&models.TimeOffRequest{},
		&models.WeeklyRestRecord{},
		&models.Inspection{},
		&models.Invoice{},
	)
}

// InitDB connects using environment settings, migrates, and assigns DB.
func InitDB(log gormlogger.Interface) *gorm.DB {
	settings := LoadDBSettings()
	db, err := Open(settings, log)
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}
	if err := Migrate(db); err != nil {
		logrus.Fatalf("auto-migration failed: %v", err)
	}
	logrus.WithField("driver", settings.Driver).Info("Database ready")

	DB = db
	return db
}

// GetDB returns the initialized DB handle
func GetDB() *gorm.DB {
	return DB
}
