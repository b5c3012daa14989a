package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeEntry is one driver's shift for one calendar day. WorkDate is stored
// as UTC midnight of the calendar day; the pair (driver_id, work_date) is
// unique so a second clock-in for the same day fails at the database.
type TimeEntry struct {
	ID               uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	DriverID         uint       `gorm:"not null;uniqueIndex:idx_time_entries_driver_day" json:"driver_id"`
	WorkDate         time.Time  `gorm:"type:date;not null;uniqueIndex:idx_time_entries_driver_day" json:"work_date"`
	ClockInTime      time.Time  `gorm:"not null" json:"clock_in_time"`
	ClockOutTime     *time.Time `json:"clock_out_time,omitempty"`
	BreakStartTime   *time.Time `json:"break_start_time,omitempty"`
	BreakEndTime     *time.Time `json:"break_end_time,omitempty"`
	TotalHours       float64    `gorm:"not null;default:0" json:"total_hours"`
	BreakHours       float64    `gorm:"not null;default:0" json:"break_hours"`
	Status           string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	ClockInLocation  string     `json:"clock_in_location"`
	ClockInPoint     []byte     `json:"-"`
	ClockOutLocation *string    `json:"clock_out_location,omitempty"`
	ClockOutPoint    []byte     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (e *TimeEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
