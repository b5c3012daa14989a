package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WeeklyRestRecord holds one driver's weekly rest outcome per ISO week.
type WeeklyRestRecord struct {
	ID                      uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	DriverID                uint       `gorm:"not null;uniqueIndex:idx_weekly_rest_driver_week" json:"driver_id"`
	WeekStartDate           time.Time  `gorm:"type:date;not null;uniqueIndex:idx_weekly_rest_driver_week" json:"week_start_date"`
	WeekEndDate             time.Time  `gorm:"type:date;not null" json:"week_end_date"`
	RestType                string     `gorm:"type:varchar(20);not null" json:"rest_type"`
	TotalRestHours          float64    `gorm:"not null" json:"total_rest_hours"`
	CompensationRequired    bool       `gorm:"not null;default:false" json:"compensation_required"`
	CompensationDate        *time.Time `gorm:"type:date" json:"compensation_date,omitempty"`
	CompensationFulfilledAt *time.Time `json:"compensation_fulfilled_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (r *WeeklyRestRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
