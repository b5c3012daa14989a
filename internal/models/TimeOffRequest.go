package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TimeOffRequest struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	DriverID    uint       `gorm:"not null;index:idx_time_off_driver_dates" json:"driver_id"`
	StartDate   time.Time  `gorm:"type:date;not null;index:idx_time_off_driver_dates" json:"start_date"`
	EndDate     time.Time  `gorm:"type:date;not null;index:idx_time_off_driver_dates" json:"end_date"`
	RequestType string     `gorm:"type:varchar(30);not null" json:"request_type"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Reason      string     `gorm:"type:text" json:"reason"`
	ReviewedBy  *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewNote  string     `gorm:"type:text" json:"review_note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (r *TimeOffRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
