package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChecklistItem is one line of the walk-around check.
type ChecklistItem struct {
	Code   string `json:"code"`
	Passed *bool  `json:"passed"`
	Note   string `json:"note,omitempty"`
}

// Inspection is a vehicle inspection, saved after every wizard step.
type Inspection struct {
	ID           uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	DriverID     uint            `gorm:"not null;index" json:"driver_id"`
	VehicleID    uint            `gorm:"index" json:"vehicle_id"`
	Step         string          `gorm:"type:varchar(20);not null" json:"step"`
	Mileage      string          `json:"mileage"`
	Checklist    []ChecklistItem `gorm:"serializer:json" json:"checklist"`
	PhotoRefs    []string        `gorm:"serializer:json" json:"photo_refs"`
	SignatureRef string          `json:"signature_ref"`
	SignedBy     string          `json:"signed_by"`
	Defects      int             `json:"defects"`
	Location     string          `json:"location"`
	SubmittedAt  *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (i *Inspection) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
