package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceLine struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Invoice is billed for a completed job, built up step by step.
type Invoice struct {
	ID            uuid.UUID     `gorm:"type:char(36);primaryKey" json:"id"`
	CreatedBy     uint          `gorm:"not null;index" json:"created_by"`
	Step          string        `gorm:"type:varchar(20);not null" json:"step"`
	Number        *string       `gorm:"uniqueIndex" json:"number,omitempty"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	JobReference  string        `json:"job_reference"`
	Lines         []InvoiceLine `gorm:"serializer:json" json:"lines"`
	VATRate       float64       `json:"vat_rate"`
	Subtotal      float64       `json:"subtotal"`
	VAT           float64       `json:"vat"`
	Total         float64       `json:"total"`
	IssuedAt      *time.Time    `json:"issued_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
