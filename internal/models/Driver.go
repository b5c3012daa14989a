// internal/models/driver.go
package models

import (
	"gorm.io/gorm"
)

type Driver struct {
	gorm.Model
	UserID        uint   `json:"user_id" gorm:"unique"` // Foreign key to User
	User          User   `gorm:"foreignKey:UserID" json:"-"`
	VehicleID     *uint  `json:"vehicle_id" gorm:"index"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"license_number"`
	// Email, Password and Role live on User.
}
