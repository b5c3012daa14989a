// internal/models/vehicle.go
package models

import (
	"gorm.io/gorm"
)

type Vehicle struct {
	gorm.Model
	VehicleNo           string `json:"vehicle_no"`
	VehicleRegistration string `json:"vehicle_registration" gorm:"uniqueIndex"`
	DriverID            *uint  `json:"driver_id" gorm:"index"`
	InService           bool   `json:"in_service" gorm:"default:true"`
	// Odometer reading from the last submitted inspection.
	Mileage int `json:"mileage"`
}
