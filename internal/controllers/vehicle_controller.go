package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet_tracker/internal/config"
	"fleet_tracker/internal/models"
)

// CreateVehicle registers a vehicle; it starts in service
func CreateVehicle(c *gin.Context) {
	var input struct {
		VehicleNo           string `json:"vehicle_no" binding:"required"`
		VehicleRegistration string `json:"vehicle_registration" binding:"required"`
		Mileage             int    `json:"mileage" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle input: " + err.Error()})
		return
	}

	vehicle := models.Vehicle{
		VehicleNo:           input.VehicleNo,
		VehicleRegistration: input.VehicleRegistration,
		Mileage:             input.Mileage,
		InService:           true,
	}
	if err := config.DB.Create(&vehicle).Error; err != nil {
		if isDuplicate(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "vehicle registration already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vehicle: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"vehicle": vehicle})
}

func ListVehicles(c *gin.Context) {
	var vehicles []models.Vehicle
	q := config.DB.Order("vehicle_no")
	if c.Query("in_service") == "false" {
		q = q.Where("in_service = ?", false)
	}
	if err := q.Find(&vehicles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing vehicles: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vehicles})
}

func findVehicle(c *gin.Context) (models.Vehicle, bool) {
	var vehicle models.Vehicle
	id, ok := uintParam(c, "id")
	if !ok {
		return vehicle, false
	}
	if err := config.DB.First(&vehicle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return vehicle, false
		}
		logrus.WithError(err).Error("Database error fetching vehicle")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vehicle"})
		return vehicle, false
	}
	return vehicle, true
}

func GetVehicle(c *gin.Context) {
	if vehicle, ok := findVehicle(c); ok {
		c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
	}
}

// UpdateVehicle changes the vehicle's number or registration. Mileage only
// moves through inspections and drivers are assigned from the driver side.
func UpdateVehicle(c *gin.Context) {
	vehicle, ok := findVehicle(c)
	if !ok {
		return
	}
	var input struct {
		VehicleNo           *string `json:"vehicle_no"`
		VehicleRegistration *string `json:"vehicle_registration"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
		return
	}
	if input.VehicleNo != nil {
		vehicle.VehicleNo = *input.VehicleNo
	}
	if input.VehicleRegistration != nil {
		vehicle.VehicleRegistration = *input.VehicleRegistration
	}
	if err := config.DB.Save(&vehicle).Error; err != nil {
		if isDuplicate(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "vehicle registration already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vehicle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

// UpdateVehicleStatus sets the in_service flag, e.g. to return a vehicle to
// the road after repairs.
func UpdateVehicleStatus(c *gin.Context) {
	vehicle, ok := findVehicle(c)
	if !ok {
		return
	}
	var input struct {
		InService *bool `json:"in_service" binding:"required"` // pointer to tell missing from false
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if err := config.DB.Model(&vehicle).Update("in_service", *input.InService).Error; err != nil {
		logrus.WithError(err).Error("Failed to save vehicle status update")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vehicle status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle status updated successfully", "vehicle": vehicle})
}

func DeleteVehicle(c *gin.Context) {
	vehicle, ok := findVehicle(c)
	if !ok {
		return
	}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Driver{}).Where("vehicle_id = ?", vehicle.ID).Update("vehicle_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&vehicle).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete vehicle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted"})
}
