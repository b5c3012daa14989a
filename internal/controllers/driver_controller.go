package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fleet_tracker/internal/config"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/session"
)

// updateDriverInput defines the fields a manager can change on a driver.
// Name, email, phone and password live on the associated User.
type updateDriverInput struct {
	UserName     *string `json:"name"`
	UserEmail    *string `json:"email"`
	UserPhone    *string `json:"phone"`
	UserPassword *string `json:"password"`

	DriverPhone   *string `json:"driver_phone"`
	LicenseNumber *string `json:"license_number"`
	// VehicleID assigns a vehicle; 0 unassigns.
	VehicleID *uint `json:"vehicle_id"`
}

// GetAuthenticatedDriverVehicle fetches the vehicle assigned to the calling driver.
func GetAuthenticatedDriverVehicle(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	var vehicle models.Vehicle
	if err := config.DB.Where("driver_id = ?", driverID).First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No vehicle assigned to this driver."})
			return
		}
		logrus.WithError(err).Error("Error fetching vehicle for authenticated driver")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vehicle data."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

// GetDriver fetches a driver profile by driver ID.
func GetDriver(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var driver models.Driver
	if err := config.DB.Preload("User").First(&driver, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return
	}
	user := driver.User
	user.Driver = &driver
	c.JSON(http.StatusOK, gin.H{"driver_profile": prepareUserResponse(user)})
}

// ListDrivers fetches all users with the role 'driver' and their driver profiles.
func ListDrivers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Where("role = ?", models.RoleDriver).Preload("Driver").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing drivers: " + err.Error()})
		return
	}

	driverProfiles := make([]gin.H, 0, len(users))
	for _, user := range users {
		driverProfiles = append(driverProfiles, prepareUserResponse(user))
	}
	c.JSON(http.StatusOK, gin.H{"data": driverProfiles})
}

// UpdateDriver modifies driver details (both user-level and driver-specific).
func UpdateDriver(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var input updateDriverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	var driver models.Driver
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").First(&driver, id).Error; err != nil {
			return err
		}
		user := &driver.User
		if input.UserName != nil {
			user.Name = *input.UserName
			driver.Name = *input.UserName
		}
		if input.UserEmail != nil {
			user.Email = *input.UserEmail
		}
		if input.UserPhone != nil {
			user.Phone = *input.UserPhone
		}
		if input.UserPassword != nil {
			hashed, err := bcrypt.GenerateFromPassword([]byte(*input.UserPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.Password = string(hashed)
		}
		if err := tx.Save(user).Error; err != nil {
			return err
		}

		if input.DriverPhone != nil {
			driver.Phone = *input.DriverPhone
		}
		if input.LicenseNumber != nil {
			driver.LicenseNumber = *input.LicenseNumber
		}
		if input.VehicleID != nil {
			if err := assignVehicle(tx, &driver, *input.VehicleID); err != nil {
				return err
			}
		}
		return tx.Omit("User").Save(&driver).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver or vehicle not found."})
		case isDuplicate(err):
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update driver: " + err.Error()})
		}
		return
	}

	user := driver.User
	user.Driver = &driver
	c.JSON(http.StatusOK, gin.H{
		"message":        "Driver details updated successfully.",
		"driver_profile": prepareUserResponse(user),
	})
}

// assignVehicle links driver and vehicle both ways, releasing previous links.
func assignVehicle(tx *gorm.DB, driver *models.Driver, vehicleID uint) error {
	if err := tx.Model(&models.Vehicle{}).Where("driver_id = ?", driver.ID).Update("driver_id", nil).Error; err != nil {
		return err
	}
	if vehicleID == 0 {
		driver.VehicleID = nil
		return nil
	}
	var vehicle models.Vehicle
	if err := tx.First(&vehicle, vehicleID).Error; err != nil {
		return err
	}
	if vehicle.DriverID != nil && *vehicle.DriverID != driver.ID {
		if err := tx.Model(&models.Driver{}).Where("id = ?", *vehicle.DriverID).Update("vehicle_id", nil).Error; err != nil {
			return err
		}
	}
	if err := tx.Model(&vehicle).Update("driver_id", driver.ID).Error; err != nil {
		return err
	}
	driver.VehicleID = &vehicle.ID
	return nil
}

// DeleteDriver removes a driver and their user account. Time records are kept,
// cached analyses of the driver are dropped.
func DeleteDriver(sessions *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		err := config.DB.Transaction(func(tx *gorm.DB) error {
			var driver models.Driver
			if err := tx.First(&driver, id).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Vehicle{}).Where("driver_id = ?", driver.ID).Update("driver_id", nil).Error; err != nil {
				return err
			}
			if err := tx.Delete(&driver).Error; err != nil {
				return err
			}
			return tx.Delete(&models.User{}, driver.UserID).Error
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found."})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete driver: " + err.Error()})
			return
		}
		if sessions != nil {
			sessions.InvalidateDriver(id)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Driver and associated user account deleted successfully."})
	}
}
