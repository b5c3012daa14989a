package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleet_tracker/internal/config"
	"fleet_tracker/internal/inspection"
	"fleet_tracker/internal/invoice"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/wizard"
)

type backInput struct {
	Step string `json:"step" binding:"required"`
}

// InspectionController serves the driver's vehicle inspection wizard.
type InspectionController struct {
	Service *inspection.Service
}

// Start opens an inspection, on the driver's assigned vehicle unless one is given.
func (ic *InspectionController) Start(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	var body struct {
		VehicleID *uint `json:"vehicle_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if body.VehicleID == nil {
		var driver models.Driver
		if err := config.GetDB().First(&driver, driverID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load driver profile."})
			return
		}
		body.VehicleID = driver.VehicleID
	}

	insp, err := ic.Service.Start(c.Request.Context(), driverID, body.VehicleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"inspection": insp, "steps": inspection.Steps()})
}

func (ic *InspectionController) Get(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	insp, err := ic.Service.Get(c.Request.Context(), driverID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inspection": insp})
}

func (ic *InspectionController) Update(c *gin.Context) { ic.edit(c, false) }

func (ic *InspectionController) Next(c *gin.Context) { ic.edit(c, true) }

func (ic *InspectionController) edit(c *gin.Context, advance bool) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in inspection.Input
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	save := ic.Service.Update
	if advance {
		save = ic.Service.Advance
	}
	insp, err := save(c.Request.Context(), driverID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inspection": insp})
}

func (ic *InspectionController) Back(c *gin.Context) {
	driverID, ok := driverOf(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var body backInput
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	insp, err := ic.Service.Back(c.Request.Context(), driverID, id, wizard.Step(body.Step))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inspection": insp})
}

// VehicleInspections lists a vehicle's inspections for managers.
func (ic *InspectionController) VehicleInspections(c *gin.Context) {
	vehicleID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	list, err := ic.Service.List(c.Request.Context(), vehicleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// InvoiceController serves the manager's invoice wizard.
type InvoiceController struct {
	Service *invoice.Service
}

func (ic *InvoiceController) Start(c *gin.Context) {
	userID := c.GetUint("user_id")
	inv, err := ic.Service.Start(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": inv, "steps": invoice.Steps()})
}

func (ic *InvoiceController) List(c *gin.Context) {
	list, err := ic.Service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (ic *InvoiceController) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	inv, err := ic.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

func (ic *InvoiceController) Update(c *gin.Context) { ic.edit(c, false) }

func (ic *InvoiceController) Next(c *gin.Context) { ic.edit(c, true) }

func (ic *InvoiceController) edit(c *gin.Context, advance bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in invoice.Input
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	save := ic.Service.Update
	if advance {
		save = ic.Service.Advance
	}
	inv, err := save(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}

func (ic *InvoiceController) Back(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var body backInput
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inv, err := ic.Service.Back(c.Request.Context(), id, wizard.Step(body.Step))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv})
}
