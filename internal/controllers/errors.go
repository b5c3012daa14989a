package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleet_tracker/internal/inspection"
	"fleet_tracker/internal/invoice"
	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/timesheet"
	"fleet_tracker/internal/wizard"
	"fleet_tracker/internal/wtd"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var stepErr *wizard.StepError
	switch {
	case wtd.IsStateError(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, wtd.ErrAlreadyReviewed),
		errors.Is(err, wtd.ErrNothingToCompensate),
		errors.Is(err, timesheet.ErrOverlappingRequest),
		errors.Is(err, wizard.ErrTerminal),
		errors.Is(err, wizard.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &stepErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "step": stepErr.Step})
	case errors.Is(err, timesheet.ErrInvalidRequest),
		errors.Is(err, wizard.ErrUnknownStep):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, wtd.ErrRecordNotFound),
		errors.Is(err, inspection.ErrNotFound),
		errors.Is(err, invoice.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, inspection.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, wtd.ErrStoreUnavailable):
		logrus.WithError(err).Error("Record store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Records are temporarily unavailable, try again."})
	default:
		logrus.WithError(err).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// driverOf returns the driver profile of the caller, aborting when there is none.
func driverOf(c *gin.Context) (uint, bool) {
	a, ok := middleware.CurrentAuth(c)
	if !ok || a.DriverID == 0 {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "No driver profile for this account."})
		return 0, false
	}
	return a.DriverID, true
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format."})
		return 0, false
	}
	return uint(id), true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format."})
		return uuid.Nil, false
	}
	return id, true
}

// dateQuery parses a YYYY-MM-DD query parameter in loc, or returns def when absent.
func dateQuery(c *gin.Context, name string, loc *time.Location, def time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	d, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + ", expected YYYY-MM-DD."})
		return time.Time{}, false
	}
	return d, true
}
