package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_tracker/internal/controllers"
	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/models"
)

func DriverRoutes(r *gin.Engine, ts *controllers.TimesheetController, insp *controllers.InspectionController) {
	driver := r.Group("/driver")
	driver.Use(middleware.RequireAuthWithRole(models.RoleDriver))
	{
		driver.GET("/timesheet/today", ts.Today)
		driver.POST("/timesheet/clock-in", ts.ClockIn)
		driver.POST("/timesheet/break/start", ts.StartBreak)
		driver.POST("/timesheet/break/end", ts.EndBreak)
		driver.POST("/timesheet/clock-out", ts.ClockOut)
		driver.GET("/timesheet/entries", ts.Entries)

		driver.GET("/compliance", ts.Compliance)
		driver.GET("/limits", ts.Limits)
		driver.GET("/weekly-rest", ts.WeeklyRest)
		driver.GET("/time-off", ts.TimeOffRequests)
		driver.POST("/time-off", ts.RequestTimeOff)

		driver.GET("/vehicle", controllers.GetAuthenticatedDriverVehicle)

		driver.POST("/inspections", insp.Start)
		driver.GET("/inspections/:id", insp.Get)
		driver.PATCH("/inspections/:id", insp.Update)
		driver.POST("/inspections/:id/next", insp.Next)
		driver.POST("/inspections/:id/back", insp.Back)
	}
}
