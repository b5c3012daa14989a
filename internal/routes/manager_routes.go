package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_tracker/internal/controllers"
	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/models"
)

func ManagerRoutes(r *gin.Engine, ts *controllers.TimesheetController, insp *controllers.InspectionController, inv *controllers.InvoiceController) {
	manager := r.Group("/manager")
	manager.Use(middleware.RequireAuthWithRole(models.RoleManager, models.RoleAdmin))
	{
		manager.GET("/drivers", controllers.ListDrivers)
		manager.GET("/drivers/:id", controllers.GetDriver)
		manager.PUT("/drivers/:id", controllers.UpdateDriver)
		manager.DELETE("/drivers/:id", controllers.DeleteDriver(ts.Sessions))
		manager.GET("/drivers/:id/entries", ts.DriverEntries)
		manager.GET("/drivers/:id/compliance", ts.DriverCompliance)
		manager.GET("/drivers/:id/weekly-rest", ts.DriverWeeklyRest)
		manager.POST("/drivers/:id/weekly-rest/record", ts.RecordWeek)

		manager.POST("/weekly-rest/:id/fulfil", ts.FulfilCompensation)

		manager.GET("/time-off/pending", ts.PendingTimeOff)
		manager.POST("/time-off/:id/approve", ts.ApproveTimeOff)
		manager.POST("/time-off/:id/reject", ts.RejectTimeOff)

		manager.GET("/vehicles", controllers.ListVehicles)
		manager.POST("/vehicles", controllers.CreateVehicle)
		manager.GET("/vehicles/:id", controllers.GetVehicle)
		manager.PUT("/vehicles/:id", controllers.UpdateVehicle)
		manager.PATCH("/vehicles/:id/status", controllers.UpdateVehicleStatus)
		manager.DELETE("/vehicles/:id", controllers.DeleteVehicle)
		manager.GET("/vehicles/:id/inspections", insp.VehicleInspections)

		manager.GET("/invoices", inv.List)
		manager.POST("/invoices", inv.Start)
		manager.GET("/invoices/:id", inv.Get)
		manager.PATCH("/invoices/:id", inv.Update)
		manager.POST("/invoices/:id/next", inv.Next)
		manager.POST("/invoices/:id/back", inv.Back)
	}
}
