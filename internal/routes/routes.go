package routes

import (
	"io"
	"net/http"
	"os"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"fleet_tracker/internal/controllers"
	"fleet_tracker/internal/inspection"
	"fleet_tracker/internal/invoice"
	"fleet_tracker/internal/metrics"
	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/notify"
	"fleet_tracker/internal/session"
	"fleet_tracker/internal/timesheet"
)

// Deps are the services the routes are wired to.
type Deps struct {
	Timesheet      *timesheet.Service
	Sessions       *session.Registry
	Hub            *notify.Hub
	Inspections    *inspection.Service
	Invoices       *invoice.Service
	LogWriter      io.Writer
	AllowedOrigins string
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()

	w := d.LogWriter
	if w == nil {
		w = os.Stdout
	}
	r.Use(
		ginlog.SetLogger(
			ginlog.WithWriter(w),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{"/healthz", "/metrics"}),
		),
		gin.Recovery(),
		middleware.CORS(d.AllowedOrigins),
	)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", metrics.Handler())

	ts := &controllers.TimesheetController{Service: d.Timesheet, Sessions: d.Sessions}
	insp := &controllers.InspectionController{Service: d.Inspections}
	inv := &controllers.InvoiceController{Service: d.Invoices}

	AuthRoutes(r, d.Sessions)
	DriverRoutes(r, ts, insp)
	ManagerRoutes(r, ts, insp, inv)
	WebSocketRoutes(r, d.Hub)

	return r
}
