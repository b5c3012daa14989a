package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/notify"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the CORS middleware
	},
}

// NoticeSocket streams compliance notices. Drivers get their own; managers
// and admins get every driver's.
func NoticeSocket(hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, _ := middleware.CurrentAuth(c)
		subscription := a.DriverID
		switch a.Role {
		case models.RoleManager, models.RoleAdmin:
			subscription = notify.AllDrivers
		default:
			if a.DriverID == 0 {
				c.JSON(http.StatusForbidden, gin.H{"error": "No driver profile for this account."})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.WithError(err).Error("Failed to upgrade connection to WebSocket")
			return
		}
		defer conn.Close()

		logrus.WithFields(logrus.Fields{
			"user_id":  a.UserID,
			"role":     a.Role,
			"conn_ptr": fmt.Sprintf("%p", conn),
		}).Info("Notice WebSocket connected")
		hub.Serve(conn, subscription)
	}
}
