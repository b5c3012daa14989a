package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_tracker/internal/controllers"
	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/notify"
)

func WebSocketRoutes(r *gin.Engine, hub *notify.Hub) {
	wsRoutes := r.Group("/ws")
	wsRoutes.Use(middleware.RequireAuth())
	{
		wsRoutes.GET("/notices", controllers.NoticeSocket(hub))
	}
}
