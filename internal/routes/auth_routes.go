package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_tracker/internal/controllers"
	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/session"
)

func AuthRoutes(r *gin.Engine, sessions *session.Registry) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", controllers.SignupUser)
		auth.POST("/login", controllers.LoginUser)
		auth.POST("/logout", middleware.RequireAuth(), controllers.Logout(sessions))
		auth.GET("/me", middleware.RequireAuth(), controllers.Me)
	}
}
