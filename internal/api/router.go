package api

import (
	"jaracar_backend/internal/api/handler"
	"jaracar_backend/internal/api/middleware"
	"jaracar_backend/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(as *service.AuthService, vs *service.VehicleService, rs *service.ReservationService,
	ds *service.DashboardService, authMw *middleware.AuthMiddleware, wsManager *handler.WebSocketManager) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// WebSocket endpoint (không cần auth cho real-time connection)
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		vehicleH := handler.NewVehicleHandler(vs, rs)
		vehicleRoutes := v1.Group("/vehicles")
		{
			vehicleRoutes.POST("", authMw.AuthorizeRole(middleware.RoleAdmin), vehicleH.CreateVehicle)
			vehicleRoutes.GET("", vehicleH.GetAllVehicles)
			vehicleRoutes.GET("/:id", vehicleH.GetVehicleByID)
			vehicleRoutes.PUT("/:id", authMw.AuthorizeRole(middleware.RoleAdmin), vehicleH.UpdateVehicle)
			vehicleRoutes.PUT("/:id/maintenance", authMw.AuthorizeRole(middleware.RoleAdmin), vehicleH.SetMaintenance)
			vehicleRoutes.DELETE("/:id", authMw.AuthorizeRole(middleware.RoleAdmin), vehicleH.DeleteVehicle)

			// Lịch sử dụng xe theo ngày: current/active/past + timeline
			vehicleRoutes.GET("/:id/schedule", vehicleH.GetVehicleSchedule)
		}

		reservationH := handler.NewReservationHandler(rs)
		reservationRoutes := v1.Group("/reservations")
		{
			reservationRoutes.POST("", reservationH.CreateReservation)
			reservationRoutes.GET("", reservationH.FindReservations)
			reservationRoutes.GET("/guest-suggestions", reservationH.GetGuestNameSuggestions)
			reservationRoutes.GET("/:id", reservationH.GetReservationByID)
			reservationRoutes.PUT("/:id/reschedule", reservationH.RescheduleReservation)
			reservationRoutes.PUT("/:id/note", reservationH.SetReservationNote)
			reservationRoutes.POST("/:id/cancel", reservationH.CancelReservation)
			reservationRoutes.POST("/:id/finish", authMw.AuthorizeRole(middleware.RoleAdmin), reservationH.FinishReservationNow)
		}

		dashboardH := handler.NewDashboardHandler(ds)
		dashboardRoutes := v1.Group("/dashboard")
		{
			dashboardRoutes.GET("", dashboardH.GetDashboard)
			dashboardRoutes.POST("/meals", dashboardH.SetMealOrder)
		}
	}
	return r
}
