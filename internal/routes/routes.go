package routes

import (
	"net/http"

	"hospital-management-server/internal/config"
	"hospital-management-server/internal/handlers"
	"hospital-management-server/internal/metrics"
	"hospital-management-server/internal/middleware"
	"hospital-management-server/internal/models"

	"github.com/gin-gonic/gin"
)

// Handlers bundles the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Users        *handlers.UserHandler
	Doctors      *handlers.DoctorHandler
	Appointments *handlers.AppointmentHandler
	Lab          *handlers.LabHandler
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, h Handlers, cfg *config.Config) {
	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", h.Auth.Register)
			authRoutes.POST("/login", h.Auth.Login)
			authRoutes.POST("/refresh-token", h.Auth.RefreshToken)
			// Logout only needs the refresh token, so an expired access token must not block it
			authRoutes.POST("/logout", h.Auth.Logout)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.GET("/profile", h.Auth.GetProfile)
			authRoutesPrivate.PUT("/profile", h.Auth.UpdateProfile)
		}

		// User management routes (admin only)
		userRoutes := private.Group("/users")
		userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			userRoutes.POST("", h.Users.CreateUser)
			userRoutes.GET("", h.Users.GetUsers)
			userRoutes.GET("/:id", h.Users.GetUserByID)
			userRoutes.PUT("/:id", h.Users.UpdateUser)
			userRoutes.DELETE("/:id", h.Users.DeleteUser)
		}

		// Doctor directory, readable by every authenticated user
		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("", h.Doctors.GetDoctors)
			doctorRoutes.GET("/:id", h.Doctors.GetDoctorByID)
			// Doctors may only edit their own profile, checked in the service
			doctorRoutes.PUT("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), h.Doctors.UpdateDoctor)
		}
		private.GET("/specializations", h.Doctors.GetSpecializations)
		private.POST("/specializations", middleware.RoleAuthMiddleware(models.RoleAdmin), h.Doctors.CreateSpecialization)

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient, models.RoleAdmin), h.Appointments.CreateAppointment)
			appointmentRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor), h.Appointments.GetAppointments)

			mine := appointmentRoutes.Group("/mine")
			mine.Use(middleware.RoleAuthMiddleware(models.RolePatient))
			{
				mine.GET("", h.Appointments.GetMyAppointments)
				mine.PATCH("/:id/cancel", h.Appointments.CancelMyAppointment)
			}

			appointmentRoutes.GET("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleDoctor), h.Appointments.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), h.Appointments.UpdateAppointment)
			appointmentRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), h.Appointments.DeleteAppointment)
		}

		labRoutes := private.Group("/lab")
		{
			requests := labRoutes.Group("/requests")
			requests.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
			{
				requests.POST("", h.Lab.CreateRequest)
				requests.GET("", h.Lab.GetDoctorRequests)
				requests.GET("/:code", h.Lab.GetDoctorRequest)
			}

			queue := labRoutes.Group("/queue")
			{
				queue.GET("", middleware.RoleAuthMiddleware(models.RoleLab, models.RoleAdmin), h.Lab.GetQueue)
				queue.GET("/:code", middleware.RoleAuthMiddleware(models.RoleLab, models.RoleAdmin), h.Lab.GetQueueItem)
				queue.PATCH("/:code/collect", middleware.RoleAuthMiddleware(models.RoleLab), h.Lab.CollectSample)
				queue.PATCH("/:code/complete", middleware.RoleAuthMiddleware(models.RoleLab), h.Lab.CompleteRequest)
			}

			reports := labRoutes.Group("/reports")
			reports.Use(middleware.RoleAuthMiddleware(models.RolePatient))
			{
				reports.GET("", h.Lab.GetMyReports)
				reports.GET("/:code", h.Lab.GetMyReport)
			}
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}
