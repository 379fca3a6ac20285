package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cpg716/SuitSync-sub003/internal/audit"
	"github.com/cpg716/SuitSync-sub003/internal/config"
	"github.com/cpg716/SuitSync-sub003/internal/handlers"
	infraRepo "github.com/cpg716/SuitSync-sub003/internal/infra/repository"
	"github.com/cpg716/SuitSync-sub003/internal/jobs"
	"github.com/cpg716/SuitSync-sub003/internal/middleware"
	ucAppointment "github.com/cpg716/SuitSync-sub003/internal/usecase/appointment"
	ucNotification "github.com/cpg716/SuitSync-sub003/internal/usecase/notification"
	"github.com/cpg716/SuitSync-sub003/internal/usecase/progress"
	"github.com/cpg716/SuitSync-sub003/internal/usecase/workflow"
)

// Services are the long-lived singletons built by cmd/api.
type Services struct {
	Appointments *infraRepo.AppointmentGormRepository
	Scheduler    *ucNotification.Scheduler
	Tokens       *ucNotification.ActionTokens
	Engine       *workflow.Engine
	Progress     *progress.Deriver
	Complete     *ucAppointment.CompleteAppointment
	Cancel       *ucAppointment.CancelAppointment
	Runner       *jobs.Runner
	Audit        *audit.Dispatcher
	Location     *time.Location
}

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, svc Services) {

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ======================================================
	// HANDLERS
	// ======================================================
	appointmentHandler := handlers.NewAppointmentHandler(
		svc.Complete,
		svc.Cancel,
		svc.Engine,
		svc.Scheduler,
		svc.Location,
	)
	progressHandler := handlers.NewProgressHandler(svc.Progress, svc.Location)
	jobsHandler := handlers.NewJobsHandler(svc.Runner)
	settingsHandler := handlers.NewSettingsHandler(svc.Appointments, svc.Audit)
	publicHandler := handlers.NewPublicHandler(svc.Tokens, svc.Cancel, svc.Appointments)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)
	meHandler := handlers.NewMeHandler(db)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC (signed links)
		// ------------------------------
		publicAPI := api.Group("/public")
		{
			publicAPI.GET("/appointments/cancel", publicHandler.ConfirmCancel)
			publicAPI.POST("/appointments/cancel", publicHandler.Cancel)
			publicAPI.GET("/appointments/reschedule", publicHandler.Reschedule)
		}

		// ------------------------------
		// STAFF
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)

			secured.GET("/progress", progressHandler.Get)
			secured.GET("/parties/:id/progress", progressHandler.Party)
			secured.GET("/timeline", progressHandler.Timeline)
			secured.GET("/timeline/suggest", progressHandler.Suggest)

			secured.POST("/appointments/:id/complete", appointmentHandler.Complete)
			secured.POST("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.POST("/appointments/:id/reminders", appointmentHandler.ScheduleReminders)
			secured.POST("/appointments/:id/pickup-ready", appointmentHandler.PickupReady)
			secured.POST("/parties/:id/members/:memberId/appointments", appointmentHandler.ScheduleNext)

			secured.POST("/notifications/process", jobsHandler.ProcessNotifications)

			secured.GET("/jobs", jobsHandler.List)
			secured.POST("/jobs/:name/run", jobsHandler.Run)
			secured.POST("/jobs/:name/start", jobsHandler.Start)
			secured.DELETE("/jobs/:name", jobsHandler.Stop)

			secured.GET("/settings", settingsHandler.Get)
			secured.PUT("/settings", settingsHandler.Update)

			secured.GET("/audit-logs", auditLogsHandler.List)
		}
	}
}
