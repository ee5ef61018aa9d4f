package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/config"
	"github.com/BruksfildServices01/barber-agenda/internal/handlers"
	"github.com/BruksfildServices01/barber-agenda/internal/lock"
	"github.com/BruksfildServices01/barber-agenda/internal/middleware"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
	ucAppointment "github.com/BruksfildServices01/barber-agenda/internal/usecase/appointment"
)

type Deps struct {
	Config *config.Config
	Store  storage.Store
	Locker lock.Locker
	Audit  *audit.Dispatcher

	// AuditReader is nil when the audit sink cannot be queried.
	AuditReader audit.Reader

	// Uploader is nil when photo uploads are not configured.
	Uploader handlers.PhotoUploader
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	cfg := deps.Config

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.AuthMiddleware(tokens, false))

	// ======================================================
	// USE CASES
	// ======================================================
	settings := ucAppointment.Settings{
		Hours:         cfg.BusinessHours,
		Location:      cfg.Location(),
		EnforcePolicy: cfg.EnforceBookingPolicy,
	}

	createAppointmentUC := ucAppointment.NewCreateAppointment(
		deps.Store,
		deps.Locker,
		deps.Audit,
		settings,
	)

	updateAppointmentUC := ucAppointment.NewUpdateAppointment(
		deps.Store,
		deps.Locker,
		deps.Audit,
		settings,
	)

	deleteAppointmentUC := ucAppointment.NewDeleteAppointment(
		deps.Store,
		deps.Audit,
	)

	getAppointmentUC := ucAppointment.NewGetAppointment(deps.Store)
	listAppointmentsUC := ucAppointment.NewListAppointments(deps.Store)
	getAvailabilityUC := ucAppointment.NewGetAvailability(deps.Store, settings)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(deps.Store, tokens, deps.Audit, cfg.CheckEmailDomain)
	barberHandler := handlers.NewBarberHandler(deps.Store, deps.Uploader, deps.Audit)
	serviceHandler := handlers.NewServiceHandler(deps.Store, deps.Audit)

	appointmentHandler := handlers.NewAppointmentHandler(
		createAppointmentUC,
		updateAppointmentUC,
		deleteAppointmentUC,
		getAppointmentUC,
		listAppointmentsUC,
	)

	availabilityHandler := handlers.NewAvailabilityHandler(
		getAvailabilityUC,
		cfg.BusinessHours,
		cfg.Timezone,
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// writes need a token only when AUTH_REQUIRED is set
	var write []gin.HandlerFunc
	if cfg.AuthRequired {
		write = append(write, middleware.AuthMiddleware(tokens, true))
	}

	with := func(h gin.HandlerFunc, mw ...gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, mw...), h)
	}

	// ======================================================
	// PUBLIC
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/business-hours", availabilityHandler.BusinessHours)

	// ------------------------------
	// AUTH
	// ------------------------------
	r.POST("/auth/login", limiter.Limit(), authHandler.Login)
	r.POST("/auth/register", limiter.Limit(), authHandler.Register)
	r.GET("/auth/me", authHandler.Me)

	// ------------------------------
	// BARBERS
	// ------------------------------
	r.GET("/barbers", barberHandler.List)
	r.GET("/barbers/:barberId", barberHandler.Get)
	r.POST("/barbers", with(barberHandler.Create, write...)...)
	r.PUT("/barbers/:barberId", with(barberHandler.Update, write...)...)
	r.DELETE("/barbers/:barberId", with(barberHandler.Delete, write...)...)
	r.POST("/barbers/:barberId/photo", with(barberHandler.UploadPhoto, write...)...)

	r.GET("/barbers/:barberId/availability", availabilityHandler.Get)

	// ------------------------------
	// APPOINTMENTS (public booking is rate limited)
	// ------------------------------
	r.GET("/barbers/:barberId/appointments", appointmentHandler.List)
	r.GET("/barbers/:barberId/appointments/:appointmentId", appointmentHandler.Get)
	r.POST("/barbers/:barberId/appointments", limiter.Limit(), appointmentHandler.Create)
	r.PUT("/barbers/:barberId/appointments/:appointmentId", with(appointmentHandler.Update, write...)...)
	r.DELETE("/barbers/:barberId/appointments/:appointmentId", with(appointmentHandler.Delete, write...)...)

	// ------------------------------
	// SERVICES
	// ------------------------------
	r.GET("/services", serviceHandler.List)
	r.GET("/services/:serviceId", serviceHandler.Get)
	r.POST("/services", with(serviceHandler.Create, write...)...)
	r.PUT("/services/:serviceId", with(serviceHandler.Update, write...)...)
	r.DELETE("/services/:serviceId", with(serviceHandler.Delete, write...)...)

	// ------------------------------
	// AUDIT (admin only, always authenticated)
	// ------------------------------
	if deps.AuditReader != nil {
		auditLogsHandler := handlers.NewAuditLogsHandler(deps.AuditReader, cfg.Timezone)
		r.GET("/audit-logs", middleware.AuthMiddleware(tokens, true), auditLogsHandler.List)
	}
}
