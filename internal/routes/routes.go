package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/booking-engine/internal/audit"
	"github.com/BruksfildServices01/booking-engine/internal/config"
	"github.com/BruksfildServices01/booking-engine/internal/handlers"
	infraRepo "github.com/BruksfildServices01/booking-engine/internal/infra/repository"
	"github.com/BruksfildServices01/booking-engine/internal/middleware"
	"github.com/BruksfildServices01/booking-engine/internal/payment"
	ucAppointment "github.com/BruksfildServices01/booking-engine/internal/usecase/appointment"
)

// Deps are the process-wide singletons built in main.
type Deps struct {
	DB      *gorm.DB
	Config  *config.Config
	Audit   *audit.Dispatcher
	Gateway payment.Gateway
	Redis   *redis.Client // nil disables rate limiting
	Log     zerolog.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config

	// ======================================================
	// INFRA
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(d.DB)

	policy := ucAppointment.BookingPolicy{VerifyEmailDomain: cfg.VerifyEmailDomain}

	// ======================================================
	// USE CASES
	// ======================================================
	availabilityUC := ucAppointment.NewGetAvailability(appointmentRepo)

	createBookingUC := ucAppointment.NewCreateBooking(appointmentRepo, d.Audit, policy)

	paymentOrderUC := ucAppointment.NewCreatePaymentOrder(
		appointmentRepo,
		d.Gateway,
		d.Audit,
		policy,
		ucAppointment.PaymentOptions{
			HoldTTL:               cfg.HoldTTL(),
			DefaultDepositPercent: cfg.Payment.DefaultDepositPercent,
			Currency:              cfg.Payment.Currency,
		},
		d.Log,
	)

	callbackUC := ucAppointment.NewHandlePaymentCallback(appointmentRepo, d.Gateway, d.Audit, d.Log)

	completeAppointmentUC := ucAppointment.NewCompleteAppointment(appointmentRepo, d.Audit)
	cancelAppointmentUC := ucAppointment.NewCancelAppointment(appointmentRepo, d.Audit)
	listAppointmentsByDateUC := ucAppointment.NewListAppointmentsByDate(appointmentRepo)
	listAppointmentsByMonthUC := ucAppointment.NewListAppointmentsByMonth(appointmentRepo)

	// ======================================================
	// HANDLERS
	// ======================================================
	healthHandler := handlers.NewHealthHandler(d.DB)
	publicHandler := handlers.NewPublicHandler(availabilityUC, createBookingUC, paymentOrderUC, d.Log)
	webhookHandler := handlers.NewPaymentWebhookHandler(callbackUC, d.Log)

	meHandler := handlers.NewMeHandler(d.DB)
	businessHandler := handlers.NewBusinessHandler(d.DB)
	serviceHandler := handlers.NewServiceHandler(d.DB)
	staffHandler := handlers.NewStaffHandler(d.DB)
	workingHoursHandler := handlers.NewWorkingHoursHandler(appointmentRepo, d.Audit)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)

	appointmentHandler := handlers.NewAppointmentHandler(
		completeAppointmentUC,
		cancelAppointmentUC,
		listAppointmentsByDateUC,
		listAppointmentsByMonthUC,
	)

	// ======================================================
	// OPS
	// ======================================================
	r.GET("/health", healthHandler.Live)
	r.GET("/readyz", healthHandler.Ready)

	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// ======================================================
	// PUBLIC BOOKING
	// ======================================================
	booking := r.Group("/booking/:businessSlug")
	if d.Redis != nil {
		limiter := middleware.NewRateLimiter(d.Redis, cfg.Redis.RateLimitPerMinute, time.Minute, "rl:booking", d.Log)
		booking.Use(limiter.Middleware())
	}
	{
		booking.GET("/availability", publicHandler.Availability)
		booking.POST("/create", publicHandler.Create)
		booking.POST("/payment/order", publicHandler.PaymentOrder)
	}

	r.POST("/payments/webhook", webhookHandler.Handle)

	// ======================================================
	// PROVIDER API
	// ======================================================
	secured := r.Group("/api/me")
	secured.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		secured.GET("", meHandler.GetMe)

		secured.GET("/business", businessHandler.GetMeBusiness)
		secured.PATCH("/business", businessHandler.UpdateMeBusiness)

		secured.GET("/services", serviceHandler.List)
		secured.POST("/services", serviceHandler.Create)
		secured.PATCH("/services/:id", serviceHandler.Update)

		secured.GET("/staff", staffHandler.List)
		secured.POST("/staff", staffHandler.Create)
		secured.PUT("/staff/:staffId/services", staffHandler.AssignServices)

		secured.GET("/staff/:staffId/working-hours", workingHoursHandler.Get)
		secured.PUT("/staff/:staffId/working-hours", workingHoursHandler.Update)

		// ------------------------------
		// APPOINTMENTS
		// ------------------------------
		secured.GET("/appointments", appointmentHandler.ListByDate)
		secured.GET("/appointments/month", appointmentHandler.ListByMonth)
		secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
		secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)

		secured.GET("/audit-logs", auditLogsHandler.List)
	}
}
