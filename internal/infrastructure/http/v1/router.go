// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"chequedentista/internal/domain/billing"
	"chequedentista/internal/domain/clinic"
	"chequedentista/internal/domain/doctor"
	"chequedentista/internal/domain/patient"
	"chequedentista/internal/domain/reports"
	"chequedentista/internal/domain/ticket"
	"chequedentista/internal/domain/voucher"
	"chequedentista/internal/infrastructure/http/v1/handlers"
	"chequedentista/internal/infrastructure/http/v1/middleware"
	"chequedentista/internal/infrastructure/storage/postgres"
	"chequedentista/pkg/logger"
)

// RouterConfig holds the services and infrastructure the router wires
// into endpoints.
type RouterConfig struct {
	Logger       *logger.Logger
	JWTValidator middleware.JWTValidator

	Pool  *postgres.Pool
	Redis *redis.Client

	Clinics  *clinic.Service
	Vouchers *voucher.Service
	Patients *patient.Service
	Doctors  *doctor.Service
	Tickets  *ticket.Service
	Reports  *reports.Service
	Billing  *billing.Service

	// WebhookSecret verifies payment processor signatures.
	WebhookSecret string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Redis)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	{
		// Webhook: no auth, authenticity comes from the signature.
		webhookHandler := handlers.NewWebhookHandler(base, cfg.Billing, cfg.WebhookSecret)
		api.POST("/billing/webhook", webhookHandler.Handle)

		// Onboarding: authenticated, but no clinic membership yet.
		onboardingHandler := handlers.NewOnboardingHandler(base, cfg.Clinics)
		onboarding := api.Group("/onboarding")
		onboarding.Use(middleware.Auth(cfg.JWTValidator))
		if cfg.Redis != nil {
			limiter := middleware.NewRateLimiter(cfg.Redis, 5, time.Minute)
			onboarding.Use(middleware.RateLimit(limiter, "onboarding"))
		}
		onboarding.POST("/clinics", onboardingHandler.Onboard)

		// Clinic-scoped endpoints.
		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		protected.Use(middleware.ClinicScope(cfg.Clinics))
		if cfg.Redis != nil {
			limiter := middleware.NewRateLimiter(cfg.Redis, 300, time.Minute)
			protected.Use(middleware.RateLimit(limiter, "api"))
		}

		registerVoucherRoutes(protected, base, cfg)
		registerCatalogRoutes(protected, base, cfg)
		registerTicketRoutes(protected, base, cfg)
		registerReportRoutes(protected, base, cfg)
		registerBillingRoutes(protected, base, cfg)
	}

	return router
}

func registerVoucherRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewVoucherHandler(base, cfg.Vouchers)

	vouchers := rg.Group("/vouchers")
	{
		vouchers.POST("", h.Create)
		vouchers.POST("/batch", h.CreateBatch)
		vouchers.GET("", h.List)
		vouchers.GET("/:id", h.Get)
		vouchers.POST("/:id/advance", h.Advance)
		vouchers.POST("/:id/cancel", h.Cancel)
		vouchers.GET("/:id/timeline", h.Timeline)
	}
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	patientHandler := handlers.NewPatientHandler(base, cfg.Patients)
	patients := rg.Group("/patients")
	{
		patients.POST("", patientHandler.Create)
		patients.GET("", patientHandler.List)
		patients.GET("/:id", patientHandler.Get)
		patients.PUT("/:id", patientHandler.Update)
		patients.DELETE("/:id", patientHandler.Delete)
	}

	doctorHandler := handlers.NewDoctorHandler(base, cfg.Doctors)
	doctors := rg.Group("/doctors")
	{
		doctors.POST("", doctorHandler.Create)
		doctors.GET("", doctorHandler.List)
		doctors.GET("/:id", doctorHandler.Get)
		doctors.PUT("/:id", doctorHandler.Update)
		doctors.DELETE("/:id", doctorHandler.Delete)
	}
}

func registerTicketRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewTicketHandler(base, cfg.Tickets)

	tickets := rg.Group("/tickets")
	{
		tickets.POST("", h.Create)
		tickets.GET("", h.List)
		tickets.GET("/:id", h.Get)
		tickets.GET("/:id/history", h.History)
		tickets.POST("/:id/transition", h.Transition)
		tickets.POST("/:id/reopen", h.Reopen)
	}
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReportsHandler(base, cfg.Reports)

	reportGroup := rg.Group("/reports")
	{
		reportGroup.GET("/doctor-metrics", h.DoctorMetrics)
		reportGroup.GET("/status-distribution", h.StatusDistribution)
		reportGroup.GET("/expiring", h.ExpiringVouchers)
		reportGroup.GET("/vouchers/export", h.ExportVouchers)
	}
}

func registerBillingRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewBillingHandler(base, cfg.Billing)

	billingGroup := rg.Group("/billing")
	{
		billingGroup.GET("/subscription", h.Get)
		billingGroup.POST("/checkout", h.Checkout)
		billingGroup.POST("/portal", h.Portal)
		billingGroup.GET("/events", h.Events)
	}
}
