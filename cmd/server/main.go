// Package main is the entry point for the Cheques Dentista API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"chequedentista/internal/config"
	"chequedentista/internal/domain/billing"
	"chequedentista/internal/domain/clinic"
	"chequedentista/internal/domain/doctor"
	"chequedentista/internal/domain/patient"
	"chequedentista/internal/domain/reports"
	"chequedentista/internal/domain/ticket"
	"chequedentista/internal/domain/voucher"
	v1 "chequedentista/internal/infrastructure/http/v1"
	"chequedentista/internal/infrastructure/http/v1/middleware"
	"chequedentista/internal/infrastructure/payments"
	"chequedentista/internal/infrastructure/storage/postgres"
	"chequedentista/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional, env vars apply either way)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Development: cfg.Logger.Format == "console",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting chequedentista server")

	// --- PostgreSQL ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.MinConns > 0 {
		poolCfg.MinConns = cfg.Database.MinConns
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	// --- Redis (rate limiting; optional) ---
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warnw("redis unavailable, rate limiting disabled", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
			log.Info("redis connection established")
		}
	}

	// --- Repositories ---
	clinicRepo := postgres.NewClinicRepo(txm)
	voucherRepo := postgres.NewVoucherRepo(txm)
	patientRepo := postgres.NewPatientRepo(txm)
	doctorRepo := postgres.NewDoctorRepo(txm)
	ticketRepo := postgres.NewTicketRepo(txm)
	reportRepo := postgres.NewReportRepo(txm)
	billingRepo, err := postgres.NewBillingRepo(txm)
	if err != nil {
		log.Fatalw("failed to initialize billing store", "error", err)
	}

	// --- Services ---
	gateway := payments.NewStripeGateway(cfg.Stripe)

	clinicService := clinic.NewService(clinicRepo)
	voucherService := voucher.NewService(voucherRepo)
	patientService := patient.NewService(patientRepo)
	doctorService := doctor.NewService(doctorRepo)
	ticketService := ticket.NewService(ticketRepo)
	reportService := reports.NewService(reportRepo)
	billingService := billing.NewService(billingRepo, gateway, txm)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:        log,
		JWTValidator:  middleware.NewHMACValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Pool:          pool,
		Redis:         rdb,
		Clinics:       clinicService,
		Vouchers:      voucherService,
		Patients:      patientService,
		Doctors:       doctorService,
		Tickets:       ticketService,
		Reports:       reportService,
		Billing:       billingService,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
