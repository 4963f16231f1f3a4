package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"clinic-backend/internal/auth"
	"clinic-backend/internal/cache"
	"clinic-backend/internal/config"
	"clinic-backend/internal/database"
	"clinic-backend/internal/db"
	h "clinic-backend/internal/http"
	"clinic-backend/internal/handlers"
	"clinic-backend/internal/health"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/monitoring"
	"clinic-backend/internal/repositories"
	"clinic-backend/internal/services"
	"clinic-backend/internal/timeutil"
	"clinic-backend/migrations"
)

func main() {
	// Parse command-line flags
	port := flag.Int("port", 0, "Server port (overrides config)")
	migrateOnly := flag.Bool("migrate", false, "Run database migrations and exit")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	if err := timeutil.SetLocation(cfg.Payments.Timezone); err != nil {
		log.Fatalf("Invalid payments.timezone %q: %v", cfg.Payments.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	pool, err := db.Connect(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		log.Fatalf("Database unavailable: %v", err)
	}
	defer pool.Close()
	log.Printf("Connected to database %s on %s:%d", cfg.Database.Name, cfg.Database.Host, cfg.Database.Port)

	// Run database migrations
	// Uses embedded migrations for standalone binary operation
	log.Println("Running database migrations...")
	migrator := database.NewMigratorWithFS(pool, migrations.FS, ".")
	migrateCtx, cancelMigrate := context.WithTimeout(ctx, 30*time.Second)
	err = migrator.RunMigrations(migrateCtx)
	cancelMigrate()
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if *migrateOnly {
		log.Println("Migrations complete")
		return
	}

	// Redis is optional - locks and the settings cache fall back to this process
	store, err := cache.New(cfg)
	if err != nil {
		log.Printf("[Redis] Unavailable: %v (using in-process locks and cache)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}
	defer store.Close()

	// Initialize repositories
	clinicRepo := repositories.NewClinicRepository(pool)
	splitRepo := repositories.NewSplitTransactionRepository(pool)
	systemSettingRepo := repositories.NewSystemSettingRepository(pool)

	// Initialize services
	settingsService := services.NewSystemSettingService(systemSettingRepo, store)
	gateway := services.NewRazorpayGateway(cfg, settingsService)

	splitService := services.NewSplitService(
		cfg.Payments,
		services.NewCommissionResolver(clinicRepo, cfg.Payments),
		services.NewReferralResolver(clinicRepo, settingsService, cfg.Payments),
		clinicRepo,
		services.NewTransactionRecorder(splitRepo),
		gateway,
		store,
	)

	archiver, err := services.NewLedgerArchiver(ctx, cfg.Archive)
	if err != nil {
		log.Printf("[Archive] Disabled: %v", err)
	} else if archiver != nil {
		splitService.SetArchiver(archiver)
		log.Printf("[Archive] Copying ledger rows to bucket %s", cfg.Archive.Bucket)
	}

	// Start monitoring server in background; it also receives pipeline alerts
	monitor := monitoring.NewMonitoringServer(pool, cfg.Monitoring.Port)
	monitor.Start(ctx)
	splitService.SetAlertSink(monitor)

	splitService.StartReconciler(ctx, cfg.Payments.ReconcileInterval, cfg.Payments.ReconcileBatch)

	// Initialize handlers and middleware
	jwtManager := auth.NewJWTManager(cfg)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)
	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst)
	corsMiddleware := middleware.NewCORS(cfg)

	paymentHandler := handlers.NewPaymentHandler(
		splitService,
		services.NewReceiptService(cfg.Payments.Currency),
		cfg.Payments.PlatformFeePercent,
		cfg.Payments.ReconcileBatch,
	)
	razorpayHandler := handlers.NewRazorpayHandler(gateway, splitService)
	systemSettingHandler := handlers.NewSystemSettingHandler(settingsService)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool, store))

	router := h.NewRouter(paymentHandler, razorpayHandler, systemSettingHandler, healthHandler, authMiddleware, rateLimiter)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           corsMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := monitor.Shutdown(shutdownCtx); err != nil {
		log.Printf("Monitoring shutdown: %v", err)
	}

	// Let in-flight archive uploads finish before the pool closes
	splitService.Wait()

	log.Println("Server stopped")
}
