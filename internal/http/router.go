package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinic-backend/internal/handlers"
	"clinic-backend/internal/middleware"
)

func NewRouter(
	paymentHandler *handlers.PaymentHandler,
	razorpayHandler *handlers.RazorpayHandler,
	systemSettingHandler *handlers.SystemSettingHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery, middleware.MetricsMiddleware, middleware.RequestLogging)

	// Health and metrics (NO AUTHENTICATION REQUIRED)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Razorpay webhook - authenticated by signature, not JWT
	r.HandleFunc("/api/payments/webhook", razorpayHandler.HandleWebhook).Methods("POST")

	// Protected API routes - Payments
	paymentsAPI := r.PathPrefix("/api/payments").Subrouter()
	paymentsAPI.Use(authMiddleware.Authenticate)
	paymentsAPI.Use(rateLimiter.Handler)
	paymentsAPI.HandleFunc("/split", paymentHandler.Split).Methods("POST")
	paymentsAPI.HandleFunc("/preview", paymentHandler.Preview).Methods("POST")
	paymentsAPI.HandleFunc("/transactions", paymentHandler.ListTransactions).Methods("GET")
	paymentsAPI.HandleFunc("/transactions/{key}", paymentHandler.GetTransaction).Methods("GET")
	paymentsAPI.HandleFunc("/transactions/{key}/receipt", paymentHandler.DownloadReceipt).Methods("GET")
	paymentsAPI.HandleFunc("/summary", paymentHandler.GetSummary).Methods("GET")
	paymentsAPI.Handle("/reconcile", authMiddleware.RequireAdmin(http.HandlerFunc(paymentHandler.Reconcile))).Methods("POST")

	// Protected API routes - System Settings (admin only)
	settingsAPI := r.PathPrefix("/api/settings").Subrouter()
	settingsAPI.Use(authMiddleware.Authenticate)
	settingsAPI.Use(authMiddleware.RequireAdmin)
	settingsAPI.HandleFunc("", systemSettingHandler.ListSettings).Methods("GET")
	settingsAPI.HandleFunc("/{key}", systemSettingHandler.GetSetting).Methods("GET")
	settingsAPI.HandleFunc("/{key}", systemSettingHandler.UpdateSetting).Methods("PUT")

	return r
}
