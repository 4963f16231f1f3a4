package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clinic-backend/internal/auth"
	"clinic-backend/internal/config"
	"clinic-backend/internal/handlers"
	"clinic-backend/internal/health"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/services"
)

type stubSplits struct{}

func (stubSplits) Process(ctx context.Context, req *models.PaymentRequest) (*models.SplitResponse, error) {
	return &models.SplitResponse{}, nil
}
func (stubSplits) Preview(ctx context.Context, req *models.PaymentRequest) (*models.SplitResponse, error) {
	return &models.SplitResponse{}, nil
}
func (stubSplits) ListTransactions(ctx context.Context, filter *models.SplitTransactionFilter) ([]*models.SplitTransaction, error) {
	return nil, nil
}
func (stubSplits) GetTransaction(ctx context.Context, key string) (*models.SplitTransaction, error) {
	return nil, models.ErrNotFound
}
func (stubSplits) GetSummary(ctx context.Context, filter *models.SplitTransactionFilter) (*models.SplitSummary, error) {
	return &models.SplitSummary{}, nil
}
func (stubSplits) ReconcilePending(ctx context.Context, limit int) (*models.ReconcileResult, error) {
	return &models.ReconcileResult{}, nil
}
func (stubSplits) ProcessWebhook(ctx context.Context, event string, payload map[string]interface{}) error {
	return nil
}

type acceptAll struct{}

func (acceptAll) VerifyWebhookSignature(ctx context.Context, body []byte, signature string) bool {
	return true
}

type stubSettings struct{}

func (stubSettings) GetSetting(ctx context.Context, key string) (*models.SystemSetting, error) {
	return nil, models.ErrNotFound
}
func (stubSettings) ListSettings(ctx context.Context) ([]*models.SystemSetting, error) {
	return nil, nil
}
func (stubSettings) UpsertSetting(ctx context.Context, key, value, description, updatedBy string) error {
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.JWTManager) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.Issuer = "clinic-auth"
	jwtManager := auth.NewJWTManager(cfg)

	router := NewRouter(
		handlers.NewPaymentHandler(stubSplits{}, services.NewReceiptService("INR"), 0.0599, 10),
		handlers.NewRazorpayHandler(acceptAll{}, stubSplits{}),
		handlers.NewSystemSettingHandler(stubSettings{}),
		handlers.NewHealthHandler(health.NewHealthChecker(nil, nil)),
		middleware.NewAuthMiddleware(jwtManager),
		middleware.NewRateLimiter(100, 100),
	)
	return router, jwtManager
}

func TestRouterAccessRules(t *testing.T) {
	router, jwtManager := newTestRouter(t)

	token := func(role, clinicID string) string {
		tok, err := jwtManager.GenerateToken("tester", clinicID, role)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		return tok
	}
	admin := token(auth.RoleAdmin, "")
	clinic := token(auth.RoleClinic, "clinicA")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		want   int
	}{
		{"liveness", "GET", "/health", "", "", http.StatusOK},
		{"readiness without database", "GET", "/health/ready", "", "", http.StatusServiceUnavailable},
		{"metrics", "GET", "/metrics", "", "", http.StatusOK},
		{"webhook needs no token", "POST", "/api/payments/webhook", `{"event":"payment.captured","payload":{}}`, "", http.StatusOK},
		{"summary needs a token", "GET", "/api/payments/summary", "", "", http.StatusUnauthorized},
		{"summary for clinic", "GET", "/api/payments/summary", "", clinic, http.StatusOK},
		{"unknown transaction", "GET", "/api/payments/transactions/key:missing", "", admin, http.StatusNotFound},
		{"reconcile is admin only", "POST", "/api/payments/reconcile", "", clinic, http.StatusForbidden},
		{"reconcile as admin", "POST", "/api/payments/reconcile", "", admin, http.StatusOK},
		{"settings are admin only", "GET", "/api/settings", "", clinic, http.StatusForbidden},
		{"settings as admin", "GET", "/api/settings", "", admin, http.StatusOK},
		{"garbage token", "GET", "/api/settings", "", "not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
