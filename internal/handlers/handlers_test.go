package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clinic-backend/internal/auth"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"

	"github.com/gorilla/mux"
)

const (
	clinicA      = "0b8f6a8e-2a43-4c55-9a2e-3c1c1a1d0001"
	clinicB      = "0b8f6a8e-2a43-4c55-9a2e-3c1c1a1d0002"
	professional = "5d1c1f7e-6b3a-4e8f-8f3c-7a7a7a7a0001"
)

type fakeSplits struct {
	processErr error
	got        *models.PaymentRequest
	filter     *models.SplitTransactionFilter
	rows       map[string]*models.SplitTransaction
	reconciled int
}

func (f *fakeSplits) Process(ctx context.Context, req *models.PaymentRequest) (*models.SplitResponse, error) {
	f.got = req
	if f.processErr != nil {
		return nil, f.processErr
	}
	return &models.SplitResponse{
		OK:      true,
		Split:   models.SplitResult{PlatformFeeCents: 599, PlatformFeeTotalCents: 599, ProfessionalShareCents: 6581, ClinicShareCents: 2820},
		Gateway: models.GatewaySummary{Status: models.GatewayStatusSimulated},
	}, nil
}

func (f *fakeSplits) Preview(ctx context.Context, req *models.PaymentRequest) (*models.SplitResponse, error) {
	return f.Process(ctx, req)
}

func (f *fakeSplits) ListTransactions(ctx context.Context, filter *models.SplitTransactionFilter) ([]*models.SplitTransaction, error) {
	f.filter = filter
	return nil, nil
}

func (f *fakeSplits) GetTransaction(ctx context.Context, key string) (*models.SplitTransaction, error) {
	if tx, ok := f.rows[key]; ok {
		return tx, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeSplits) GetSummary(ctx context.Context, filter *models.SplitTransactionFilter) (*models.SplitSummary, error) {
	f.filter = filter
	return &models.SplitSummary{TotalTransactions: 3}, nil
}

func (f *fakeSplits) ReconcilePending(ctx context.Context, limit int) (*models.ReconcileResult, error) {
	f.reconciled = limit
	return &models.ReconcileResult{Checked: 1, Completed: 1}, nil
}

type fakeReceipts struct{}

func (fakeReceipts) GenerateReceiptPDF(tx *models.SplitTransaction) ([]byte, error) {
	return []byte("%PDF-1.3 fake"), nil
}

func newPaymentRouter(svc *fakeSplits, claims *auth.Claims) http.Handler {
	h := NewPaymentHandler(svc, fakeReceipts{}, 0.0599, 50)
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if claims != nil {
				req = req.WithContext(middleware.WithClaims(req.Context(), claims))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.HandleFunc("/api/payments/split", h.Split).Methods("POST")
	r.HandleFunc("/api/payments/preview", h.Preview).Methods("POST")
	r.HandleFunc("/api/payments/transactions", h.ListTransactions).Methods("GET")
	r.HandleFunc("/api/payments/transactions/{key}", h.GetTransaction).Methods("GET")
	r.HandleFunc("/api/payments/transactions/{key}/receipt", h.DownloadReceipt).Methods("GET")
	r.HandleFunc("/api/payments/summary", h.GetSummary).Methods("GET")
	r.HandleFunc("/api/payments/reconcile", h.Reconcile).Methods("POST")
	return r
}

func splitBody(clinicID string) string {
	return `{"clinic_id":"` + clinicID + `","professional_id":"` + professional + `","amount_cents":10000,"commission_rate":0.3}`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.OK || body.Error == "" {
		t.Errorf("error body = %+v", body)
	}
	return body
}

func TestSplitSuccess(t *testing.T) {
	svc := &fakeSplits{}
	router := newPaymentRouter(svc, &auth.Claims{Role: auth.RoleService})

	req := httptest.NewRequest(http.MethodPost, "/api/payments/split", strings.NewReader(splitBody(clinicA)))
	req.Header.Set("Idempotency-Key", "order-77")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp models.SplitResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Split.ClinicShareCents != 2820 {
		t.Errorf("response = %+v", resp)
	}
	if svc.got.IdempotencyKey != "order-77" || svc.got.PlatformFeePercent != 0.0599 {
		t.Errorf("normalized request = %+v", svc.got)
	}
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		claims *auth.Claims
		err    error
		want   int
	}{
		{"malformed json", `{"clinic_id":`, nil, nil, http.StatusBadRequest},
		{"validation", `{"clinic_id":"nope","professional_id":"` + professional + `","amount_cents":1}`, nil, nil, http.StatusBadRequest},
		{"resolution", splitBody(clinicA), nil, &models.ResolutionError{Entity: "professional", ID: professional, Err: models.ErrNotFound}, http.StatusBadRequest},
		{"conflict", splitBody(clinicA), nil, &models.PersistenceError{Op: "insert", Err: models.ErrIdempotencyConflict}, http.StatusConflict},
		{"busy", splitBody(clinicA), nil, models.ErrLockNotAcquired, http.StatusConflict},
		{"infra", splitBody(clinicA), nil, &models.PersistenceError{Op: "insert", Err: errors.New("conn reset")}, http.StatusInternalServerError},
		{"other clinic", splitBody(clinicB), &auth.Claims{Role: auth.RoleClinic, ClinicID: clinicA}, nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSplits{processErr: tt.err}
			req := httptest.NewRequest(http.MethodPost, "/api/payments/split", strings.NewReader(tt.body))
			req.Header.Set("Idempotency-Key", "k")
			w := httptest.NewRecorder()
			newPaymentRouter(svc, tt.claims).ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			decodeError(t, w)
		})
	}
}

func TestListTransactionsScopesClinicTokens(t *testing.T) {
	svc := &fakeSplits{}
	router := newPaymentRouter(svc, &auth.Claims{Role: auth.RoleClinic, ClinicID: clinicA})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/transactions?status=pending&start_date=2026-01-01&end_date=2026-01-31&limit=10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	f := svc.filter
	if f.ClinicID != clinicA || f.Status != "pending" || f.Limit != 10 {
		t.Errorf("filter = %+v", f)
	}
	if f.StartDate == nil || f.EndDate == nil || f.EndDate.Sub(*f.StartDate).Hours() != 31*24 {
		t.Errorf("date range = %v .. %v", f.StartDate, f.EndDate)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/transactions?clinic_id="+clinicB, nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("other clinic: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/transactions?status=bogus", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad status filter: status = %d", w.Code)
	}
}

func TestListTransactionsRejectsMalformedIDs(t *testing.T) {
	admin := &auth.Claims{Role: auth.RoleAdmin}
	for _, query := range []string{
		"clinic_id=not-a-uuid",
		"professional_id=42",
		"clinic_id=" + clinicA + "&professional_id=x",
	} {
		t.Run(query, func(t *testing.T) {
			svc := &fakeSplits{}
			for _, path := range []string{"/api/payments/transactions?", "/api/payments/summary?"} {
				w := httptest.NewRecorder()
				newPaymentRouter(svc, admin).ServeHTTP(w, httptest.NewRequest(http.MethodGet, path+query, nil))
				if w.Code != http.StatusBadRequest {
					t.Errorf("%s%s: status = %d, want 400", path, query, w.Code)
				}
				decodeError(t, w)
			}
			if svc.filter != nil {
				t.Errorf("service queried with %+v", svc.filter)
			}
		})
	}
}

func TestGetTransactionAndReceipt(t *testing.T) {
	key := "key:order-77"
	svc := &fakeSplits{rows: map[string]*models.SplitTransaction{
		key: {ID: 9, IdempotencyKey: key, ClinicID: clinicA},
	}}

	w := httptest.NewRecorder()
	newPaymentRouter(svc, &auth.Claims{Role: auth.RoleClinic, ClinicID: clinicA}).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/transactions/"+key, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("own clinic: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	newPaymentRouter(svc, &auth.Claims{Role: auth.RoleClinic, ClinicID: clinicB}).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/transactions/"+key, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("other clinic: status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	newPaymentRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/transactions/key:missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	newPaymentRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/transactions/"+key+"/receipt", nil))
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("receipt: status = %d type = %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("receipt body is not a PDF")
	}
}

func TestSummaryAndReconcile(t *testing.T) {
	svc := &fakeSplits{}
	router := newPaymentRouter(svc, &auth.Claims{Role: auth.RoleAdmin})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/summary?clinic_id="+clinicB, nil))
	if w.Code != http.StatusOK || svc.filter.ClinicID != clinicB {
		t.Errorf("summary: status = %d filter = %+v", w.Code, svc.filter)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/payments/reconcile?limit=5", nil))
	if w.Code != http.StatusOK || svc.reconciled != 5 {
		t.Errorf("reconcile: status = %d limit = %d", w.Code, svc.reconciled)
	}
}

type fakeWebhooks struct {
	valid  bool
	event  string
	entity map[string]interface{}
	err    error
}

func (f *fakeWebhooks) VerifyWebhookSignature(ctx context.Context, body []byte, signature string) bool {
	return f.valid && signature == "sig"
}

func (f *fakeWebhooks) ProcessWebhook(ctx context.Context, event string, payload map[string]interface{}) error {
	f.event = event
	f.entity = payload
	return f.err
}

func TestHandleWebhook(t *testing.T) {
	body := `{"event":"transfer.processed","payload":{"transfer":{"entity":{"id":"trf_1"}}}}`

	tests := []struct {
		name      string
		valid     bool
		signature string
		body      string
		err       error
		want      int
	}{
		{"bad signature", true, "nope", body, nil, http.StatusUnauthorized},
		{"no secret configured", false, "sig", body, nil, http.StatusUnauthorized},
		{"invalid json", true, "sig", `{`, nil, http.StatusBadRequest},
		{"applied", true, "sig", body, nil, http.StatusOK},
		{"store down", true, "sig", body, errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeWebhooks{valid: tt.valid, err: tt.err}
			h := NewRazorpayHandler(f, f)
			req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(tt.body))
			req.Header.Set("X-Razorpay-Signature", tt.signature)
			w := httptest.NewRecorder()
			h.HandleWebhook(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK {
				if f.event != "transfer.processed" || f.entity["transfer"] == nil {
					t.Errorf("processed %q with %v", f.event, f.entity)
				}
			}
		})
	}
}

type fakeSettings struct {
	values  map[string]string
	updated string
	by      string
}

func (f *fakeSettings) GetSetting(ctx context.Context, key string) (*models.SystemSetting, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.SystemSetting{SettingKey: key, SettingValue: v}, nil
}

func (f *fakeSettings) ListSettings(ctx context.Context) ([]*models.SystemSetting, error) {
	var out []*models.SystemSetting
	for k, v := range f.values {
		out = append(out, &models.SystemSetting{SettingKey: k, SettingValue: v})
	}
	return out, nil
}

func (f *fakeSettings) UpsertSetting(ctx context.Context, key, value, description, updatedBy string) error {
	if key == models.SettingReferralFeePercent && value == "2" {
		return models.NewValidationError("setting_value", "must be between 0 and 1")
	}
	f.values[key] = value
	f.updated = key
	f.by = updatedBy
	return nil
}

func TestSettingsHandler(t *testing.T) {
	svc := &fakeSettings{values: map[string]string{
		models.SettingRazorpayKeySecret:  "very-secret",
		models.SettingReferralFeePercent: "0.0233",
	}}
	h := NewSystemSettingHandler(svc)
	r := mux.NewRouter()
	r.HandleFunc("/api/settings", h.ListSettings).Methods("GET")
	r.HandleFunc("/api/settings/{key}", h.GetSetting).Methods("GET")
	r.HandleFunc("/api/settings/{key}", h.UpdateSetting).Methods("PUT")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings/"+models.SettingRazorpayKeySecret, nil))
	var setting models.SystemSetting
	json.NewDecoder(w.Body).Decode(&setting)
	if w.Code != http.StatusOK || setting.SettingValue == "very-secret" {
		t.Errorf("secret setting leaked: %d %+v", w.Code, setting)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	if strings.Contains(w.Body.String(), "very-secret") {
		t.Error("list leaked a secret")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown key: status = %d", w.Code)
	}

	put := func(value string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/settings/"+models.SettingReferralFeePercent,
			strings.NewReader(`{"setting_value":"`+value+`"}`))
		claims := &auth.Claims{Role: auth.RoleAdmin}
		claims.Subject = "ops@platform"
		req = req.WithContext(middleware.WithClaims(req.Context(), claims))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := put("0.03"); w.Code != http.StatusOK || svc.by != "ops@platform" {
		t.Errorf("update: status = %d by = %q", w.Code, svc.by)
	}
	if w := put("2"); w.Code != http.StatusBadRequest {
		t.Errorf("invalid update: status = %d", w.Code)
	}
}
