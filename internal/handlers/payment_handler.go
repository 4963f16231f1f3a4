package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"clinic-backend/internal/auth"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/models"
	"clinic-backend/internal/services"
	"clinic-backend/internal/timeutil"
	"clinic-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxSplitBody = 64 << 10

// SplitAPI is the part of *services.SplitService the payment endpoints use
type SplitAPI interface {
	Process(ctx context.Context, req *models.PaymentRequest) (*models.SplitResponse, error)
	Preview(ctx context.Context, req *models.PaymentRequest) (*models.SplitResponse, error)
	ListTransactions(ctx context.Context, filter *models.SplitTransactionFilter) ([]*models.SplitTransaction, error)
	GetTransaction(ctx context.Context, key string) (*models.SplitTransaction, error)
	GetSummary(ctx context.Context, filter *models.SplitTransactionFilter) (*models.SplitSummary, error)
	ReconcilePending(ctx context.Context, limit int) (*models.ReconcileResult, error)
}

// ReceiptRenderer is satisfied by *services.ReceiptService
type ReceiptRenderer interface {
	GenerateReceiptPDF(tx *models.SplitTransaction) ([]byte, error)
}

type PaymentHandler struct {
	Service            SplitAPI
	Receipts           ReceiptRenderer
	PlatformFeePercent float64
	ReconcileBatch     int
}

func NewPaymentHandler(service SplitAPI, receipts ReceiptRenderer, platformFeePercent float64, reconcileBatch int) *PaymentHandler {
	return &PaymentHandler{
		Service:            service,
		Receipts:           receipts,
		PlatformFeePercent: platformFeePercent,
		ReconcileBatch:     reconcileBatch,
	}
}

// Split computes, executes and records the split of one payment
// POST /api/payments/split
func (h *PaymentHandler) Split(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Process(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// Preview computes the split without moving money or recording anything
// POST /api/payments/preview
func (h *PaymentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Preview(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *PaymentHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*models.PaymentRequest, bool) {
	var body models.SplitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSplitBody))
	if err := dec.Decode(&body); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	req, err := services.NormalizeSplitRequest(&body, r.Header.Get("Idempotency-Key"), h.PlatformFeePercent)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}

	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok && !claims.CanAccessClinic(req.ClinicID.String()) {
		utils.Error(w, http.StatusForbidden, "Forbidden: payment belongs to another clinic")
		return nil, false
	}
	return req, true
}

// ListTransactions returns ledger rows. Clinic tokens only see their own clinic.
// GET /api/payments/transactions
func (h *PaymentHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !scopeFilter(w, r, filter) {
		return
	}

	transactions, err := h.Service.ListTransactions(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if transactions == nil {
		transactions = []*models.SplitTransaction{}
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"ok":           true,
		"transactions": transactions,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

// GetTransaction returns one ledger row by uniqueness key
// GET /api/payments/transactions/{key}
func (h *PaymentHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.loadTransaction(w, r)
	if !ok {
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "transaction": tx})
}

// DownloadReceipt renders the split statement of one ledger row
// GET /api/payments/transactions/{key}/receipt
func (h *PaymentHandler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.loadTransaction(w, r)
	if !ok {
		return
	}

	pdf, err := h.Receipts.GenerateReceiptPDF(tx)
	if err != nil {
		log.Printf("[Receipt] %s: %v", tx.IdempotencyKey, err)
		utils.Error(w, http.StatusInternalServerError, "Failed to generate receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=split-%d.pdf", tx.ID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Write(pdf)
}

func (h *PaymentHandler) loadTransaction(w http.ResponseWriter, r *http.Request) (*models.SplitTransaction, bool) {
	key := mux.Vars(r)["key"]
	if key == "" {
		utils.Error(w, http.StatusBadRequest, "transaction key is required")
		return nil, false
	}

	tx, err := h.Service.GetTransaction(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	// other clinics' rows are reported as missing
	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok && !claims.CanAccessClinic(tx.ClinicID) {
		writeServiceError(w, models.ErrNotFound)
		return nil, false
	}
	return tx, true
}

// GetSummary aggregates ledger rows for financial reports
// GET /api/payments/summary
func (h *PaymentHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !scopeFilter(w, r, filter) {
		return
	}

	summary, err := h.Service.GetSummary(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "summary": summary})
}

// Reconcile retries pending transfers now instead of waiting for the ticker (admin)
// POST /api/payments/reconcile
func (h *PaymentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	limit := h.ReconcileBatch
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	result, err := h.Service.ReconcilePending(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"ok": true, "result": result})
}

func parseFilter(r *http.Request) (*models.SplitTransactionFilter, error) {
	q := r.URL.Query()
	filter := &models.SplitTransactionFilter{
		ClinicID:       strings.TrimSpace(q.Get("clinic_id")),
		ProfessionalID: strings.TrimSpace(q.Get("professional_id")),
		Limit:          50,
	}

	for field, value := range map[string]string{"clinic_id": filter.ClinicID, "professional_id": filter.ProfessionalID} {
		if value == "" {
			continue
		}
		if _, err := uuid.Parse(value); err != nil {
			return nil, models.NewValidationError(field, "must be a UUID")
		}
	}

	if status := q.Get("status"); status != "" {
		if !models.GatewayStatus(status).Valid() {
			return nil, models.NewValidationError("status", "unknown status %q", status)
		}
		filter.Status = status
	}

	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if o := q.Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	if startDate := q.Get("start_date"); startDate != "" {
		t, err := timeutil.ParseDate(startDate)
		if err != nil {
			return nil, models.NewValidationError("start_date", "must be YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if endDate := q.Get("end_date"); endDate != "" {
		t, err := timeutil.ParseDate(endDate)
		if err != nil {
			return nil, models.NewValidationError("end_date", "must be YYYY-MM-DD")
		}
		// inclusive of the whole end day
		next := t.AddDate(0, 0, 1)
		filter.EndDate = &next
	}
	return filter, nil
}

// scopeFilter pins clinic tokens to their own clinic
func scopeFilter(w http.ResponseWriter, r *http.Request, filter *models.SplitTransactionFilter) bool {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok || claims.Role != auth.RoleClinic {
		return true
	}
	if filter.ClinicID != "" && filter.ClinicID != claims.ClinicID {
		utils.Error(w, http.StatusForbidden, "Forbidden: other clinic")
		return false
	}
	filter.ClinicID = claims.ClinicID
	return true
}

// writeServiceError maps the error taxonomy onto HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var validation *models.ValidationError
	var resolution *models.ResolutionError

	switch {
	case errors.As(err, &validation):
		utils.Error(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &resolution):
		utils.Error(w, http.StatusBadRequest, resolution.Error())
	case errors.Is(err, models.ErrIdempotencyConflict):
		utils.Error(w, http.StatusConflict, models.ErrIdempotencyConflict.Error())
	case errors.Is(err, models.ErrLockNotAcquired):
		w.Header().Set("Retry-After", "1")
		utils.Error(w, http.StatusConflict, models.ErrLockNotAcquired.Error())
	case errors.Is(err, models.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "transaction not found")
	default:
		log.Printf("[Split] Request failed: %v", err)
		utils.Error(w, http.StatusInternalServerError, "internal error")
	}
}
