package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"clinic-backend/internal/models"
	"clinic-backend/internal/split"

	"github.com/jackc/pgx/v5/pgconn"
)

// LedgerStore is the persistence behind the transaction recorder
type LedgerStore interface {
	Insert(ctx context.Context, tx *models.SplitTransaction) (bool, error)
	GetByKey(ctx context.Context, key string) (*models.SplitTransaction, error)
	GetByGatewayPaymentID(ctx context.Context, paymentID string) (*models.SplitTransaction, error)
	AttachGatewayPaymentID(ctx context.Context, key, paymentID string) (bool, error)
	UpdateGatewayOutcome(ctx context.Context, key string, status models.GatewayStatus, gatewayError string, payload models.SplitPayload, settledAt *time.Time) error
	ListPending(ctx context.Context, limit int) ([]*models.SplitTransaction, error)
	GetAll(ctx context.Context, filter *models.SplitTransactionFilter) ([]*models.SplitTransaction, error)
	GetSummary(ctx context.Context, filter *models.SplitTransactionFilter) (*models.SplitSummary, error)
}

// LedgerEntry is everything the recorder writes for one computed split
type LedgerEntry struct {
	Key        string
	Hash       string
	Request    *models.PaymentRequest
	Commission models.CommissionTerms
	Referral   models.ReferralContext
	Split      models.SplitResult
	Outcome    models.GatewayOutcome
}

// TransactionRecorder writes immutable ledger rows, one per uniqueness key
type TransactionRecorder struct {
	store LedgerStore
}

func NewTransactionRecorder(store LedgerStore) *TransactionRecorder {
	return &TransactionRecorder{store: store}
}

// Record persists the entry. When a row with the same key already exists it is
// returned with created=false, provided it was recorded for the same request.
// A split that breaks conservation is refused with a *models.PersistenceError and nothing is written.
func (r *TransactionRecorder) Record(ctx context.Context, e *LedgerEntry) (*models.SplitTransaction, bool, error) {
	if err := split.Verify(e.Request.AmountCents, e.Split); err != nil {
		log.Printf("[Ledger] Refusing to record %s: %v", e.Key, err)
		return nil, false, &models.PersistenceError{Op: "verify", Err: err}
	}
	if !e.Outcome.Status.Valid() {
		return nil, false, &models.PersistenceError{Op: "verify", Err: fmt.Errorf("unknown gateway status %q", e.Outcome.Status)}
	}

	tx := newSplitTransaction(e)

	created, err := r.store.Insert(ctx, tx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			owner := "another key"
			if other, lookupErr := r.store.GetByGatewayPaymentID(ctx, e.Request.GatewayPaymentID); lookupErr == nil {
				owner = other.IdempotencyKey
			}
			return nil, false, &models.PersistenceError{Op: "insert",
				Err: fmt.Errorf("%w: gateway payment %s is already recorded under %s", models.ErrIdempotencyConflict, e.Request.GatewayPaymentID, owner)}
		}
		return nil, false, &models.PersistenceError{Op: "insert", Err: err}
	}
	if created {
		if e.Referral.HasReferral && e.Referral.ReferralPercent > e.Request.PlatformFeePercent {
			log.Printf("[Ledger] %s: referral percent %.4f exceeds platform fee %.4f, referral fee capped at %d",
				e.Key, e.Referral.ReferralPercent, e.Request.PlatformFeePercent, e.Split.ReferralFeeCents)
		}
		return tx, true, nil
	}

	existing, err := r.store.GetByKey(ctx, e.Key)
	if err != nil {
		return nil, false, &models.PersistenceError{Op: "load existing", Err: err}
	}
	if existing.RequestHash != e.Hash {
		return nil, false, models.ErrIdempotencyConflict
	}
	return existing, false, nil
}

// Lookup returns the row for a key, models.ErrNotFound when there is none
func (r *TransactionRecorder) Lookup(ctx context.Context, key string) (*models.SplitTransaction, error) {
	return r.store.GetByKey(ctx, key)
}

// AttachGatewayPaymentID records a gateway payment id that arrived after the row was written
func (r *TransactionRecorder) AttachGatewayPaymentID(ctx context.Context, tx *models.SplitTransaction, paymentID string) error {
	if tx.GatewayPaymentID != nil {
		if *tx.GatewayPaymentID == paymentID {
			return nil
		}
		return fmt.Errorf("%w: row %s already carries gateway payment %s", models.ErrIdempotencyConflict, tx.IdempotencyKey, *tx.GatewayPaymentID)
	}

	attached, err := r.store.AttachGatewayPaymentID(ctx, tx.IdempotencyKey, paymentID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: gateway payment %s is already recorded under another key", models.ErrIdempotencyConflict, paymentID)
		}
		return &models.PersistenceError{Op: "attach gateway payment", Err: err}
	}
	if attached {
		tx.GatewayPaymentID = &paymentID
		log.Printf("[Ledger] Attached gateway payment %s to %s", paymentID, tx.IdempotencyKey)
	}
	return nil
}

// UpdateOutcome stores a later transfer result. Only status, error, transfers and settled_at change.
func (r *TransactionRecorder) UpdateOutcome(ctx context.Context, tx *models.SplitTransaction, outcome models.GatewayOutcome, settledAt *time.Time) error {
	if !outcome.Status.Valid() {
		return &models.PersistenceError{Op: "update outcome", Err: fmt.Errorf("unknown gateway status %q", outcome.Status)}
	}

	payload := tx.SplitPayload
	if outcome.Transfers != nil {
		payload.Transfers = outcome.Transfers
	}
	if err := r.store.UpdateGatewayOutcome(ctx, tx.IdempotencyKey, outcome.Status, outcome.Error, payload, settledAt); err != nil {
		return &models.PersistenceError{Op: "update outcome", Err: err}
	}

	tx.Status = outcome.Status
	tx.GatewayError = outcome.Error
	tx.SplitPayload = payload
	if tx.SettledAt == nil {
		tx.SettledAt = settledAt
	}
	return nil
}

func newSplitTransaction(e *LedgerEntry) *models.SplitTransaction {
	req := e.Request

	tx := &models.SplitTransaction{
		IdempotencyKey:     e.Key,
		RequestHash:        e.Hash,
		ClinicID:           req.ClinicID.String(),
		ProfessionalID:     req.ProfessionalID.String(),
		PaymentMethod:      req.PaymentMethod,
		CommissionModel:    e.Commission.Model,
		CommissionRate:     e.Commission.Rate,
		PlatformFeePercent: req.PlatformFeePercent,

		AmountCents:            req.AmountCents,
		PlatformFeeCents:       e.Split.PlatformFeeCents,
		PlatformFeeTotalCents:  e.Split.PlatformFeeTotalCents,
		ReferralFeeCents:       e.Split.ReferralFeeCents,
		ProfessionalShareCents: e.Split.ProfessionalShareCents,
		ClinicShareCents:       e.Split.ClinicShareCents,

		Status:       e.Outcome.Status,
		GatewayError: e.Outcome.Error,
		SplitPayload: models.SplitPayload{
			Split:      e.Split,
			Commission: e.Commission,
			Referral:   e.Referral,
			Transfers:  e.Outcome.Transfers,
		},
		RequestPayload: *req,
	}

	if req.AppointmentID != nil {
		id := req.AppointmentID.String()
		tx.AppointmentID = &id
	}
	if req.GatewayPaymentID != "" {
		id := req.GatewayPaymentID
		tx.GatewayPaymentID = &id
	}
	if e.Outcome.Status == models.GatewayStatusCompleted {
		now := time.Now()
		tx.SettledAt = &now
	}
	return tx
}

// Pending returns rows whose transfers are still to be retried
func (r *TransactionRecorder) Pending(ctx context.Context, limit int) ([]*models.SplitTransaction, error) {
	return r.store.ListPending(ctx, limit)
}

func (r *TransactionRecorder) List(ctx context.Context, filter *models.SplitTransactionFilter) ([]*models.SplitTransaction, error) {
	return r.store.GetAll(ctx, filter)
}

func (r *TransactionRecorder) Summary(ctx context.Context, filter *models.SplitTransactionFilter) (*models.SplitSummary, error) {
	return r.store.GetSummary(ctx, filter)
}
