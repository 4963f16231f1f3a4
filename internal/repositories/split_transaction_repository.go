package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clinic-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SplitTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewSplitTransactionRepository(db *pgxpool.Pool) *SplitTransactionRepository {
	return &SplitTransactionRepository{DB: db}
}

const splitTransactionColumns = `
	id, idempotency_key, request_hash,
	clinic_id::text, appointment_id::text, professional_id::text, payment_method,
	commission_model, commission_rate::float8, platform_fee_percent::float8,
	amount_cents, platform_fee_cents, platform_fee_total_cents, referral_fee_cents,
	professional_share_cents, clinic_share_cents,
	status, gateway_payment_id, gateway_error,
	split_payload, request_payload,
	settled_at, created_at
`

func scanSplitTransaction(row pgx.Row) (*models.SplitTransaction, error) {
	tx := &models.SplitTransaction{}
	var splitPayload, requestPayload []byte

	err := row.Scan(
		&tx.ID, &tx.IdempotencyKey, &tx.RequestHash,
		&tx.ClinicID, &tx.AppointmentID, &tx.ProfessionalID, &tx.PaymentMethod,
		&tx.CommissionModel, &tx.CommissionRate, &tx.PlatformFeePercent,
		&tx.AmountCents, &tx.PlatformFeeCents, &tx.PlatformFeeTotalCents, &tx.ReferralFeeCents,
		&tx.ProfessionalShareCents, &tx.ClinicShareCents,
		&tx.Status, &tx.GatewayPaymentID, &tx.GatewayError,
		&splitPayload, &requestPayload,
		&tx.SettledAt, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(splitPayload, &tx.SplitPayload); err != nil {
		return nil, fmt.Errorf("failed to decode split payload for %s: %w", tx.IdempotencyKey, err)
	}
	if err := json.Unmarshal(requestPayload, &tx.RequestPayload); err != nil {
		return nil, fmt.Errorf("failed to decode request payload for %s: %w", tx.IdempotencyKey, err)
	}
	return tx, nil
}

// Insert writes a new ledger row. It returns false without error when a row with the
// same idempotency key already exists; the caller then loads that row.
func (r *SplitTransactionRepository) Insert(ctx context.Context, tx *models.SplitTransaction) (bool, error) {
	splitPayload, err := json.Marshal(tx.SplitPayload)
	if err != nil {
		return false, fmt.Errorf("failed to encode split payload: %w", err)
	}
	requestPayload, err := json.Marshal(tx.RequestPayload)
	if err != nil {
		return false, fmt.Errorf("failed to encode request payload: %w", err)
	}

	query := `
		INSERT INTO split_transactions (
			idempotency_key, request_hash,
			clinic_id, appointment_id, professional_id, payment_method,
			commission_model, commission_rate, platform_fee_percent,
			amount_cents, platform_fee_cents, platform_fee_total_cents, referral_fee_cents,
			professional_share_cents, clinic_share_cents,
			status, gateway_payment_id, gateway_error,
			split_payload, request_payload, settled_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, created_at
	`

	err = r.DB.QueryRow(ctx, query,
		tx.IdempotencyKey, tx.RequestHash,
		tx.ClinicID, tx.AppointmentID, tx.ProfessionalID, tx.PaymentMethod,
		string(tx.CommissionModel), tx.CommissionRate, tx.PlatformFeePercent,
		tx.AmountCents, tx.PlatformFeeCents, tx.PlatformFeeTotalCents, tx.ReferralFeeCents,
		tx.ProfessionalShareCents, tx.ClinicShareCents,
		string(tx.Status), tx.GatewayPaymentID, tx.GatewayError,
		splitPayload, requestPayload, tx.SettledAt,
	).Scan(&tx.ID, &tx.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert split transaction: %w", err)
	}
	return true, nil
}

// GetByKey retrieves a ledger row by idempotency key
func (r *SplitTransactionRepository) GetByKey(ctx context.Context, key string) (*models.SplitTransaction, error) {
	query := `SELECT ` + splitTransactionColumns + ` FROM split_transactions WHERE idempotency_key = $1`

	tx, err := scanSplitTransaction(r.DB.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return tx, err
}

// GetByGatewayPaymentID retrieves a ledger row by the provider's payment id
func (r *SplitTransactionRepository) GetByGatewayPaymentID(ctx context.Context, paymentID string) (*models.SplitTransaction, error) {
	query := `SELECT ` + splitTransactionColumns + ` FROM split_transactions WHERE gateway_payment_id = $1`

	tx, err := scanSplitTransaction(r.DB.QueryRow(ctx, query, paymentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return tx, err
}

// AttachGatewayPaymentID sets the provider payment id on a row that has none yet.
// Returns false when the row already carries one.
func (r *SplitTransactionRepository) AttachGatewayPaymentID(ctx context.Context, key, paymentID string) (bool, error) {
	query := `
		UPDATE split_transactions
		SET gateway_payment_id = $2, updated_at = CURRENT_TIMESTAMP
		WHERE idempotency_key = $1 AND gateway_payment_id IS NULL
	`

	tag, err := r.DB.Exec(ctx, query, key, paymentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateGatewayOutcome stores the result of a (re)tried transfer execution.
// Amount columns are never touched.
func (r *SplitTransactionRepository) UpdateGatewayOutcome(ctx context.Context, key string, status models.GatewayStatus, gatewayError string, payload models.SplitPayload, settledAt *time.Time) error {
	splitPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode split payload: %w", err)
	}

	query := `
		UPDATE split_transactions
		SET status = $2,
		    gateway_error = $3,
		    split_payload = $4,
		    settled_at = COALESCE(settled_at, $5),
		    updated_at = CURRENT_TIMESTAMP
		WHERE idempotency_key = $1
	`

	tag, err := r.DB.Exec(ctx, query, key, string(status), gatewayError, splitPayload, settledAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListPending returns rows whose transfers still need to be retried, oldest first
func (r *SplitTransactionRepository) ListPending(ctx context.Context, limit int) ([]*models.SplitTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + splitTransactionColumns + `
		FROM split_transactions
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.DB.Query(ctx, query, string(models.GatewayStatusPending), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*models.SplitTransaction
	for rows.Next() {
		tx, err := scanSplitTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func buildSplitFilter(filter *models.SplitTransactionFilter) (string, []interface{}) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if filter.ClinicID != "" {
		whereClause += fmt.Sprintf(" AND clinic_id = $%d", argNum)
		args = append(args, filter.ClinicID)
		argNum++
	}
	if filter.ProfessionalID != "" {
		whereClause += fmt.Sprintf(" AND professional_id = $%d", argNum)
		args = append(args, filter.ProfessionalID)
		argNum++
	}
	if filter.Status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}
	if filter.StartDate != nil {
		whereClause += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, *filter.StartDate)
		argNum++
	}
	if filter.EndDate != nil {
		whereClause += fmt.Sprintf(" AND created_at < $%d", argNum)
		args = append(args, *filter.EndDate)
	}

	return whereClause, args
}

// GetAll returns ledger rows matching the filter, newest first
func (r *SplitTransactionRepository) GetAll(ctx context.Context, filter *models.SplitTransactionFilter) ([]*models.SplitTransaction, error) {
	whereClause, args := buildSplitFilter(filter)

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s
		FROM split_transactions
		%s
		ORDER BY created_at DESC
		LIMIT %d OFFSET %d
	`, splitTransactionColumns, whereClause, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*models.SplitTransaction
	for rows.Next() {
		tx, err := scanSplitTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// GetSummary aggregates ledger rows matching the filter
func (r *SplitTransactionRepository) GetSummary(ctx context.Context, filter *models.SplitTransactionFilter) (*models.SplitSummary, error) {
	whereClause, args := buildSplitFilter(filter)

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'simulated'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE settled_at IS NOT NULL),
			COALESCE(SUM(amount_cents), 0),
			COALESCE(SUM(platform_fee_cents), 0),
			COALESCE(SUM(referral_fee_cents), 0),
			COALESCE(SUM(professional_share_cents), 0),
			COALESCE(SUM(clinic_share_cents), 0)
		FROM split_transactions
		%s
	`, whereClause)

	s := &models.SplitSummary{}
	err := r.DB.QueryRow(ctx, query, args...).Scan(
		&s.TotalTransactions,
		&s.CompletedTransactions,
		&s.PendingTransactions,
		&s.SimulatedTransactions,
		&s.FailedTransactions,
		&s.SettledTransactions,
		&s.TotalAmountCents,
		&s.PlatformFeeCents,
		&s.ReferralFeeCents,
		&s.ProfessionalShareCents,
		&s.ClinicShareCents,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get split summary: %w", err)
	}
	return s, nil
}
