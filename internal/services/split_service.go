package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"clinic-backend/internal/cache"
	"clinic-backend/internal/config"
	"clinic-backend/internal/metrics"
	"clinic-backend/internal/models"
	"clinic-backend/internal/split"

	"golang.org/x/sync/errgroup"
)

// ClinicStore is the clinic directory
type ClinicStore interface {
	Get(ctx context.Context, id string) (*models.Clinic, error)
}

// KeyLocker serializes work on one uniqueness key across instances. *cache.Cache satisfies it.
type KeyLocker interface {
	Acquire(ctx context.Context, name string, ttl, wait time.Duration) (*cache.Lock, error)
}

// AlertSink receives operational alerts. The monitoring server satisfies it.
type AlertSink interface {
	RaiseAlert(level, category, message string)
}

// SplitService runs the payment pipeline: resolve terms, compute the split, hand
// transfers to the gateway and record the result in the ledger.
type SplitService struct {
	cfg        config.PaymentsConfig
	commission *CommissionResolver
	referral   *ReferralResolver
	clinics    ClinicStore
	recorder   *TransactionRecorder
	gateway    Gateway
	locker     KeyLocker

	archiver Archiver
	alerts   AlertSink
	archive  sync.WaitGroup
}

func NewSplitService(
	cfg config.PaymentsConfig,
	commission *CommissionResolver,
	referral *ReferralResolver,
	clinics ClinicStore,
	recorder *TransactionRecorder,
	gateway Gateway,
	locker KeyLocker,
) *SplitService {
	if gateway == nil {
		gateway = SimulatedGateway{}
	}
	return &SplitService{
		cfg:        cfg,
		commission: commission,
		referral:   referral,
		clinics:    clinics,
		recorder:   recorder,
		gateway:    gateway,
		locker:     locker,
	}
}

// SetArchiver enables the object-storage copy of new ledger rows
func (s *SplitService) SetArchiver(a Archiver) {
	s.archiver = a
}

// SetAlertSink routes gateway trouble to the monitoring server
func (s *SplitService) SetAlertSink(a AlertSink) {
	s.alerts = a
}

// Wait blocks until background archive uploads have finished
func (s *SplitService) Wait() {
	s.archive.Wait()
}

type resolution struct {
	commission    models.CommissionTerms
	referral      models.ReferralContext
	clinicAccount string
}

// Process computes and records the split for one payment. Calling it again for the
// same payment event returns the recorded row without touching the gateway.
func (s *SplitService) Process(ctx context.Context, req *models.PaymentRequest) (*models.SplitResponse, error) {
	resp, err := s.process(ctx, req)
	if err != nil {
		metrics.SplitsTotal.WithLabelValues(errorClass(err)).Inc()
		return nil, err
	}
	if resp.Replayed {
		metrics.SplitsTotal.WithLabelValues("replayed").Inc()
	} else {
		metrics.SplitsTotal.WithLabelValues(string(resp.Gateway.Status)).Inc()
	}
	return resp, nil
}

func (s *SplitService) process(ctx context.Context, req *models.PaymentRequest) (*models.SplitResponse, error) {
	key, err := UniquenessKey(req)
	if err != nil {
		return nil, err
	}
	hash := RequestHash(req)

	// a payment that reached the gateway must be recorded even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	lock, err := s.acquire(ctx, key, s.cfg.LockWait)
	if err != nil {
		return nil, err
	}
	defer s.release(lock, key)

	existing, err := s.recorder.Lookup(ctx, key)
	switch {
	case err == nil:
		return s.replay(ctx, existing, req, hash)
	case !errors.Is(err, models.ErrNotFound):
		return nil, &models.PersistenceError{Op: "lookup", Err: err}
	}

	res, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	result := split.Compute(req.AmountCents, req.PlatformFeePercent, res.commission.Model, res.commission.Rate, res.referral)

	items := s.transferItems(key, result, res.commission.PayoutAccountID, res.clinicAccount, res.referral)
	outcome := s.execute(ctx, key, items)

	tx, created, err := s.recorder.Record(ctx, &LedgerEntry{
		Key:        key,
		Hash:       hash,
		Request:    req,
		Commission: res.commission,
		Referral:   res.referral,
		Split:      result,
		Outcome:    outcome,
	})
	if err != nil {
		if outcome.Status == models.GatewayStatusCompleted {
			// money moved but the ledger write failed; needs a human
			s.alert("critical", "ledger", fmt.Sprintf("transfers for %s completed but ledger write failed: %v", key, err))
		}
		return nil, err
	}

	if created {
		log.Printf("[Split] Recorded %s: amount=%d platform=%d referral=%d professional=%d clinic=%d status=%s",
			key, tx.AmountCents, tx.PlatformFeeCents, tx.ReferralFeeCents, tx.ProfessionalShareCents, tx.ClinicShareCents, tx.Status)
		s.countAmounts(tx)
		s.archiveAsync(tx)
		s.alertOnStatus(tx)
	}

	return responseFor(tx, !created), nil
}

func (s *SplitService) replay(ctx context.Context, tx *models.SplitTransaction, req *models.PaymentRequest, hash string) (*models.SplitResponse, error) {
	if tx.RequestHash != hash {
		return nil, models.ErrIdempotencyConflict
	}
	if req.GatewayPaymentID != "" {
		if err := s.recorder.AttachGatewayPaymentID(ctx, tx, req.GatewayPaymentID); err != nil {
			return nil, err
		}
	}
	log.Printf("[Split] Replayed %s (status=%s)", tx.IdempotencyKey, tx.Status)
	return responseFor(tx, true), nil
}

// Preview resolves terms and computes the split without calling the gateway or recording anything
func (s *SplitService) Preview(ctx context.Context, req *models.PaymentRequest) (*models.SplitResponse, error) {
	res, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	result := split.Compute(req.AmountCents, req.PlatformFeePercent, res.commission.Model, res.commission.Rate, res.referral)
	return &models.SplitResponse{
		OK:         true,
		Split:      result,
		Gateway:    models.GatewaySummary{Status: models.GatewayStatusNotAttempted},
		Commission: res.commission,
		Referral:   res.referral,
	}, nil
}

// resolve runs the commission, clinic and referral lookups concurrently
func (s *SplitService) resolve(ctx context.Context, req *models.PaymentRequest) (*resolution, error) {
	var res resolution
	clinicID := req.ClinicID.String()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		terms, err := s.commission.Resolve(gctx, req)
		res.commission = terms
		return err
	})
	g.Go(func() error {
		clinic, err := s.clinics.Get(gctx, clinicID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return &models.ResolutionError{Entity: "clinic", ID: clinicID, Err: err}
			}
			log.Printf("[Split] Clinic lookup failed for %s, transfers to the clinic stay pending: %v", clinicID, err)
			return nil
		}
		res.clinicAccount = clinic.PayoutAccountID
		return nil
	})
	g.Go(func() error {
		res.referral = s.referral.Resolve(gctx, clinicID)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &res, nil
}

// transferItems lists one transfer per beneficiary with a non-zero amount. The
// platform fee only leaves the merchant account when a platform account is configured.
func (s *SplitService) transferItems(key string, result models.SplitResult, professionalAccount, clinicAccount string, referral models.ReferralContext) []models.TransferItem {
	var items []models.TransferItem
	add := func(beneficiary, destination string, cents int64) {
		if cents <= 0 {
			return
		}
		items = append(items, models.TransferItem{
			Beneficiary: beneficiary,
			Destination: destination,
			AmountCents: cents,
			Description: fmt.Sprintf("%s share for %s", beneficiary, key),
		})
	}

	add(models.BeneficiaryProfessional, professionalAccount, result.ProfessionalShareCents)
	add(models.BeneficiaryClinic, clinicAccount, result.ClinicShareCents)
	if referral.HasReferral {
		add(models.BeneficiaryReferrer, referral.ReferralDestination, result.ReferralFeeCents)
	}
	if s.cfg.PlatformAccountID != "" {
		add(models.BeneficiaryPlatform, s.cfg.PlatformAccountID, result.PlatformFeeCents)
	}
	return items
}

// execute sends the items that have a destination and marks the rest pending.
// Gateway errors never escape: they only show in the returned status.
func (s *SplitService) execute(ctx context.Context, key string, items []models.TransferItem) models.GatewayOutcome {
	if len(items) == 0 {
		return models.GatewayOutcome{Status: models.GatewayStatusNotAttempted}
	}

	var sendable []models.TransferItem
	var missing []models.TransferResult
	for _, item := range items {
		if item.Destination == "" {
			missing = append(missing, pendingResult(item))
			continue
		}
		sendable = append(sendable, item)
	}

	outcome := models.GatewayOutcome{}
	if len(sendable) > 0 {
		gctx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
		start := time.Now()
		var err error
		outcome, err = s.gateway.ExecuteTransfers(gctx, key, sendable)
		cancel()

		if err != nil {
			log.Printf("[Split] Gateway error for %s, recording as pending: %v", key, err)
			if outcome.Error == "" {
				outcome.Error = err.Error()
			}
			if len(outcome.Transfers) == 0 {
				for _, item := range sendable {
					outcome.Transfers = append(outcome.Transfers, pendingResult(item))
				}
			}
		}
		metrics.GatewayDuration.WithLabelValues(string(overallStatus(outcome.Transfers))).Observe(time.Since(start).Seconds())

		outcome.Status = overallStatus(outcome.Transfers)
		if err != nil && outcome.Status == models.GatewayStatusCompleted {
			outcome.Status = models.GatewayStatusPending
		}
	}

	if len(missing) > 0 {
		outcome.Transfers = append(outcome.Transfers, missing...)
		outcome.Status = overallStatus(outcome.Transfers)
		msg := fmt.Sprintf("no payout account for %d beneficiary(ies)", len(missing))
		if outcome.Error == "" {
			outcome.Error = msg
		} else {
			outcome.Error += "; " + msg
		}
		log.Printf("[Split] %s: %s, transfers left pending", key, msg)
	}
	return outcome
}

func pendingResult(item models.TransferItem) models.TransferResult {
	return models.TransferResult{
		Beneficiary: item.Beneficiary,
		Destination: item.Destination,
		AmountCents: item.AmountCents,
		Status:      string(models.GatewayStatusPending),
	}
}

// overallStatus folds per-transfer results into the row status.
// Pending outranks failed so reconciliation keeps retrying what can still succeed.
func overallStatus(results []models.TransferResult) models.GatewayStatus {
	if len(results) == 0 {
		return models.GatewayStatusNotAttempted
	}
	var pending, failed, simulated bool
	for _, r := range results {
		switch models.GatewayStatus(r.Status) {
		case models.GatewayStatusCompleted:
		case models.GatewayStatusFailed:
			failed = true
		case models.GatewayStatusSimulated:
			simulated = true
		default:
			pending = true
		}
	}
	switch {
	case pending:
		return models.GatewayStatusPending
	case failed:
		return models.GatewayStatusFailed
	case simulated:
		return models.GatewayStatusSimulated
	}
	return models.GatewayStatusCompleted
}

// ReconcilePending retries transfers for rows left pending, oldest first.
// Each row is handled under its key lock; rows busy elsewhere are skipped.
func (s *SplitService) ReconcilePending(ctx context.Context, limit int) (*models.ReconcileResult, error) {
	rows, err := s.recorder.Pending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending splits: %w", err)
	}

	result := &models.ReconcileResult{}
	for _, row := range rows {
		result.Checked++

		status, err := s.reconcileOne(ctx, row.IdempotencyKey)
		if err != nil {
			log.Printf("[Reconcile] %s: %v", row.IdempotencyKey, err)
			result.Skipped++
			continue
		}
		switch status {
		case models.GatewayStatusCompleted:
			result.Completed++
		case models.GatewayStatusFailed:
			result.Failed++
		case models.GatewayStatusPending:
			result.Pending++
		default:
			result.Skipped++
		}
		metrics.ReconciledTotal.WithLabelValues(string(status)).Inc()
	}

	if result.Checked > 0 {
		log.Printf("[Reconcile] checked=%d completed=%d pending=%d failed=%d skipped=%d",
			result.Checked, result.Completed, result.Pending, result.Failed, result.Skipped)
	}
	return result, nil
}

func (s *SplitService) reconcileOne(ctx context.Context, key string) (models.GatewayStatus, error) {
	lock, err := s.acquire(ctx, key, 0)
	if err != nil {
		return "", err
	}
	defer s.release(lock, key)

	// reload under the lock; a webhook may have moved the row on
	tx, err := s.recorder.Lookup(ctx, key)
	if err != nil {
		return "", err
	}
	if tx.Status != models.GatewayStatusPending {
		return tx.Status, nil
	}

	plan := s.planTransfers(ctx, tx)

	done := make(map[string]models.TransferResult)
	for _, r := range tx.SplitPayload.Transfers {
		if st := models.GatewayStatus(r.Status); st == models.GatewayStatusCompleted || st == models.GatewayStatusFailed {
			done[r.Beneficiary] = r
		}
	}
	var retry []models.TransferItem
	for _, item := range plan {
		if _, ok := done[item.Beneficiary]; !ok {
			retry = append(retry, item)
		}
	}

	outcome := s.execute(ctx, key, retry)

	fresh := make(map[string]models.TransferResult)
	for _, r := range outcome.Transfers {
		fresh[r.Beneficiary] = r
	}
	merged := make([]models.TransferResult, 0, len(plan))
	for _, item := range plan {
		if r, ok := done[item.Beneficiary]; ok {
			merged = append(merged, r)
		} else if r, ok := fresh[item.Beneficiary]; ok {
			merged = append(merged, r)
		}
	}
	outcome.Transfers = merged
	outcome.Status = overallStatus(merged)

	if err := s.recorder.UpdateOutcome(ctx, tx, outcome, settledAt(outcome.Status)); err != nil {
		return "", err
	}
	s.alertOnStatus(tx)
	return outcome.Status, nil
}

// planTransfers rebuilds the transfer list of a stored row, looking up payout
// accounts that were missing when it was first processed.
func (s *SplitService) planTransfers(ctx context.Context, tx *models.SplitTransaction) []models.TransferItem {
	dest := make(map[string]string)
	for _, r := range tx.SplitPayload.Transfers {
		if r.Destination != "" {
			dest[r.Beneficiary] = r.Destination
		}
	}

	if dest[models.BeneficiaryProfessional] == "" && tx.ProfessionalShareCents > 0 {
		if terms, err := s.commission.Resolve(ctx, &tx.RequestPayload); err == nil {
			dest[models.BeneficiaryProfessional] = terms.PayoutAccountID
		}
	}
	if dest[models.BeneficiaryClinic] == "" && tx.ClinicShareCents > 0 {
		if clinic, err := s.clinics.Get(ctx, tx.ClinicID); err == nil {
			dest[models.BeneficiaryClinic] = clinic.PayoutAccountID
		}
	}

	referral := tx.SplitPayload.Referral
	if d := dest[models.BeneficiaryReferrer]; d != "" {
		referral.ReferralDestination = d
	}

	return s.transferItems(tx.IdempotencyKey, tx.Split(), dest[models.BeneficiaryProfessional], dest[models.BeneficiaryClinic], referral)
}

// StartReconciler runs ReconcilePending every interval until ctx is done
func (s *SplitService) StartReconciler(ctx context.Context, interval time.Duration, batch int) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.ReconcilePending(ctx, batch); err != nil {
					log.Printf("[Reconcile] %v", err)
				}
			}
		}
	}()
	log.Printf("[Reconcile] Retrying pending transfers every %s", interval)
}

// ProcessWebhook applies gateway events to the ledger. Events for unknown rows are acknowledged.
func (s *SplitService) ProcessWebhook(ctx context.Context, event string, payload map[string]interface{}) error {
	switch event {
	case "payment.captured":
		return s.handlePaymentCaptured(ctx, payload)
	case "transfer.processed":
		return s.handleTransferEvent(ctx, payload, models.GatewayStatusCompleted)
	case "transfer.failed":
		return s.handleTransferEvent(ctx, payload, models.GatewayStatusFailed)
	default:
		log.Printf("[Razorpay] Unhandled webhook event: %s", event)
		return nil
	}
}

func (s *SplitService) handlePaymentCaptured(ctx context.Context, payload map[string]interface{}) error {
	entity := webhookEntity(payload, "payment")
	paymentID, _ := entity["id"].(string)
	key := noteValue(entity, "split_key")
	if paymentID == "" || key == "" {
		log.Printf("[Razorpay] payment.captured without id or split_key, ignoring")
		return nil
	}

	lock, err := s.acquire(ctx, key, s.cfg.LockWait)
	if err != nil {
		return err
	}
	defer s.release(lock, key)

	tx, err := s.recorder.Lookup(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		log.Printf("[Razorpay] payment.captured for unknown split %s", key)
		return nil
	}
	if err != nil {
		return err
	}
	return s.recorder.AttachGatewayPaymentID(ctx, tx, paymentID)
}

func (s *SplitService) handleTransferEvent(ctx context.Context, payload map[string]interface{}, status models.GatewayStatus) error {
	entity := webhookEntity(payload, "transfer")
	transferID, _ := entity["id"].(string)
	key := noteValue(entity, "split_key")
	beneficiary := noteValue(entity, "beneficiary")
	if key == "" {
		log.Printf("[Razorpay] transfer event %s without split_key, ignoring", transferID)
		return nil
	}

	lock, err := s.acquire(ctx, key, s.cfg.LockWait)
	if err != nil {
		return err
	}
	defer s.release(lock, key)

	tx, err := s.recorder.Lookup(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		log.Printf("[Razorpay] transfer event for unknown split %s", key)
		return nil
	}
	if err != nil {
		return err
	}

	results := append([]models.TransferResult(nil), tx.SplitPayload.Transfers...)
	matched := false
	for i := range results {
		if (transferID != "" && results[i].TransferID == transferID) ||
			(results[i].TransferID == "" && beneficiary != "" && results[i].Beneficiary == beneficiary) {
			results[i].Status = string(status)
			if results[i].TransferID == "" {
				results[i].TransferID = transferID
			}
			matched = true
			break
		}
	}
	if !matched {
		log.Printf("[Razorpay] transfer %s does not match any transfer of %s", transferID, key)
		return nil
	}

	outcome := models.GatewayOutcome{
		Status:    overallStatus(results),
		Transfers: results,
		Error:     tx.GatewayError,
	}
	if status == models.GatewayStatusFailed {
		reason := noteValue(entity, "failure_reason")
		if reason == "" {
			reason = "transfer " + transferID + " failed"
		}
		outcome.Error = reason
	}

	if err := s.recorder.UpdateOutcome(ctx, tx, outcome, settledAt(outcome.Status)); err != nil {
		return err
	}
	log.Printf("[Razorpay] %s: transfer %s -> %s, split now %s", key, transferID, status, outcome.Status)
	s.alertOnStatus(tx)
	return nil
}

// webhookEntity digs payload.<name>.entity out of a Razorpay webhook payload
func webhookEntity(payload map[string]interface{}, name string) map[string]interface{} {
	wrapper, ok := payload[name].(map[string]interface{})
	if !ok {
		wrapper = payload
	}
	entity, ok := wrapper["entity"].(map[string]interface{})
	if !ok {
		entity = wrapper
	}
	return entity
}

// noteValue reads a string from entity.notes, falling back to a top-level field.
// Razorpay sends empty notes as [], so the type assertion may fail.
func noteValue(entity map[string]interface{}, name string) string {
	if notes, ok := entity["notes"].(map[string]interface{}); ok {
		if v, ok := notes[name].(string); ok {
			return v
		}
	}
	v, _ := entity[name].(string)
	return v
}

// ListTransactions returns ledger rows matching the filter
func (s *SplitService) ListTransactions(ctx context.Context, filter *models.SplitTransactionFilter) ([]*models.SplitTransaction, error) {
	return s.recorder.List(ctx, filter)
}

// GetTransaction returns one ledger row, models.ErrNotFound when there is none
func (s *SplitService) GetTransaction(ctx context.Context, key string) (*models.SplitTransaction, error) {
	return s.recorder.Lookup(ctx, key)
}

// GetSummary aggregates ledger rows matching the filter
func (s *SplitService) GetSummary(ctx context.Context, filter *models.SplitTransactionFilter) (*models.SplitSummary, error) {
	return s.recorder.Summary(ctx, filter)
}

func (s *SplitService) acquire(ctx context.Context, key string, wait time.Duration) (*cache.Lock, error) {
	if s.locker == nil {
		return nil, nil
	}
	lock, err := s.locker.Acquire(ctx, key, s.cfg.LockTTL, wait)
	if errors.Is(err, cache.ErrLockTimeout) {
		return nil, models.ErrLockNotAcquired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}
	return lock, nil
}

func (s *SplitService) release(lock *cache.Lock, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := lock.Release(ctx); err != nil {
		log.Printf("[Split] Failed to release lock for %s (it will expire): %v", key, err)
	}
}

func (s *SplitService) archiveAsync(tx *models.SplitTransaction) {
	if s.archiver == nil {
		return
	}
	copied := *tx
	s.archive.Add(1)
	go func() {
		defer s.archive.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.archiver.Archive(ctx, &copied); err != nil {
			log.Printf("[Archive] %v", err)
		}
	}()
}

func (s *SplitService) alertOnStatus(tx *models.SplitTransaction) {
	switch tx.Status {
	case models.GatewayStatusPending:
		s.alert("warning", "gateway", fmt.Sprintf("transfers for %s are pending: %s", tx.IdempotencyKey, tx.GatewayError))
	case models.GatewayStatusFailed:
		s.alert("critical", "gateway", fmt.Sprintf("transfers for %s failed: %s", tx.IdempotencyKey, tx.GatewayError))
	}
}

func (s *SplitService) alert(level, category, message string) {
	if s.alerts != nil {
		s.alerts.RaiseAlert(level, category, message)
	}
}

func (s *SplitService) countAmounts(tx *models.SplitTransaction) {
	metrics.SplitAmountCents.WithLabelValues(models.BeneficiaryProfessional).Add(float64(tx.ProfessionalShareCents))
	metrics.SplitAmountCents.WithLabelValues(models.BeneficiaryClinic).Add(float64(tx.ClinicShareCents))
	metrics.SplitAmountCents.WithLabelValues(models.BeneficiaryReferrer).Add(float64(tx.ReferralFeeCents))
	metrics.SplitAmountCents.WithLabelValues(models.BeneficiaryPlatform).Add(float64(tx.PlatformFeeCents))
}

func settledAt(status models.GatewayStatus) *time.Time {
	if status != models.GatewayStatusCompleted {
		return nil
	}
	now := time.Now()
	return &now
}

func responseFor(tx *models.SplitTransaction, replayed bool) *models.SplitResponse {
	return &models.SplitResponse{
		OK:    true,
		Split: tx.Split(),
		Gateway: models.GatewaySummary{
			Status:    tx.Status,
			Transfers: tx.SplitPayload.Transfers,
		},
		TransactionID:  tx.ID,
		IdempotencyKey: tx.IdempotencyKey,
		Replayed:       replayed,
		Commission:     tx.SplitPayload.Commission,
		Referral:       tx.SplitPayload.Referral,
	}
}

func errorClass(err error) string {
	var validation *models.ValidationError
	var resolution *models.ResolutionError
	var persistence *models.PersistenceError
	switch {
	case errors.As(err, &validation):
		return "validation_error"
	case errors.As(err, &resolution):
		return "resolution_error"
	case errors.Is(err, models.ErrIdempotencyConflict), errors.Is(err, models.ErrLockNotAcquired):
		return "conflict"
	case errors.As(err, &persistence):
		return "persistence_error"
	}
	return "error"
}
