package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"clinic-backend/internal/cache"
	"clinic-backend/internal/config"
	"clinic-backend/internal/models"
)

var errStoreDown = errors.New("connection refused")

// memLedger is an in-memory LedgerStore with ON CONFLICT DO NOTHING semantics
type memLedger struct {
	mu      sync.Mutex
	rows    map[string]*models.SplitTransaction
	nextID  int64
	inserts int
}

func newMemLedger() *memLedger {
	return &memLedger{rows: make(map[string]*models.SplitTransaction)}
}

func (m *memLedger) Insert(ctx context.Context, tx *models.SplitTransaction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[tx.IdempotencyKey]; ok {
		return false, nil
	}
	m.nextID++
	m.inserts++
	tx.ID = m.nextID
	tx.CreatedAt = time.Now()
	stored := *tx
	m.rows[tx.IdempotencyKey] = &stored
	return true, nil
}

func (m *memLedger) GetByKey(ctx context.Context, key string) (*models.SplitTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.rows[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *tx
	return &copied, nil
}

func (m *memLedger) GetByGatewayPaymentID(ctx context.Context, paymentID string) (*models.SplitTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.rows {
		if tx.GatewayPaymentID != nil && *tx.GatewayPaymentID == paymentID {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memLedger) AttachGatewayPaymentID(ctx context.Context, key, paymentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.rows[key]
	if !ok || tx.GatewayPaymentID != nil {
		return false, nil
	}
	tx.GatewayPaymentID = &paymentID
	return true, nil
}

func (m *memLedger) UpdateGatewayOutcome(ctx context.Context, key string, status models.GatewayStatus, gatewayError string, payload models.SplitPayload, settledAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.rows[key]
	if !ok {
		return models.ErrNotFound
	}
	tx.Status = status
	tx.GatewayError = gatewayError
	tx.SplitPayload = payload
	if tx.SettledAt == nil {
		tx.SettledAt = settledAt
	}
	return nil
}

func (m *memLedger) ListPending(ctx context.Context, limit int) ([]*models.SplitTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SplitTransaction
	for _, tx := range m.rows {
		if tx.Status == models.GatewayStatusPending {
			copied := *tx
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memLedger) GetAll(ctx context.Context, filter *models.SplitTransactionFilter) ([]*models.SplitTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SplitTransaction
	for _, tx := range m.rows {
		if filter.ClinicID != "" && tx.ClinicID != filter.ClinicID {
			continue
		}
		copied := *tx
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memLedger) GetSummary(ctx context.Context, filter *models.SplitTransactionFilter) (*models.SplitSummary, error) {
	rows, _ := m.GetAll(ctx, filter)
	s := &models.SplitSummary{}
	for _, tx := range rows {
		s.TotalTransactions++
		s.TotalAmountCents += tx.AmountCents
	}
	return s, nil
}

func (m *memLedger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// directory fakes the clinic, professional and referral stores
type directory struct {
	clinics       map[string]*models.Clinic
	professionals map[string]*models.Professional
	referrals     map[string]*models.ClinicReferral
	err           error
}

func newDirectory() *directory {
	return &directory{
		clinics:       make(map[string]*models.Clinic),
		professionals: make(map[string]*models.Professional),
		referrals:     make(map[string]*models.ClinicReferral),
	}
}

func (d *directory) Get(ctx context.Context, id string) (*models.Clinic, error) {
	if d.err != nil {
		return nil, d.err
	}
	c, ok := d.clinics[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (d *directory) GetProfessional(ctx context.Context, id string) (*models.Professional, error) {
	if d.err != nil {
		return nil, d.err
	}
	p, ok := d.professionals[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (d *directory) GetReferral(ctx context.Context, referredClinicID string) (*models.ClinicReferral, error) {
	if d.err != nil {
		return nil, d.err
	}
	r, ok := d.referrals[referredClinicID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r, nil
}

// fixedPercent is a ReferralPercentSource
type fixedPercent struct {
	value float64
	err   error
}

func (f fixedPercent) ReferralFeePercent(ctx context.Context) (float64, error) {
	return f.value, f.err
}

// fakeGateway records calls and answers with a configured outcome
type fakeGateway struct {
	mu     sync.Mutex
	calls  int
	items  [][]models.TransferItem
	delay  time.Duration
	err    error
	status string // per-transfer status, "completed" when empty
}

func (g *fakeGateway) ExecuteTransfers(ctx context.Context, reference string, items []models.TransferItem) (models.GatewayOutcome, error) {
	g.mu.Lock()
	g.calls++
	g.items = append(g.items, items)
	delay, err, status := g.delay, g.err, g.status
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return models.GatewayOutcome{Status: models.GatewayStatusPending}, &models.GatewayError{Op: "transfer", Err: ctx.Err()}
		}
	}
	if err != nil {
		return models.GatewayOutcome{Status: models.GatewayStatusPending}, &models.GatewayError{Op: "transfer", Err: err}
	}
	if status == "" {
		status = string(models.GatewayStatusCompleted)
	}
	var results []models.TransferResult
	for i, item := range items {
		results = append(results, models.TransferResult{
			Beneficiary: item.Beneficiary,
			Destination: item.Destination,
			AmountCents: item.AmountCents,
			TransferID:  reference + "-trf-" + string(rune('a'+i)),
			Status:      status,
		})
	}
	return models.GatewayOutcome{Status: models.GatewayStatus(status), Transfers: results}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// alertRecorder is an AlertSink
type alertRecorder struct {
	mu     sync.Mutex
	alerts []string
}

func (a *alertRecorder) RaiseAlert(level, category, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, level+"/"+category+": "+message)
}

func (a *alertRecorder) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.alerts)
}

// archiveRecorder is an Archiver
type archiveRecorder struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *archiveRecorder) Archive(ctx context.Context, tx *models.SplitTransaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, tx.IdempotencyKey)
	return a.err
}

func testPaymentsConfig() config.PaymentsConfig {
	return config.PaymentsConfig{
		PlatformFeePercent:    0.0599,
		ReferralFeePercent:    0.0233,
		DefaultCommissionRate: 0.5,
		Currency:              "INR",
		GatewayTimeout:        200 * time.Millisecond,
		LockTTL:               5 * time.Second,
		LockWait:              2 * time.Second,
		ReconcileBatch:        50,
	}
}

type harness struct {
	svc     *SplitService
	ledger  *memLedger
	dir     *directory
	gateway *fakeGateway
	alerts  *alertRecorder
}

const (
	clinicA       = "0b8f6a8e-2a43-4c55-9a2e-3c1c1a1d0001"
	clinicB       = "0b8f6a8e-2a43-4c55-9a2e-3c1c1a1d0002"
	professionalA = "5d1c1f7e-6b3a-4e8f-8f3c-7a7a7a7a0001"
	appointmentA  = "9e2d3c4b-1a2b-4c3d-8e9f-0a1b2c3d0001"
)

func newHarness() *harness {
	cfg := testPaymentsConfig()
	dir := newDirectory()
	dir.clinics[clinicA] = &models.Clinic{ID: clinicA, Name: "Clinic A", PayoutAccountID: "acc_clinic_a"}
	dir.clinics[clinicB] = &models.Clinic{ID: clinicB, Name: "Clinic B", PayoutAccountID: "acc_clinic_b"}
	dir.professionals[professionalA] = &models.Professional{ID: professionalA, ClinicID: clinicA, Name: "Dr. A", PayoutAccountID: "acc_prof_a"}

	ledger := newMemLedger()
	gw := &fakeGateway{}
	alerts := &alertRecorder{}

	svc := NewSplitService(cfg,
		NewCommissionResolver(dir, cfg),
		NewReferralResolver(dir, fixedPercent{value: 0.0233}, cfg),
		dir,
		NewTransactionRecorder(ledger),
		gw,
		cache.NewLocal(),
	)
	svc.SetAlertSink(alerts)

	return &harness{svc: svc, ledger: ledger, dir: dir, gateway: gw, alerts: alerts}
}

func ptrInt64(v int64) *int64     { return &v }
func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }
