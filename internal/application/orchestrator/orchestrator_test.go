package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/dispatcher"
	appwf "github.com/ningi265/hrms-client-sub001/internal/application/workflow"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

type memEntityRepo struct {
	mu       sync.Mutex
	nextID   int64
	entities map[int64]*entity.Entity
}

func newMemEntityRepo() *memEntityRepo {
	return &memEntityRepo{entities: make(map[int64]*entity.Entity)}
}

func (r *memEntityRepo) Create(_ context.Context, e *entity.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	stored := *e
	r.entities[e.ID] = &stored
	return nil
}

func (r *memEntityRepo) GetByID(_ context.Context, id int64) (*entity.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %d not found", id)
	}
	copied := *stored
	return &copied, nil
}

func (r *memEntityRepo) CompareAndSwapState(_ context.Context, id int64, expected domainwf.State, e *entity.Entity) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entities[id]
	if !ok || stored.State != expected {
		return false, nil
	}
	updated := *e
	r.entities[id] = &updated
	return true, nil
}

func (r *memEntityRepo) UpdatePayload(_ context.Context, e *entity.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.entities[e.ID]
	if !ok {
		return fmt.Errorf("entity %d not found", e.ID)
	}
	stored.Payload = e.Payload
	return nil
}

func (r *memEntityRepo) ListByKindState(_ context.Context, kind domainwf.Kind, state domainwf.State, limit, _ int) ([]*entity.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Entity
	for id := int64(1); id <= r.nextID; id++ {
		e, ok := r.entities[id]
		if ok && e.Kind == kind && e.State == state && len(out) < limit {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memEntityRepo) ListByKind(_ context.Context, kind domainwf.Kind, limit, _ int) ([]*entity.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Entity
	for id := int64(1); id <= r.nextID; id++ {
		e, ok := r.entities[id]
		if ok && e.Kind == kind && len(out) < limit {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

// setState rewrites an entity's state directly, bypassing the executor. Used
// to stage situations the public verbs cannot produce, such as a lapsed
// deadline or a revoked registration.
func (r *memEntityRepo) setState(id int64, state domainwf.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entities[id]; ok {
		e.State = state
	}
}

// seed inserts an entity in an arbitrary state
func (r *memEntityRepo) seed(kind domainwf.Kind, state domainwf.State, payload any) *entity.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e := &entity.Entity{ID: r.nextID, Kind: kind, State: state, CreatedBy: "seed", Payload: payload}
	stored := *e
	r.entities[e.ID] = &stored
	return e
}

type memHistoryRepo struct {
	mu      sync.Mutex
	nextID  int64
	records []*entity.TransitionRecord
}

func (r *memHistoryRepo) Append(_ context.Context, rec *entity.TransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	stored := *rec
	r.records = append(r.records, &stored)
	return nil
}

func (r *memHistoryRepo) GetByEntityID(_ context.Context, entityID int64) ([]*entity.TransitionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.TransitionRecord
	for _, rec := range r.records {
		if rec.EntityID == entityID {
			copied := *rec
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memHistoryRepo) GetLatest(_ context.Context, entityID int64) (*entity.TransitionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].EntityID == entityID {
			copied := *r.records[i]
			return &copied, nil
		}
	}
	return nil, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type captureScheduler struct {
	mu        sync.Mutex
	scheduled []domainwf.Intent
}

func (s *captureScheduler) Schedule(_ context.Context, _ *entity.Entity, intents []domainwf.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, intents...)
}

func (s *captureScheduler) intents() []domainwf.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domainwf.Intent(nil), s.scheduled...)
}

type fixture struct {
	entities *memEntityRepo
	effects  *captureScheduler

	vendors        *VendorOrchestrator
	requisitions   *RequisitionOrchestrator
	travel         *TravelOrchestrator
	tenders        *TenderOrchestrator
	purchaseOrders *PurchaseOrderOrchestrator
	invoices       *InvoiceOrchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	events := dispatcher.NewDispatcher(logger)
	t.Cleanup(func() { _ = events.Close() })

	f := &fixture{
		entities: newMemEntityRepo(),
		effects:  &captureScheduler{},
	}
	executor := appwf.NewExecutor(appwf.NewRegistry(), f.entities, &memHistoryRepo{}, passthroughTx{}, f.effects, events, logger)

	f.vendors = NewVendorOrchestrator(executor, f.entities)
	f.requisitions = NewRequisitionOrchestrator(executor, f.entities)
	f.travel = NewTravelOrchestrator(executor, f.entities, logger)
	f.tenders = NewTenderOrchestrator(executor, f.entities, f.vendors, logger)
	f.purchaseOrders = NewPurchaseOrderOrchestrator(executor, f.entities, f.vendors, f.effects)
	f.invoices = NewInvoiceOrchestrator(executor, f.entities, f.vendors)
	return f
}

// approvedVendor registers a vendor, approves it, and returns its reference
func (f *fixture) approvedVendor(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	reg, err := f.vendors.Register(ctx, "vendor-user", &entity.VendorRegistrationPayload{
		CompanyName:  "Chirwa Supplies Ltd",
		TaxID:        "TPIN-443512",
		ContactEmail: "sales@chirwasupplies.mw",
	})
	require.NoError(t, err)

	admin := domainwf.Actor{ID: "admin-1", Role: domainwf.RoleAdmin}
	approved, err := f.vendors.Approve(ctx, reg.ID, admin)
	require.NoError(t, err)
	require.Equal(t, domainwf.StateVendorApproved, approved.State)
	return strconv.FormatInt(reg.ID, 10)
}
