package planner

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/ppmsim/core/model"
)

// MemoryStore keeps plans in memory for testing or dry runs. It also serves
// active plans to the simulation.
type MemoryStore struct {
	mu            sync.Mutex
	products      []model.Product
	processOrders []int64
	plans         []model.PlanWindow
	nextID        int64

	// Calls counts store operations by name.
	Calls map[string]int
	// FailInsert, FailActive make the matching operation fail while set.
	FailInsert error
	FailActive error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, Calls: map[string]int{}}
}

// AddProduct registers a product and returns it with its assigned id.
func (m *MemoryStore) AddProduct(name, projectID string) model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.Product{ID: int64(len(m.products) + 1), Name: name, ProjectID: projectID}
	m.products = append(m.products, p)
	return p
}

// AddProcessOrder registers a process order id.
func (m *MemoryStore) AddProcessOrder(id int64) {
	m.mu.Lock()
	m.processOrders = append(m.processOrders, id)
	m.mu.Unlock()
}

// Plans returns a copy of the committed plans.
func (m *MemoryStore) Plans() []model.PlanWindow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PlanWindow(nil), m.plans...)
}

func (m *MemoryStore) count(op string) {
	m.Calls[op]++
}

func (m *MemoryStore) Products(context.Context) (map[string]model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("products")
	out := make(map[string]model.Product, len(m.products))
	for _, p := range m.products {
		out[strings.TrimSpace(p.Name)] = p
	}
	return out, nil
}

func (m *MemoryStore) FirstProcessOrder(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("process_order")
	if len(m.processOrders) == 0 {
		return 0, ErrNoProcessOrder
	}
	return m.processOrders[0], nil
}

func (m *MemoryStore) Begin(context.Context) (PlanTx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("begin")
	return &memoryTx{store: m}, nil
}

// ActivePlans returns plans whose window contains now.
func (m *MemoryStore) ActivePlans(_ context.Context, now time.Time) ([]model.ActivePlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("active")
	if m.FailActive != nil {
		return nil, m.FailActive
	}
	names := make(map[int64]string, len(m.products))
	for _, p := range m.products {
		names[p.ID] = p.Name
	}
	var out []model.ActivePlan
	for _, p := range m.plans {
		name, ok := names[p.ProductID]
		if ok && p.Window.Contains(now) {
			out = append(out, model.ActivePlan{PlanWindow: p, ProductName: name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Reconnect only records the call.
func (m *MemoryStore) Reconnect(context.Context) error {
	m.mu.Lock()
	m.count("reconnect")
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) overlaps(plans []model.PlanWindow, productID int64, entityID string, w model.Window) bool {
	for _, p := range plans {
		if p.ProductID == productID && p.EntityID == entityID && p.Window.Overlaps(w) {
			return true
		}
	}
	return false
}

type memoryTx struct {
	store   *MemoryStore
	pending []model.PlanWindow
	done    bool
}

func (t *memoryTx) Overlaps(_ context.Context, productID int64, entityID string, w model.Window) (bool, error) {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("overlaps")
	return m.overlaps(m.plans, productID, entityID, w) || m.overlaps(t.pending, productID, entityID, w), nil
}

func (t *memoryTx) Insert(_ context.Context, p model.PlanWindow) (int64, error) {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("insert")
	if m.FailInsert != nil {
		return 0, m.FailInsert
	}
	if m.overlaps(m.plans, p.ProductID, p.EntityID, p.Window) || m.overlaps(t.pending, p.ProductID, p.EntityID, p.Window) {
		return 0, ErrOverlap
	}
	p.ID = m.nextID
	m.nextID++
	t.pending = append(t.pending, p)
	return p.ID, nil
}

func (t *memoryTx) Commit() error {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if !t.done {
		m.plans = append(m.plans, t.pending...)
		t.done = true
	}
	return nil
}

func (t *memoryTx) Rollback() error {
	t.done = true
	t.pending = nil
	return nil
}
