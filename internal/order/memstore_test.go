package order_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/order"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type memProduct struct {
	ID         uuid.UUID
	SupplierID uuid.UUID
	Name       string
	Price      decimal.Decimal
	Stock      int
}

type memCartLine struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

type memState struct {
	products map[uuid.UUID]memProduct
	carts    map[uuid.UUID][]memCartLine
	orders   map[uuid.UUID]order.Order
}

func (s memState) clone() memState {
	c := memState{
		products: make(map[uuid.UUID]memProduct, len(s.products)),
		carts:    make(map[uuid.UUID][]memCartLine, len(s.carts)),
		orders:   make(map[uuid.UUID]order.Order, len(s.orders)),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = append([]memCartLine(nil), v...)
	}
	for k, v := range s.orders {
		v.Items = append([]order.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	return c
}

// memStore is a transactional in-memory store. Transactions are serialized
// and a failed transaction restores the snapshot taken at its start.
type memStore struct {
	mu    sync.Mutex
	state memState
	links map[[2]uuid.UUID]bool

	pendingComplaints map[uuid.UUID]int

	// conflicts makes the next N transactions fail at commit with
	// apperr.ErrConcurrentUpdate.
	conflicts int

	// failOn makes the named Tx method fail.
	failOn string

	txCount int

	// adjusted records the product of every AdjustStock call.
	adjusted []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			products: make(map[uuid.UUID]memProduct),
			carts:    make(map[uuid.UUID][]memCartLine),
			orders:   make(map[uuid.UUID]order.Order),
		},
		links:             make(map[[2]uuid.UUID]bool),
		pendingComplaints: make(map[uuid.UUID]int),
	}
}

func (m *memStore) addProduct(supplierID uuid.UUID, name string, price int64, stock int) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.Must(uuid.NewV4())
	m.state.products[id] = memProduct{ID: id, SupplierID: supplierID, Name: name, Price: decimal.NewFromInt(price), Stock: stock}
	return id
}

func (m *memStore) addToCart(consumerID, productID uuid.UUID, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.carts[consumerID] = append(m.state.carts[consumerID], memCartLine{
		ID: uuid.Must(uuid.NewV4()), ProductID: productID, Quantity: qty,
	})
}

func (m *memStore) link(consumerID, supplierID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[[2]uuid.UUID{consumerID, supplierID}] = true
}

func (m *memStore) stock(productID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.products[productID].Stock
}

func (m *memStore) cartSize(consumerID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.carts[consumerID])
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.orders)
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txCount++
	snapshot := m.state.clone()

	err := fn(ctx, &memTx{store: m})
	if err == nil && m.conflicts > 0 {
		m.conflicts--
		err = fmt.Errorf("commit: %w", apperr.ErrConcurrentUpdate)
	}
	if err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.state.orders[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	o.Items = append([]order.OrderItem(nil), o.Items...)
	return &o, nil
}

func (m *memStore) list(match func(o order.Order) bool, status *order.Status) []order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]order.Order, 0)
	for _, o := range m.state.orders {
		if match(o) && (status == nil || o.Status == *status) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) ListByConsumer(ctx context.Context, consumerID uuid.UUID, status *order.Status) ([]order.Order, error) {
	return m.list(func(o order.Order) bool { return o.ConsumerID == consumerID }, status), nil
}

func (m *memStore) ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *order.Status) ([]order.Order, error) {
	return m.list(func(o order.Order) bool { return o.SupplierID == supplierID }, status), nil
}

func (m *memStore) CountByStatus(ctx context.Context, supplierID uuid.UUID) (map[order.Status]int, error) {
	counts := make(map[order.Status]int)
	for _, o := range m.list(func(o order.Order) bool { return o.SupplierID == supplierID }, nil) {
		counts[o.Status]++
	}
	return counts, nil
}

func (m *memStore) CountPendingComplaints(ctx context.Context, supplierID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingComplaints[supplierID], nil
}

// memTx runs with the store mutex already held by InTx.
type memTx struct {
	store *memStore
}

func (t *memTx) fail(op string) error {
	if t.store.failOn == op {
		return fmt.Errorf("injected failure in %s", op)
	}
	return nil
}

func (t *memTx) LockCheckoutLines(ctx context.Context, consumerID uuid.UUID) ([]order.CheckoutLine, error) {
	if err := t.fail("LockCheckoutLines"); err != nil {
		return nil, err
	}
	lines := make([]order.CheckoutLine, 0)
	for _, c := range t.store.state.carts[consumerID] {
		p := t.store.state.products[c.ProductID]
		lines = append(lines, order.CheckoutLine{
			CartItemID:  c.ID,
			ProductID:   p.ID,
			SupplierID:  p.SupplierID,
			ProductName: p.Name,
			Quantity:    c.Quantity,
			Stock:       p.Stock,
			Price:       p.Price,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID.String() < lines[j].ProductID.String() })
	return lines, nil
}

func (t *memTx) IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error) {
	return t.store.links[[2]uuid.UUID{consumerID, supplierID}], nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *order.Order) error {
	if err := t.fail("InsertOrder"); err != nil {
		return err
	}
	cp := *o
	cp.Items = append([]order.OrderItem(nil), o.Items...)
	t.store.state.orders[o.ID] = cp
	return nil
}

func (t *memTx) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) error {
	if err := t.fail("AdjustStock"); err != nil {
		return err
	}
	t.store.adjusted = append(t.store.adjusted, productID)
	p, ok := t.store.state.products[productID]
	if !ok {
		return nil
	}
	if p.Stock+delta < 0 {
		return &apperr.StockError{ProductID: productID, Requested: -delta, Available: p.Stock}
	}
	p.Stock += delta
	t.store.state.products[productID] = p
	return nil
}

func (t *memTx) ClearCart(ctx context.Context, consumerID uuid.UUID) error {
	if err := t.fail("ClearCart"); err != nil {
		return err
	}
	delete(t.store.state.carts, consumerID)
	return nil
}

func (t *memTx) LockOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := t.store.state.orders[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	o.Items = append([]order.OrderItem(nil), o.Items...)
	return &o, nil
}

func (t *memTx) SetStatus(ctx context.Context, id uuid.UUID, status order.Status, at time.Time) error {
	if err := t.fail("SetStatus"); err != nil {
		return err
	}
	o, ok := t.store.state.orders[id]
	if !ok {
		return apperr.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	t.store.state.orders[id] = o
	return nil
}
