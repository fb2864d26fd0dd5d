package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
)

// MemStore implements repository.Store in memory. Transactions are fully
// serialized and roll back by restoring a snapshot.
type MemStore struct {
	mu     sync.Mutex
	items  map[uuid.UUID]domain.Item
	carts  map[uuid.UUID]domain.Cart
	lines  map[uuid.UUID][]domain.LineItem
	orders map[uuid.UUID]domain.Order
	events []*repository.OutboxEvent
	clock  time.Time

	// FailCommit, when set, is returned after fn succeeds.
	FailCommit error
	// Replays rolls back that many successful runs of fn and runs it
	// again, the way a serialization failure at commit does.
	Replays  int
	TxCount  int
	Attempts int
}

func NewMemStore() *MemStore {
	return &MemStore{
		items:  make(map[uuid.UUID]domain.Item),
		carts:  make(map[uuid.UUID]domain.Cart),
		lines:  make(map[uuid.UUID][]domain.LineItem),
		orders: make(map[uuid.UUID]domain.Order),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type memSnapshot struct {
	items  map[uuid.UUID]domain.Item
	carts  map[uuid.UUID]domain.Cart
	lines  map[uuid.UUID][]domain.LineItem
	orders map[uuid.UUID]domain.Order
	events int
}

func (s *MemStore) snapshot() memSnapshot {
	snap := memSnapshot{
		items:  make(map[uuid.UUID]domain.Item, len(s.items)),
		carts:  make(map[uuid.UUID]domain.Cart, len(s.carts)),
		lines:  make(map[uuid.UUID][]domain.LineItem, len(s.lines)),
		orders: make(map[uuid.UUID]domain.Order, len(s.orders)),
		events: len(s.events),
	}
	for k, v := range s.items {
		snap.items[k] = v
	}
	for k, v := range s.carts {
		snap.carts[k] = v
	}
	for k, v := range s.lines {
		snap.lines[k] = append([]domain.LineItem(nil), v...)
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	return snap
}

func (s *MemStore) restore(snap memSnapshot) {
	s.items = snap.items
	s.carts = snap.carts
	s.lines = snap.lines
	s.orders = snap.orders
	s.events = s.events[:snap.events]
}

func (s *MemStore) InTx(ctx context.Context, fn func(repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TxCount++
	snap := s.snapshot()
	for {
		s.Attempts++
		err := fn(&memTx{s: s})
		if err == nil && s.Replays > 0 {
			s.Replays--
			s.restore(snap)
			snap = s.snapshot()
			continue
		}
		if err == nil {
			err = s.FailCommit
		}
		if err != nil {
			s.restore(snap)
		}
		return err
	}
}

func (s *MemStore) PutItem(item domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *MemStore) Stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id].Quantity
}

// Reserved sums the quantity of id held by cart lines and by orders that
// still hold their stock.
func (s *MemStore) Reserved(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for cartID, lines := range s.lines {
		if s.orderFor(cartID) != nil {
			continue
		}
		for _, l := range lines {
			if l.ItemID == id {
				total += l.Quantity
			}
		}
	}
	for _, o := range s.orders {
		if o.Status == domain.OrderStatusCanceled {
			continue
		}
		for _, l := range o.Items {
			if l.ItemID == id {
				total += l.Quantity
			}
		}
	}
	return total
}

func (s *MemStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *MemStore) Events() []*repository.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*repository.OutboxEvent(nil), s.events...)
}

func (s *MemStore) orderFor(cartID uuid.UUID) *domain.Order {
	for _, o := range s.orders {
		if o.CartID == cartID {
			o := o
			return &o
		}
	}
	return nil
}

func (s *MemStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type memTx struct {
	s *MemStore
}

func (t *memTx) Reserve(_ context.Context, itemID uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	item, ok := t.s.items[itemID]
	if !ok {
		return 0, domain.NewNotFound("item", itemID)
	}
	if item.Quantity < qty {
		return 0, &domain.InsufficientStockError{ItemID: itemID.String(), Requested: qty, Available: item.Quantity}
	}
	item.Quantity -= qty
	t.s.items[itemID] = item
	return item.Quantity, nil
}

func (t *memTx) Release(_ context.Context, itemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	item, ok := t.s.items[itemID]
	if !ok {
		return domain.NewNotFound("item", itemID)
	}
	item.Quantity += qty
	t.s.items[itemID] = item
	return nil
}

func (t *memTx) GetItem(_ context.Context, id uuid.UUID) (*domain.Item, error) {
	item, ok := t.s.items[id]
	if !ok {
		return nil, domain.NewNotFound("item", id)
	}
	return &item, nil
}

func (t *memTx) UpsertItem(_ context.Context, item *domain.Item) error {
	t.s.items[item.ID] = *item
	return nil
}

func (t *memTx) CreateCart(_ context.Context, cart *domain.Cart) error {
	cart.CreatedAt = t.s.tick()
	c := *cart
	c.Items = nil
	t.s.carts[cart.ID] = c
	return nil
}

func (t *memTx) GetCart(_ context.Context, id uuid.UUID) (*domain.Cart, error) {
	c, ok := t.s.carts[id]
	if !ok {
		return nil, domain.NewNotFound("cart", id)
	}
	if o := t.s.orderFor(id); o != nil {
		orderID := o.ID
		c.OrderID = &orderID
	}
	return &c, nil
}

func (t *memTx) LockCart(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	return t.GetCart(ctx, id)
}

func (t *memTx) ListCarts(ctx context.Context, userID string) ([]*domain.Cart, error) {
	var out []*domain.Cart
	for id, c := range t.s.carts {
		if userID != "" && c.UserID != userID {
			continue
		}
		cart, _ := t.GetCart(ctx, id)
		out = append(out, cart)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (t *memTx) DeleteCart(_ context.Context, id uuid.UUID) error {
	if _, ok := t.s.carts[id]; !ok {
		return domain.NewNotFound("cart", id)
	}
	delete(t.s.carts, id)
	delete(t.s.lines, id)
	return nil
}

func (t *memTx) LineItems(_ context.Context, cartID uuid.UUID) ([]domain.LineItem, error) {
	out := []domain.LineItem{}
	for _, l := range t.s.lines[cartID] {
		l.Item = t.s.items[l.ItemID].Snapshot()
		out = append(out, l)
	}
	return out, nil
}

func (t *memTx) GetLineItem(_ context.Context, cartID, itemID uuid.UUID) (*domain.LineItem, error) {
	for _, l := range t.s.lines[cartID] {
		if l.ItemID == itemID {
			l.Item = t.s.items[itemID].Snapshot()
			return &l, nil
		}
	}
	return nil, domain.NewNotFound("cart line item", itemID)
}

func (t *memTx) AddLineItem(_ context.Context, cartID, itemID uuid.UUID, qty int) error {
	lines := t.s.lines[cartID]
	for i := range lines {
		if lines[i].ItemID == itemID {
			lines[i].Quantity += qty
			return nil
		}
	}
	t.s.lines[cartID] = append(lines, domain.LineItem{CartID: cartID, ItemID: itemID, Quantity: qty, AddedAt: t.s.tick()})
	return nil
}

func (t *memTx) SetLineItemQty(_ context.Context, cartID, itemID uuid.UUID, qty int) error {
	lines := t.s.lines[cartID]
	for i := range lines {
		if lines[i].ItemID == itemID {
			lines[i].Quantity = qty
			return nil
		}
	}
	return domain.NewNotFound("cart line item", itemID)
}

func (t *memTx) DeleteLineItem(_ context.Context, cartID, itemID uuid.UUID) error {
	lines := t.s.lines[cartID]
	for i := range lines {
		if lines[i].ItemID == itemID {
			t.s.lines[cartID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return domain.NewNotFound("cart line item", itemID)
}

func (t *memTx) CreateOrder(_ context.Context, order *domain.Order) error {
	for _, o := range t.s.orders {
		if o.CartID == order.CartID || o.PaymentIntentID == order.PaymentIntentID {
			return repository.ErrOrderExists
		}
	}
	t.s.orders[order.ID] = *order
	return nil
}

func (t *memTx) GetOrder(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := t.s.orders[id]
	if !ok {
		return nil, domain.NewNotFound("order", id)
	}
	return &o, nil
}

func (t *memTx) OrderByCart(_ context.Context, cartID uuid.UUID) (*domain.Order, error) {
	if o := t.s.orderFor(cartID); o != nil {
		return o, nil
	}
	return nil, &domain.NotFoundError{Resource: "order for cart", ID: cartID.String()}
}

func (t *memTx) LockOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return t.GetOrder(ctx, id)
}

func (t *memTx) LockOrderByPaymentIntent(_ context.Context, intentID string) (*domain.Order, error) {
	for _, o := range t.s.orders {
		if o.PaymentIntentID == intentID {
			return &o, nil
		}
	}
	return nil, &domain.NotFoundError{Resource: "order for payment intent", ID: intentID}
}

func (t *memTx) ListOrders(_ context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range t.s.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		o := o
		out = append(out, &o)
	}
	return out, nil
}

func (t *memTx) UpdateOrderStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) error {
	o, ok := t.s.orders[id]
	if !ok {
		return domain.NewNotFound("order", id)
	}
	o.Status = status
	o.UpdatedAt = t.s.tick()
	t.s.orders[id] = o
	return nil
}

func (t *memTx) EnqueueEvent(_ context.Context, aggregateID, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	t.s.events = append(t.s.events, &repository.OutboxEvent{
		ID:          int64(len(t.s.events) + 1),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     data,
		CreatedAt:   t.s.tick(),
	})
	return nil
}

// MemDeduper is an in-memory EventDeduper. Err fails every call,
// RememberErr only the write.
type MemDeduper struct {
	mu          sync.Mutex
	seen        map[string]bool
	Err         error
	RememberErr error
}

func NewMemDeduper() *MemDeduper {
	return &MemDeduper{seen: make(map[string]bool)}
}

func (d *MemDeduper) Seen(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return false, d.Err
	}
	return d.seen[eventID], nil
}

func (d *MemDeduper) Remember(_ context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	if d.RememberErr != nil {
		return d.RememberErr
	}
	d.seen[eventID] = true
	return nil
}

func (d *MemDeduper) Has(eventID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[eventID]
}
