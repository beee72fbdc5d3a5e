package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/swiftserve/internal/cache"
	"github.com/fjod/swiftserve/internal/domain"
	"github.com/fjod/swiftserve/internal/repository"
)

// mockCartRepository keeps carts in memory and mirrors the store's
// append-if-absent semantics. A non-nil getGate holds every GetCart until it
// is closed or the caller's context ends.
type mockCartRepository struct {
	m       sync.Mutex
	carts   map[string]*domain.Cart
	err     error
	writes  int
	gets    int
	getGate chan struct{}
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]*domain.Cart{}}
}

func (r *mockCartRepository) snapshot(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append([]domain.CartItem{}, c.Items...)
	return &cp
}

func (r *mockCartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	r.m.Lock()
	r.gets++
	gate := r.getGate
	r.m.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return r.snapshot(c), nil
}

func (r *mockCartRepository) getCalls() int {
	r.m.Lock()
	defer r.m.Unlock()
	return r.gets
}

func (r *mockCartRepository) cartCount() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.carts)
}

func (r *mockCartRepository) AddItem(_ context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.carts[userID]
	if !ok {
		c = &domain.Cart{ID: fmt.Sprintf("cart-%s", userID), UserID: userID, CreatedAt: time.Now()}
		r.carts[userID] = c
	}
	for _, existing := range c.Items {
		if existing.SameLine(item.VendorID, item.ServiceName) {
			return nil, repository.ErrDuplicateItem
		}
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = time.Now()
	r.writes++
	return r.snapshot(c), nil
}

func (r *mockCartRepository) RemoveItem(_ context.Context, userID, vendorID, serviceName string) (*domain.Cart, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if !it.SameLine(vendorID, serviceName) {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.UpdatedAt = time.Now()
	r.writes++
	return r.snapshot(c), nil
}

func (r *mockCartRepository) ClearCart(_ context.Context, userID string) (*domain.Cart, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.carts[userID]
	if !ok {
		c = &domain.Cart{ID: fmt.Sprintf("cart-%s", userID), UserID: userID, CreatedAt: time.Now()}
		r.carts[userID] = c
	}
	c.Items = []domain.CartItem{}
	c.UpdatedAt = time.Now()
	r.writes++
	return r.snapshot(c), nil
}

func (r *mockCartRepository) EmptyCart(_ context.Context, userID string) (*domain.Cart, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	c.Items = []domain.CartItem{}
	c.UpdatedAt = time.Now()
	r.writes++
	return r.snapshot(c), nil
}

func (r *mockCartRepository) setErr(err error) {
	r.m.Lock()
	defer r.m.Unlock()
	r.err = err
}

// mockCache follows the Redis cache contract: Store keeps the newer cart and
// Fill only adds a missing entry. A non-nil fillGate holds every Fill until it
// is closed.
type mockCache struct {
	m        sync.RWMutex
	carts    map[string]*domain.Cart
	err      error
	deletes  int
	fills    int
	fillGate chan struct{}
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]*domain.Cart{}}
}

func (c *mockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	c.m.RLock()
	defer c.m.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	cart, ok := c.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (c *mockCache) Store(_ context.Context, userID string, cart *domain.Cart) error {
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return c.err
	}
	if cur, ok := c.carts[userID]; ok && cur.UpdatedAt.After(cart.UpdatedAt) {
		return nil
	}
	c.carts[userID] = cart
	return nil
}

func (c *mockCache) Fill(_ context.Context, userID string, cart *domain.Cart) error {
	c.m.RLock()
	gate := c.fillGate
	c.m.RUnlock()
	if gate != nil {
		<-gate
	}

	c.m.Lock()
	defer c.m.Unlock()
	c.fills++
	if c.err != nil {
		return c.err
	}
	if _, ok := c.carts[userID]; !ok {
		c.carts[userID] = cart
	}
	return nil
}

func (c *mockCache) Delete(_ context.Context, userID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.carts, userID)
	c.deletes++
	return c.err
}

func (c *mockCache) has(userID string) bool {
	c.m.RLock()
	defer c.m.RUnlock()
	_, ok := c.carts[userID]
	return ok
}

func (c *mockCache) cached(userID string) *domain.Cart {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.carts[userID]
}

func (c *mockCache) fillCalls() int {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.fills
}

// mockBookingRepository fails the failOn-th CreateBooking call (1-based) when set.
type mockBookingRepository struct {
	m        sync.Mutex
	bookings []*domain.Booking
	failOn   int
	calls    int
	err      error
}

func (r *mockBookingRepository) CreateBooking(_ context.Context, b *domain.Booking) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.calls++
	if r.failOn > 0 && r.calls == r.failOn {
		return fmt.Errorf("write concern timeout")
	}
	if r.err != nil {
		return r.err
	}
	b.ID = fmt.Sprintf("b%d", len(r.bookings)+1)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	b.UpdatedAt = b.CreatedAt
	cp := *b
	r.bookings = append(r.bookings, &cp)
	return nil
}

func (r *mockBookingRepository) find(id string) *domain.Booking {
	for _, b := range r.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (r *mockBookingRepository) GetBooking(_ context.Context, id string) (*domain.Booking, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	b := r.find(id)
	if b == nil {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *mockBookingRepository) ListBookingsByUser(_ context.Context, userID string) ([]*domain.Booking, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.Booking
	for i := len(r.bookings) - 1; i >= 0; i-- {
		if r.bookings[i].UserID == userID {
			cp := *r.bookings[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockBookingRepository) UpdateStatus(_ context.Context, id string, from []domain.BookingStatus, to domain.BookingStatus) (*domain.Booking, error) {
	r.m.Lock()
	defer r.m.Unlock()
	b := r.find(id)
	if b == nil {
		return nil, repository.ErrBookingNotFound
	}
	for _, s := range from {
		if b.Status == s {
			b.Status = to
			b.UpdatedAt = time.Now()
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrTransitionRejected
}

func (r *mockBookingRepository) ExistsActiveInSlot(_ context.Context, vendorID, slot string) (bool, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return false, r.err
	}
	for _, b := range r.bookings {
		if b.VendorID == vendorID && b.Slot == slot && b.Status != domain.BookingStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockBookingRepository) count() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.bookings)
}

type mockVendorRepository struct {
	names map[string]string
	err   error
	calls int
}

func (r *mockVendorRepository) VendorNames(_ context.Context, ids []string) (map[string]string, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := map[string]string{}
	for _, id := range ids {
		if n, ok := r.names[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type mockOutbox struct {
	m      sync.Mutex
	events []*repository.OutboxEvent
	err    error
}

func (o *mockOutbox) InsertEvent(_ context.Context, e *repository.OutboxEvent) error {
	o.m.Lock()
	defer o.m.Unlock()
	if o.err != nil {
		return o.err
	}
	o.events = append(o.events, e)
	return nil
}

func (o *mockOutbox) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	o.m.Lock()
	defer o.m.Unlock()
	return o.events, nil
}

func (o *mockOutbox) MarkEventAsProcessed(context.Context, string) error {
	return nil
}
