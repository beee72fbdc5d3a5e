package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/swiftserve/internal/domain"
)

var (
	ErrCartNotFound       = errors.New("cart not found")
	ErrDuplicateItem      = errors.New("service already added to cart")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrTransitionRejected = errors.New("booking status transition rejected")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// AddItem appends item unless the cart already holds the same
	// (vendor, service) pair. Check and append are one store operation.
	AddItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, vendorID, serviceName string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
	// EmptyCart drops every item of an existing cart. Unlike ClearCart it
	// never creates one and returns ErrCartNotFound instead.
	EmptyCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *domain.Booking) error
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]*domain.Booking, error)
	// UpdateStatus moves the booking to `to` only while its current status is one of `from`.
	UpdateStatus(ctx context.Context, id string, from []domain.BookingStatus, to domain.BookingStatus) (*domain.Booking, error)
	ExistsActiveInSlot(ctx context.Context, vendorID, slot string) (bool, error)
}

type VendorRepository interface {
	// VendorNames resolves vendor ids to display names. Unknown ids are absent from the map.
	VendorNames(ctx context.Context, ids []string) (map[string]string, error)
}

type OutboxEvent struct {
	ID          string
	AggregateId string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type OutboxRepository interface {
	InsertEvent(ctx context.Context, event *OutboxEvent) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error
}
