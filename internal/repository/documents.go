package repository

import (
	"fmt"
	"time"

	"github.com/fjod/swiftserve/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cartDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Items     []cartItemDocument `bson:"items"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type cartItemDocument struct {
	VendorID    string               `bson:"vendor_id"`
	ServiceName string               `bson:"service_name"`
	Category    string               `bson:"category"`
	Price       primitive.Decimal128 `bson:"price"`
	ImageURL    string               `bson:"image_url,omitempty"`
}

type bookingDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	CheckoutID    string             `bson:"checkout_id,omitempty"`
	UserID        string             `bson:"user_id"`
	VendorID      string             `bson:"vendor_id"`
	ServiceName   string             `bson:"service_name"`
	Category      string             `bson:"category,omitempty"`
	ImageURL      string             `bson:"image_url"`
	Slot          string             `bson:"slot,omitempty"`
	Status        string             `bson:"status"`
	PaymentStatus string             `bson:"payment_status"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

type outboxDocument struct {
	ID          string     `bson:"_id"`
	AggregateID string     `bson:"aggregate_id"`
	EventType   string     `bson:"event_type"`
	Payload     []byte     `bson:"payload"`
	Processed   bool       `bson:"processed"`
	CreatedAt   time.Time  `bson:"created_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
}

func newCartItemDocument(item domain.CartItem) (cartItemDocument, error) {
	price, err := primitive.ParseDecimal128(item.Price.String())
	if err != nil {
		return cartItemDocument{}, fmt.Errorf("invalid price %s: %w", item.Price, err)
	}
	return cartItemDocument{
		VendorID:    item.VendorID,
		ServiceName: item.ServiceName,
		Category:    item.Category,
		Price:       price,
		ImageURL:    item.ImageURL,
	}, nil
}

func (d cartDocument) toDomain() (*domain.Cart, error) {
	cart := &domain.Cart{
		UserID:    d.UserID,
		Items:     make([]domain.CartItem, 0, len(d.Items)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if !d.ID.IsZero() {
		cart.ID = d.ID.Hex()
	}
	for _, it := range d.Items {
		price, err := decimal.NewFromString(it.Price.String())
		if err != nil {
			return nil, fmt.Errorf("decode price of %s/%s: %w", it.VendorID, it.ServiceName, err)
		}
		cart.Items = append(cart.Items, domain.CartItem{
			VendorID:    it.VendorID,
			ServiceName: it.ServiceName,
			Category:    it.Category,
			Price:       price,
			ImageURL:    it.ImageURL,
		})
	}
	return cart, nil
}

func newBookingDocument(b *domain.Booking) bookingDocument {
	return bookingDocument{
		CheckoutID:    b.CheckoutID,
		UserID:        b.UserID,
		VendorID:      b.VendorID,
		ServiceName:   b.ServiceName,
		Category:      b.Category,
		ImageURL:      b.ImageURL,
		Slot:          b.Slot,
		Status:        string(b.Status),
		PaymentStatus: b.PaymentStatus,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (d bookingDocument) toDomain() *domain.Booking {
	return &domain.Booking{
		ID:            d.ID.Hex(),
		CheckoutID:    d.CheckoutID,
		UserID:        d.UserID,
		VendorID:      d.VendorID,
		ServiceName:   d.ServiceName,
		Category:      d.Category,
		ImageURL:      d.ImageURL,
		Slot:          d.Slot,
		Status:        domain.BookingStatus(d.Status),
		PaymentStatus: d.PaymentStatus,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
