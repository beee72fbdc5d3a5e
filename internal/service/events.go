package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fjod/swiftserve/internal/domain"
	"github.com/fjod/swiftserve/internal/logger"
	"github.com/fjod/swiftserve/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	EventCheckoutCompleted    = "booking.checkout_completed"
	EventBookingStatusChanged = "booking.status_changed"
)

type bookingEventItem struct {
	BookingID   string `json:"booking_id"`
	VendorID    string `json:"vendor_id"`
	ServiceName string `json:"service_name"`
	Slot        string `json:"slot,omitempty"`
}

type checkoutCompletedEvent struct {
	CheckoutID  string             `json:"checkout_id"`
	UserID      string             `json:"user_id"`
	Bookings    []bookingEventItem `json:"bookings"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	CompletedAt time.Time          `json:"completed_at"`
}

type bookingStatusChangedEvent struct {
	BookingID string               `json:"booking_id"`
	UserID    string               `json:"user_id"`
	VendorID  string               `json:"vendor_id"`
	Status    domain.BookingStatus `json:"status"`
	ChangedAt time.Time            `json:"changed_at"`
}

// enqueue stores an event for the outbox poller. Failures are logged only:
// the state the event describes is already durable.
func enqueue(ctx context.Context, outbox repository.OutboxRepository, aggregateID, eventType string, payload any) {
	if outbox == nil {
		return
	}
	log := logger.FromContext(ctx)

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal outbox payload", "event_type", eventType, "error", err)
		return
	}

	event := &repository.OutboxEvent{
		AggregateId: aggregateID,
		EventType:   eventType,
		Payload:     data,
	}
	if err := outbox.InsertEvent(context.WithoutCancel(ctx), event); err != nil {
		log.Error("failed to store outbox event", "event_type", eventType, "aggregate_id", aggregateID, "error", err)
	}
}
