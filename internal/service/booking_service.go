package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/swiftserve/internal/domain"
	"github.com/fjod/swiftserve/internal/logger"
	"github.com/fjod/swiftserve/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutItem is one line of the batch the client submits for checkout.
type CheckoutItem struct {
	VendorID    string
	ServiceName string
	Category    string
	ImageURL    string
	Slot        string
	Price       decimal.Decimal
}

type CheckoutResult struct {
	CheckoutID string
	Bookings   []*domain.Booking
	Cart       []domain.CartItem
}

type BookingService struct {
	bookings repository.BookingRepository
	carts    *CartService
	vendors  *VendorDirectory
	outbox   repository.OutboxRepository
	newID    func() string
}

// NewBookingService wires the checkout orchestrator. vendors and outbox may be nil.
func NewBookingService(
	bookings repository.BookingRepository,
	carts *CartService,
	vendors *VendorDirectory,
	outbox repository.OutboxRepository) *BookingService {
	return &BookingService{
		bookings: bookings,
		carts:    carts,
		vendors:  vendors,
		outbox:   outbox,
		newID:    uuid.NewString,
	}
}

// Checkout books every submitted item, then empties the user's cart.
//
// Items come from the client, not from a server-side read of the cart, so a
// cart changed during checkout is still cleared in full. The cart is cleared
// only after all bookings are written; a failed booking write returns before
// the clear, leaving earlier bookings of the batch in place. A user who never
// had a cart is not given one.
func (s *BookingService) Checkout(ctx context.Context, userID string, items []CheckoutItem) (*CheckoutResult, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if err := validateCheckout(items); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	checkoutID := s.newID()
	result := &CheckoutResult{
		CheckoutID: checkoutID,
		Bookings:   make([]*domain.Booking, 0, len(items)),
	}

	total := decimal.Zero
	for i, item := range items {
		booking := newConfirmedBooking(checkoutID, userID, item)
		if err := s.bookings.CreateBooking(ctx, booking); err != nil {
			log.Error("checkout aborted, cart kept",
				"checkout_id", checkoutID, "user_id", userID,
				"persisted", i, "submitted", len(items), "error", err)
			return nil, storeError(fmt.Sprintf("create booking %d of %d", i+1, len(items)), err)
		}
		result.Bookings = append(result.Bookings, booking)
		total = total.Add(item.Price)
	}

	remaining, err := s.carts.Empty(ctx, userID)
	if err != nil {
		log.Error("bookings written but cart not cleared", "checkout_id", checkoutID, "user_id", userID, "error", err)
		return nil, err
	}
	result.Cart = remaining

	event := checkoutCompletedEvent{
		CheckoutID:  checkoutID,
		UserID:      userID,
		Bookings:    make([]bookingEventItem, 0, len(result.Bookings)),
		TotalAmount: total,
		CompletedAt: time.Now().UTC(),
	}
	for _, b := range result.Bookings {
		event.Bookings = append(event.Bookings, bookingEventItem{
			BookingID:   b.ID,
			VendorID:    b.VendorID,
			ServiceName: b.ServiceName,
			Slot:        b.Slot,
		})
	}
	enqueue(ctx, s.outbox, checkoutID, EventCheckoutCompleted, event)

	log.Info("checkout completed", "checkout_id", checkoutID, "user_id", userID, "bookings", len(result.Bookings))
	return result, nil
}

// UserBookings lists a user's bookings newest first, with vendor names when
// the vendor lookup is available.
func (s *BookingService) UserBookings(ctx context.Context, userID string) ([]*domain.Booking, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	bookings, err := s.bookings.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, storeError("list bookings", err)
	}
	if s.vendors == nil || len(bookings) == 0 {
		return bookings, nil
	}

	seen := make(map[string]struct{}, len(bookings))
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		if _, ok := seen[b.VendorID]; !ok {
			seen[b.VendorID] = struct{}{}
			ids = append(ids, b.VendorID)
		}
	}

	names, err := s.vendors.Names(ctx, ids)
	if err != nil {
		logger.FromContext(ctx).Warn("vendor names unavailable", "user_id", userID, "error", err)
		return bookings, nil
	}
	for _, b := range bookings {
		b.VendorName = names[b.VendorID]
	}
	return bookings, nil
}

// IsSlotBooked reports whether a non-cancelled booking holds exactly this
// vendor and slot. Slots are compared as opaque strings.
func (s *BookingService) IsSlotBooked(ctx context.Context, vendorID, slot string) (bool, error) {
	verr := &ValidationError{}
	verr.require("vendorId", vendorID)
	verr.require("slot", slot)
	if !verr.empty() {
		return false, verr
	}

	booked, err := s.bookings.ExistsActiveInSlot(ctx, vendorID, slot)
	if err != nil {
		return false, storeError("check slot", err)
	}
	return booked, nil
}

func (s *BookingService) Confirm(ctx context.Context, userID, bookingID string) (*domain.Booking, error) {
	return s.transition(ctx, userID, bookingID, domain.BookingStatusConfirmed)
}

func (s *BookingService) Cancel(ctx context.Context, userID, bookingID string) (*domain.Booking, error) {
	return s.transition(ctx, userID, bookingID, domain.BookingStatusCancelled)
}

// transition applies a status change with a conditional update, so a
// confirmed booking can never be moved back to pending.
func (s *BookingService) transition(ctx context.Context, userID, bookingID string, to domain.BookingStatus) (*domain.Booking, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	current, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, mapBookingError(bookingID, "get booking", err)
	}
	if current.UserID != userID {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}

	updated, err := s.bookings.UpdateStatus(ctx, bookingID, domain.SourcesFor(to), to)
	if err != nil {
		return nil, mapBookingError(bookingID, "update booking status", err)
	}

	enqueue(ctx, s.outbox, updated.ID, EventBookingStatusChanged, bookingStatusChangedEvent{
		BookingID: updated.ID,
		UserID:    updated.UserID,
		VendorID:  updated.VendorID,
		Status:    updated.Status,
		ChangedAt: updated.UpdatedAt,
	})
	return updated, nil
}

func mapBookingError(bookingID, op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrBookingNotFound):
		return fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	case errors.Is(err, repository.ErrTransitionRejected):
		return fmt.Errorf("%w: booking %s", ErrIllegalTransition, bookingID)
	default:
		return storeError(op, err)
	}
}

func validateCheckout(items []CheckoutItem) error {
	verr := &ValidationError{}
	if len(items) == 0 {
		verr.Missing = append(verr.Missing, "items")
		return verr
	}
	for i, item := range items {
		verr.require(fmt.Sprintf("items[%d].vendorId", i), item.VendorID)
		verr.require(fmt.Sprintf("items[%d].serviceName", i), item.ServiceName)
		if item.Price.IsNegative() {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("items[%d].price", i))
		}
	}
	if !verr.empty() {
		return verr
	}
	return nil
}

// newConfirmedBooking skips pending: payment is simulated before checkout is called.
func newConfirmedBooking(checkoutID, userID string, item CheckoutItem) *domain.Booking {
	imageURL := item.ImageURL
	if imageURL == "" {
		imageURL = domain.DefaultImageURL
	}
	return &domain.Booking{
		CheckoutID:    checkoutID,
		UserID:        userID,
		VendorID:      item.VendorID,
		ServiceName:   item.ServiceName,
		Category:      item.Category,
		ImageURL:      imageURL,
		Slot:          item.Slot,
		Status:        domain.BookingStatusConfirmed,
		PaymentStatus: domain.PaymentStatusCompleted,
	}
}
