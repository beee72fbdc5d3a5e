package http

import (
	"context"
	"sync"

	"github.com/fjod/swiftserve/internal/domain"
	"github.com/fjod/swiftserve/internal/service"
)

type mockCartService struct {
	m        sync.Mutex
	cart     *domain.Cart
	err      error
	lastUser string
	lastItem service.ItemInput
}

func (s *mockCartService) record(userID string) {
	s.m.Lock()
	defer s.m.Unlock()
	s.lastUser = userID
}

func (s *mockCartService) Fetch(_ context.Context, userID string) (*domain.Cart, error) {
	s.record(userID)
	if s.err != nil {
		return nil, s.err
	}
	return s.cart, nil
}

func (s *mockCartService) AddItem(_ context.Context, userID string, in service.ItemInput) (*domain.Cart, error) {
	s.record(userID)
	s.lastItem = in
	if s.err != nil {
		return nil, s.err
	}
	return s.cart, nil
}

func (s *mockCartService) RemoveItem(_ context.Context, userID, _, _ string) (*domain.Cart, error) {
	s.record(userID)
	if s.err != nil {
		return nil, s.err
	}
	return s.cart, nil
}

func (s *mockCartService) Clear(_ context.Context, userID string) (*domain.Cart, error) {
	s.record(userID)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
}

type mockBookingService struct {
	m         sync.Mutex
	result    *service.CheckoutResult
	bookings  []*domain.Booking
	booking   *domain.Booking
	booked    bool
	err       error
	lastUser  string
	lastItems []service.CheckoutItem
	lastID    string
}

func (s *mockBookingService) Checkout(_ context.Context, userID string, items []service.CheckoutItem) (*service.CheckoutResult, error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.lastUser = userID
	s.lastItems = items
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *mockBookingService) UserBookings(_ context.Context, userID string) ([]*domain.Booking, error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.lastUser = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.bookings, nil
}

func (s *mockBookingService) IsSlotBooked(_ context.Context, vendorID, slot string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if vendorID == "" || slot == "" {
		return false, &service.ValidationError{Missing: []string{"slot"}}
	}
	return s.booked, nil
}

func (s *mockBookingService) Confirm(_ context.Context, userID, bookingID string) (*domain.Booking, error) {
	return s.transition(userID, bookingID, domain.BookingStatusConfirmed)
}

func (s *mockBookingService) Cancel(_ context.Context, userID, bookingID string) (*domain.Booking, error) {
	return s.transition(userID, bookingID, domain.BookingStatusCancelled)
}

func (s *mockBookingService) transition(userID, bookingID string, to domain.BookingStatus) (*domain.Booking, error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.lastUser = userID
	s.lastID = bookingID
	if s.err != nil {
		return nil, s.err
	}
	b := *s.booking
	b.Status = to
	return &b, nil
}
