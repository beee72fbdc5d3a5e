package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/swiftserve/internal/domain"
	"github.com/fjod/swiftserve/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type BookingService interface {
	Checkout(ctx context.Context, userID string, items []service.CheckoutItem) (*service.CheckoutResult, error)
	UserBookings(ctx context.Context, userID string) ([]*domain.Booking, error)
	IsSlotBooked(ctx context.Context, vendorID, slot string) (bool, error)
	Confirm(ctx context.Context, userID, bookingID string) (*domain.Booking, error)
	Cancel(ctx context.Context, userID, bookingID string) (*domain.Booking, error)
}

type BookingHandler struct {
	bookings BookingService
	timeout  time.Duration
}

func NewBookingHandler(bookings BookingService, timeout time.Duration) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		timeout:  timeout,
	}
}

type CheckoutItemDTO struct {
	VendorID    string          `json:"vendorId"`
	ServiceName string          `json:"serviceName"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Slot        string          `json:"slot"`
	Price       decimal.Decimal `json:"price"`
}

type BookRequestDTO struct {
	UserID string `json:"userId"`
	CheckoutItemDTO
}

type CheckoutRequestDTO struct {
	UserID string            `json:"userId"`
	Items  []CheckoutItemDTO `json:"items"`
}

type StatusRequestDTO struct {
	UserID string `json:"userId"`
}

type BookingResponse struct {
	Message string          `json:"message"`
	Booking *domain.Booking `json:"booking"`
}

type CheckoutResponse struct {
	Message    string            `json:"message"`
	CheckoutID string            `json:"checkoutId"`
	Bookings   []*domain.Booking `json:"bookings"`
	Cart       []domain.CartItem `json:"cart"`
}

type BookingsResponse struct {
	Bookings []*domain.Booking `json:"bookings"`
}

type SlotResponse struct {
	VendorID string `json:"vendorId"`
	Slot     string `json:"slot"`
	Booked   bool   `json:"booked"`
}

func (d CheckoutItemDTO) toItem() service.CheckoutItem {
	return service.CheckoutItem{
		VendorID:    d.VendorID,
		ServiceName: d.ServiceName,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		Slot:        d.Slot,
		Price:       d.Price,
	}
}

// Book books a single service and clears the cart, as a one-item checkout.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req BookRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	res, err := h.bookings.Checkout(ctx, userID, []service.CheckoutItem{req.CheckoutItemDTO.toItem()})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, BookingResponse{
		Message: "Booking successful and cart cleared",
		Booking: res.Bookings[0],
	})
}

func (h *BookingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	items := make([]service.CheckoutItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, it.toItem())
	}

	res, err := h.bookings.Checkout(ctx, userID, items)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	cart := res.Cart
	if cart == nil {
		cart = []domain.CartItem{}
	}
	respondJSON(w, r, http.StatusOK, CheckoutResponse{
		Message:    "Checkout completed and cart cleared",
		CheckoutID: res.CheckoutID,
		Bookings:   res.Bookings,
		Cart:       cart,
	})
}

func (h *BookingHandler) UserBookings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := resolveUser(r, chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	bookings, err := h.bookings.UserBookings(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*domain.Booking{}
	}

	respondJSON(w, r, http.StatusOK, BookingsResponse{Bookings: bookings})
}

func (h *BookingHandler) SlotStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	vendorID := chi.URLParam(r, "vendorId")
	slot := r.URL.Query().Get("slot")

	booked, err := h.bookings.IsSlotBooked(ctx, vendorID, slot)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, SlotResponse{VendorID: vendorID, Slot: slot, Booked: booked})
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "Booking confirmed", h.bookings.Confirm)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "Booking cancelled", h.bookings.Cancel)
}

func (h *BookingHandler) changeStatus(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	apply func(ctx context.Context, userID, bookingID string) (*domain.Booking, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StatusRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	booking, err := apply(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, BookingResponse{Message: message, Booking: booking})
}
