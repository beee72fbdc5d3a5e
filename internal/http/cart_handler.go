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

type CartService interface {
	Fetch(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, in service.ItemInput) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, vendorID, serviceName string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	UserID      string           `json:"userId"`
	VendorID    string           `json:"vendorId"`
	ServiceName string           `json:"serviceName"`
	Category    string           `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    string           `json:"imageUrl"`
}

type RemoveItemRequestDTO struct {
	VendorID    string `json:"vendorId"`
	ServiceName string `json:"serviceName"`
}

type CartResponse struct {
	Message string       `json:"message"`
	Cart    *domain.Cart `json:"cart"`
}

type CartItemsResponse struct {
	Message string            `json:"message"`
	Cart    []domain.CartItem `json:"cart"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	userID, err := resolveUser(r, req.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	cart, err := h.carts.AddItem(ctx, userID, service.ItemInput{
		VendorID:    req.VendorID,
		ServiceName: req.ServiceName,
		Category:    req.Category,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, CartResponse{Message: "Service added to cart", Cart: cart})
}

// GetCart answers with a list holding the user's cart, or an empty list.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := resolveUser(r, chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	cart, err := h.carts.Fetch(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	carts := []*domain.Cart{}
	if cart.ID != "" {
		carts = append(carts, cart)
	}
	respondJSON(w, r, http.StatusOK, carts)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := resolveUser(r, chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	var req RemoveItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.carts.RemoveItem(ctx, userID, req.VendorID, req.ServiceName)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, CartItemsResponse{Message: "Service removed from cart", Cart: itemsOf(cart)})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, err := resolveUser(r, chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	cart, err := h.carts.Clear(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, CartItemsResponse{Message: "Cart cleared successfully", Cart: itemsOf(cart)})
}

func itemsOf(cart *domain.Cart) []domain.CartItem {
	if cart == nil || cart.Items == nil {
		return []domain.CartItem{}
	}
	return cart.Items
}
