package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/swiftserve/internal/cache"
	"github.com/fjod/swiftserve/internal/domain"
	"github.com/fjod/swiftserve/internal/logger"
	"github.com/fjod/swiftserve/internal/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ItemInput is a cart line as submitted by a client. Price is a pointer so an
// absent price can be told apart from a free service.
type ItemInput struct {
	VendorID    string
	ServiceName string
	Category    string
	Price       *decimal.Decimal
	ImageURL    string
}

const defaultReadTimeout = 5 * time.Second

type CartService struct {
	repo        repository.CartRepository
	cache       cache.CartCache
	sfg         singleflight.Group // Prevents cache stampede
	readTimeout time.Duration
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache) *CartService {
	return &CartService{
		repo:        repo,
		cache:       cache,
		readTimeout: defaultReadTimeout,
	}
}

// Fetch returns the user's cart, or an empty cart without an id when none
// exists. It never creates a cart.
//
// Concurrent reads of one user share a single lookup. The lookup runs
// detached from any one caller, so a cancelled request only abandons its own
// wait.
func (s *CartService) Fetch(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	ch := s.sfg.DoChan(userID, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.readTimeout)
		defer cancel()
		return s.load(readCtx, userID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Cart), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *CartService) load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.cache.Get(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.FromContext(ctx).Warn("cart cache get failed", "user_id", userID, "error", err)
	}

	cart, err = s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return emptyCart(userID), nil
	}
	if err != nil {
		return nil, storeError("fetch cart", err)
	}

	go s.fill(userID, cart)
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, in ItemInput) (*domain.Cart, error) {
	item, err := validateItem(userID, in)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.AddItem(ctx, userID, item)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateItem) {
			return nil, ErrDuplicateItem
		}
		logger.FromContext(ctx).Error("repo add item failed", "user_id", userID, "error", err)
		return nil, storeError("add item", err)
	}

	s.store(ctx, userID, cart)
	return cart, nil
}

// RemoveItem pulls the (vendor, service) line. A missing line is a no-op;
// a missing cart is ErrNotFound.
func (s *CartService) RemoveItem(ctx context.Context, userID, vendorID, serviceName string) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	verr := &ValidationError{}
	verr.require("vendorId", vendorID)
	verr.require("serviceName", serviceName)
	if !verr.empty() {
		return nil, verr
	}

	cart, err := s.repo.RemoveItem(ctx, userID, vendorID, serviceName)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, fmt.Errorf("%w: cart for user %s", ErrNotFound, userID)
		}
		logger.FromContext(ctx).Error("repo remove item failed", "user_id", userID, "error", err)
		return nil, storeError("remove item", err)
	}

	s.store(ctx, userID, cart)
	return cart, nil
}

// Clear empties the cart, creating it when absent. It is idempotent.
func (s *CartService) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	cart, err := s.repo.ClearCart(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Error("repo clear cart failed", "user_id", userID, "error", err)
		return nil, storeError("clear cart", err)
	}

	s.store(ctx, userID, cart)
	return cart, nil
}

// Empty drops every item of the user's cart. A user without a cart keeps
// having none and gets an empty item list back.
func (s *CartService) Empty(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	cart, err := s.repo.EmptyCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		logger.FromContext(ctx).Warn("no cart to empty", "user_id", userID)
		return []domain.CartItem{}, nil
	}
	if err != nil {
		logger.FromContext(ctx).Error("repo empty cart failed", "user_id", userID, "error", err)
		return nil, storeError("empty cart", err)
	}

	s.store(ctx, userID, cart)
	return cart.Items, nil
}

func validateItem(userID string, in ItemInput) (domain.CartItem, error) {
	verr := &ValidationError{}
	verr.require("userId", userID)
	verr.require("vendorId", in.VendorID)
	verr.require("serviceName", in.ServiceName)
	verr.require("category", in.Category)
	if in.Price == nil {
		verr.Missing = append(verr.Missing, "price")
	} else if in.Price.IsNegative() {
		verr.Invalid = append(verr.Invalid, "price")
	}
	if !verr.empty() {
		return domain.CartItem{}, verr
	}

	return domain.CartItem{
		VendorID:    in.VendorID,
		ServiceName: in.ServiceName,
		Category:    in.Category,
		Price:       *in.Price,
		ImageURL:    in.ImageURL,
	}, nil
}

func emptyCart(userID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// fill caches a cart read from the store. It runs after the read returned,
// so it only ever adds a missing entry and never replaces one a mutation wrote.
func (s *CartService) fill(userID string, cart *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Fill(ctx, userID, cart); err != nil {
		logger.FromContext(ctx).Warn("cart cache fill failed", "user_id", userID, "error", err)
	}
}

// store writes a freshly persisted cart through to the cache. When that
// fails the entry is dropped so a later read goes to the store.
func (s *CartService) store(ctx context.Context, userID string, cart *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	err := s.cache.Store(ctx, userID, cart)
	if err == nil {
		return
	}
	logger.FromContext(ctx).Warn("cart cache store failed", "user_id", userID, "error", err)
	if err := s.cache.Delete(ctx, userID); err != nil {
		logger.FromContext(ctx).Warn("cart cache invalidate failed", "user_id", userID, "error", err)
	}
}
