package cache

import (
	"context"
	"errors"

	"github.com/fjod/swiftserve/internal/domain"
)

// CartCache is a read-through copy of persisted carts. It is never the
// source of truth. Entries carry the cart's UpdatedAt as a version, so an
// older cart can never replace a newer one.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	// Store writes a cart just persisted by a mutation, unless the cached
	// copy is newer.
	Store(ctx context.Context, userID string, cart *domain.Cart) error
	// Fill caches a cart read from the store, only when no entry exists.
	Fill(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
