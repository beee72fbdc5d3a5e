package service

import (
	"context"
	"time"

	"github.com/fjod/swiftserve/internal/logger"
	"github.com/fjod/swiftserve/internal/repository"
	"github.com/sony/gobreaker/v2"
)

// VendorDirectory resolves vendor display names. Lookups sit behind a circuit
// breaker because the names only decorate booking history.
type VendorDirectory struct {
	repo repository.VendorRepository
	cb   *gobreaker.CircuitBreaker[map[string]string]
}

func NewVendorDirectory(repo repository.VendorRepository) *VendorDirectory {
	settings := gobreaker.Settings{
		Name:        "vendor-lookup",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.FromContext(context.Background()).Warn("circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &VendorDirectory{
		repo: repo,
		cb:   gobreaker.NewCircuitBreaker[map[string]string](settings),
	}
}

func (d *VendorDirectory) Names(ctx context.Context, ids []string) (map[string]string, error) {
	return d.cb.Execute(func() (map[string]string, error) {
		return d.repo.VendorNames(ctx, ids)
	})
}
