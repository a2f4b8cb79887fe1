package ports

import (
	"context"

	"github.com/samirrijal/ridepool/internal/core/domain"
)

// Notifier fans out lifecycle notifications to a user. Delivery is
// fire-and-forget: callers log failures and move on, a lifecycle transition
// is never rolled back because a notification could not be sent.
type Notifier interface {
	Notify(ctx context.Context, userID string, n domain.Notification) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
