package out

import (
	"context"
	"time"
)

// Cache defines the outbound port for caching. Kept to the operations the
// engine actually needs: template cache and notification debounce.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
}

// NotificationSender delivers a rendered notification over one channel.
// Implementations must be independent: a failure on one channel never blocks
// the others.
type NotificationSender interface {
	Send(ctx context.Context, userID string, channel string, title, body string) error
}
