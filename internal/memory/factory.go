package memory

import (
	"context"
	"strings"
)

// NewBackend picks the persistence backend from configuration: Redis when a
// redis URL is set, Postgres when a database URL is set, otherwise the
// in-memory backend. Redis wins when both are configured.
func NewBackend(ctx context.Context, redisURL, databaseURL string) (Backend, error) {
	if strings.TrimSpace(redisURL) != "" {
		return NewRedisBackend(ctx, redisURL)
	}
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresBackend(ctx, databaseURL)
	}
	return NewInMemoryBackend(), nil
}
