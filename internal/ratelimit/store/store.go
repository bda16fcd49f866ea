// Package store keeps sliding-window request counters keyed by client.
package store

import (
	"context"
	"math"
	"time"

	"votacao/internal/ratelimit/models"
)

type Store interface {
	// Allow records one request for key if fewer than limit were recorded
	// within the trailing window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

func retryAfter(now, resetAt time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
