package common

import (
	"context"
	"time"
)

// ShutdownTimeout bounds graceful HTTP shutdown
const ShutdownTimeout = 30 * time.Second

func CreateContext(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

// WithOptionalTimeout applies a deadline only when d is positive
func WithOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
