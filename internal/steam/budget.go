package steam

import (
	"context"
	"fmt"
	"time"

	"github.com/playlog/steamsync/internal/shared"
	"golang.org/x/time/rate"
)

// Budget is the shared token-bucket request budget consulted by every fetch,
// regardless of which account's sync run originated it.
type Budget struct {
	limiter *rate.Limiter
	maxWait time.Duration
}

// NewBudget creates a budget allowing requests tokens per window.
// Acquire blocks up to maxWait before failing with [shared.ErrRateLimited].
func NewBudget(requests int, window, maxWait time.Duration) *Budget {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	interval := window / time.Duration(requests)
	return &Budget{
		limiter: rate.NewLimiter(rate.Every(interval), requests),
		maxWait: maxWait,
	}
}

// Acquire blocks until a token is available or the bounded wait elapses.
func (b *Budget) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, b.maxWait)
	defer cancel()

	if err := b.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: no token within %s", shared.ErrRateLimited, b.maxWait)
	}
	return nil
}
