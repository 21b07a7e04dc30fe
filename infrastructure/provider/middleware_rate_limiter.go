package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedProvider paces outbound summarization calls with a token
// bucket so one fan-out cannot burst past a vendor's request quota. The
// wait is interruptible by the shared cancellation signal.
type rateLimitedProvider struct {
	SummaryProvider
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces a requests-per-second
// limit with the given burst on the wrapped adapter.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next SummaryProvider) SummaryProvider {
		return &rateLimitedProvider{SummaryProvider: next, limiter: limiter}
	}
}

func (r *rateLimitedProvider) Summarize(ctx context.Context, text, modelID string) Outcome {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return failure(start, fmt.Sprintf("rate limit: %v", err))
	}

	outcome := r.SummaryProvider.Summarize(ctx, text, modelID)
	// Duration stays end-to-end from the caller's perspective, wait included.
	outcome.DurationMs = time.Since(start).Milliseconds()
	return outcome
}
