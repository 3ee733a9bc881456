package tts

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy bounds the attempts made against a single provider.
// The delay before retry attempt n (0-based) is BaseDelay<<n + Offset,
// i.e. exponential backoff with a fixed additive offset. No delay is
// inserted after the final attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Offset      time.Duration
}

// DefaultRetryPolicy matches the gateway's historical behavior:
// three attempts with 1.5s and 2.5s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Offset:      500 * time.Millisecond,
	}
}

// Backoff returns the delay inserted after failed attempt index n.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay<<attempt + p.Offset
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	return p
}

// Cascade tries providers in fixed priority order, wrapping each in a
// bounded retry loop with backoff. The first result that passes the
// validator wins; later providers are never tried after a success.
// Providers share no backoff state, so the attempt counter resets for
// each provider.
//
// Cascade itself implements Provider, so a handler only ever sees one
// synthesis backend.
type Cascade struct {
	providers []Provider
	policy    RetryPolicy
	validator Validator
}

var _ Provider = (*Cascade)(nil)

// NewCascade creates a Cascade over providers in priority order.
func NewCascade(validator Validator, policy RetryPolicy, providers ...Provider) *Cascade {
	return &Cascade{
		providers: providers,
		policy:    policy.normalized(),
		validator: validator,
	}
}

func (c *Cascade) Name() string { return "cascade" }

// Providers returns the configured providers in priority order.
func (c *Cascade) Providers() []Provider { return c.providers }

// Synthesize resolves speech through the provider chain. All per-attempt
// failures (timeouts, bad exits, invalid output) are retried identically
// and never surfaced individually; only full exhaustion bubbles up.
func (c *Cascade) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if len(c.providers) == 0 {
		return nil, ErrNoProviders
	}

	for _, p := range c.providers {
		res, err := c.tryProvider(ctx, p, req)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("tts provider exhausted, falling through",
			"provider", p.Name(),
			"attempts", c.policy.MaxAttempts,
			"error", err,
		)
	}

	return nil, fmt.Errorf("%w: tried %d provider(s)", ErrAllProvidersFailed, len(c.providers))
}

func (c *Cascade) tryProvider(ctx context.Context, p Provider, req SynthesisRequest) (*SynthesisResult, error) {
	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.policy.Backoff(attempt - 1)):
			}
		}

		start := time.Now()
		res, err := p.Synthesize(ctx, req)
		if err == nil {
			err = c.validator.Validate(res)
			if err == nil {
				slog.Info("tts synthesis ok",
					"provider", p.Name(),
					"bytes", len(res.Audio),
					"attempt", attempt+1,
					"duration", time.Since(start).Round(time.Millisecond),
				)
				return res, nil
			}
		}
		lastErr = err
		slog.Warn("tts attempt failed",
			"provider", p.Name(),
			"attempt", attempt+1,
			"duration", time.Since(start).Round(time.Millisecond),
			"error", err,
		)
	}
	return nil, fmt.Errorf("%s exhausted after %d attempts: %w", p.Name(), c.policy.MaxAttempts, lastErr)
}
