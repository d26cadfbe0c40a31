package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/hellodex/swapengine/logger"
	"github.com/rs/zerolog/log"
)

// Policy computes exponential backoff delays:
// delay = min(Base * 2^attempt, Max), optionally scaled by a uniform random
// factor in [0.5, 1.0). Rand is injectable so the jitter path is testable.
type Policy struct {
	Base   time.Duration
	Max    time.Duration
	Jitter bool
	Rand   func() float64 // nil uses math/rand
}

func DefaultPolicy() Policy {
	return Policy{
		Base:   1 * time.Second,
		Max:    30 * time.Second,
		Jitter: true,
	}
}

// Delay returns the backoff delay for a 0-indexed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	d := p.Base
	for i := 0; i < attempt && d < p.Max; i++ {
		d *= 2
	}
	if d > p.Max {
		d = p.Max
	}

	if p.Jitter {
		random := p.Rand
		if random == nil {
			random = rand.Float64
		}
		d = time.Duration(float64(d) * (0.5 + 0.5*random()))
	}

	return d
}

// policyBackOff adapts Policy to the backoff.BackOff interface.
type policyBackOff struct {
	policy  Policy
	attempt int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	d := b.policy.Delay(b.attempt)
	b.attempt++
	return d
}

func (b *policyBackOff) Reset() {
	b.attempt = 0
}

// Do invokes op up to maxAttempts times, sleeping per the Policy between
// attempts. Errors the retryable predicate rejects propagate immediately and
// unchanged; a nil predicate retries everything. Funds-moving calls must not
// go through Do; only read-only/query calls are safe to repeat.
func Do[T any](ctx context.Context, name string, policy Policy, maxAttempts int, retryable func(error) bool, op func() (T, error)) (T, error) {
	operation := func() (T, error) {
		v, err := op()
		if err != nil && retryable != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	attemptCount := 0
	notifyFunc := func(err error, backoffDelay time.Duration) {
		attemptCount++
		log.Warn().
			Str(logger.CategoryField, logger.CategoryRetry).
			Str("op", name).
			Int("attempt", attemptCount).
			Dur("delay", backoffDelay).
			Err(err).
			Msg("operation failed, retrying")
	}

	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return backoff.Retry(
		ctx,
		operation,
		backoff.WithBackOff(&policyBackOff{policy: policy}),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithNotify(notifyFunc),
	)
}
