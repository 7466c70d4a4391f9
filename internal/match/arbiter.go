// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Verdict is an arbiter's decision on one course and candidate line.
type Verdict struct {
	Match         bool    `json:"match"`
	Confidence    float64 `json:"confidence"`
	Justification string  `json:"justification"`
}

// Arbiter decides ambiguous course matches. Implementations must be safe
// for concurrent use; the semantic judges live in package judge.
type Arbiter interface {
	Name() string
	Judge(ctx context.Context, course, line, excerpt string) (Verdict, error)
}

// Conservative never confirms a match and never fails. It is used when
// no semantic provider is configured.
type Conservative struct{}

// Name implements Arbiter.
func (Conservative) Name() string { return "conservative" }

// Judge implements Arbiter.
func (Conservative) Judge(context.Context, string, string, string) (Verdict, error) {
	return Verdict{
		Match:         false,
		Confidence:    1,
		Justification: "no semantic arbiter configured; ambiguous lines are not matched",
	}, nil
}

// Unavailable is an arbiter whose provider could not be set up. Every
// call fails with Err, which marks the matching as degraded.
type Unavailable struct {
	Provider string
	Err      error
}

// Name implements Arbiter.
func (u Unavailable) Name() string { return u.Provider }

// Judge implements Arbiter.
func (u Unavailable) Judge(context.Context, string, string, string) (Verdict, error) {
	return Verdict{}, u.Err
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// judgeWithRetry calls the arbiter with exponential backoff. Each attempt
// gets its own timeout.
func judgeWithRetry(ctx context.Context, a Arbiter, course, line, excerpt string, maxRetries int, timeout time.Duration) (Verdict, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Verdict{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		v, err := judgeOnce(ctx, a, course, line, excerpt, timeout)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return Verdict{}, ctx.Err()
		}
	}
	return Verdict{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func judgeOnce(ctx context.Context, a Arbiter, course, line, excerpt string, timeout time.Duration) (Verdict, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	v, err := a.Judge(ctx, course, line, excerpt)
	if err != nil {
		return Verdict{}, err
	}
	if v.Confidence < 0 || v.Confidence > 1 || math.IsNaN(v.Confidence) {
		return Verdict{}, fmt.Errorf("confidence %v out of range [0,1]", v.Confidence)
	}
	return v, nil
}
