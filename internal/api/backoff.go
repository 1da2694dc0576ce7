package api

import (
	"context"
	"time"
)

// SleepFunc waits for d, returning early with the context error on cancellation
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the production SleepFunc
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Outcome is the terminal state of a retry loop
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeExhausted
	OutcomeAborted
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeAborted:
		return "aborted"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Retry retries an operation while it is throttled. The wait starts at
// InitialWait and doubles after every throttled attempt; any other error
// ends the loop at once.
type Retry struct {
	MaxAttempts int
	InitialWait time.Duration
	Sleep       SleepFunc

	// OnThrottle, if set, is called before each backoff wait
	OnThrottle func(attempt int, wait time.Duration, err error)
}

// RetryResult describes how a retry loop ended
type RetryResult struct {
	Outcome  Outcome
	Attempts int
	// Err is the last error seen; nil on success
	Err error
}

// Do runs op until it succeeds, fails for a reason other than throttling,
// the attempts run out, or ctx is cancelled.
func (r Retry) Do(ctx context.Context, op func(ctx context.Context) error) RetryResult {
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	wait := r.InitialWait
	var lastErr error

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return RetryResult{Outcome: OutcomeCancelled, Attempts: attempt - 1, Err: err}
		}

		err := op(ctx)
		if err == nil {
			return RetryResult{Outcome: OutcomeSucceeded, Attempts: attempt}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return RetryResult{Outcome: OutcomeCancelled, Attempts: attempt, Err: ctxErr}
		}
		if !IsThrottled(err) {
			return RetryResult{Outcome: OutcomeAborted, Attempts: attempt, Err: err}
		}
		lastErr = err

		if r.OnThrottle != nil {
			r.OnThrottle(attempt, wait, err)
		}
		if err := sleep(ctx, wait); err != nil {
			return RetryResult{Outcome: OutcomeCancelled, Attempts: attempt, Err: err}
		}
		wait *= 2
	}

	return RetryResult{Outcome: OutcomeExhausted, Attempts: r.MaxAttempts, Err: lastErr}
}
