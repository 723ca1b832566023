package graph

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// NodePolicy configures how the engine executes one node. It is attached at
// registration with AddWithPolicy; nodes added with Add use the zero policy.
type NodePolicy struct {
	// Timeout bounds a single attempt. Zero falls back to the engine's
	// default node timeout.
	Timeout time.Duration

	// Retry re-executes the node on retryable failures. Nil means one
	// attempt.
	Retry *RetryPolicy
}

// RetryPolicy configures automatic retries for transient node failures.
// Delays grow exponentially with jitter: min(BaseDelay*2^attempt, MaxDelay)
// plus up to BaseDelay of jitter.
type RetryPolicy struct {
	// MaxAttempts counts the initial attempt; 1 disables retries.
	MaxAttempts int

	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Retryable decides whether an error is worth another attempt. Nil
	// treats every error as final.
	Retryable func(error) bool
}

// ErrInvalidRetryPolicy is returned for a RetryPolicy that can never run.
var ErrInvalidRetryPolicy = errors.New("invalid retry policy")

// Validate checks the policy's constraints.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidRetryPolicy)
	}
	if rp.MaxDelay > 0 && rp.BaseDelay > 0 && rp.MaxDelay < rp.BaseDelay {
		return fmt.Errorf("%w: max delay below base delay", ErrInvalidRetryPolicy)
	}
	return nil
}

func (p NodePolicy) validate() error {
	if p.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if p.Retry != nil {
		return p.Retry.Validate()
	}
	return nil
}

func (p NodePolicy) attempts() int {
	if p.Retry == nil || p.Retry.MaxAttempts < 1 {
		return 1
	}
	return p.Retry.MaxAttempts
}

func (p NodePolicy) shouldRetry(err error) bool {
	if p.Retry == nil || p.Retry.Retryable == nil {
		return false
	}
	var cfgErr *ConfigError
	var valErr *ValidationError
	if errors.As(err, &cfgErr) || errors.As(err, &valErr) {
		return false
	}
	return p.Retry.Retryable(err)
}

// computeBackoff returns the delay before retry number attempt (0-based).
func computeBackoff(attempt int, base, maxDelay time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base * (1 << attempt)
	if maxDelay > 0 && (delay > maxDelay || delay <= 0) {
		delay = maxDelay
	}

	var jitter time.Duration
	if rng != nil {
		jitter = time.Duration(rng.Int63n(int64(base)))
	} else {
		jitter = time.Duration(rand.Int63n(int64(base))) // #nosec G404 -- retry jitter, not security
	}
	return delay + jitter
}

// invokeNode runs one attempt of node under the given timeout and turns
// panics and deadline overruns into NodeErrors.
func invokeNode[S, P any](ctx context.Context, node Node[S, P], nodeID string, state S, timeout time.Duration) (patch P, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = &NodeError{
				Message: fmt.Sprintf("panic: %v", r),
				Code:    CodeNodePanic,
				NodeID:  nodeID,
			}
		}
	}()

	result := node.Run(ctx, state)
	if result.Err != nil {
		if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result.Delta, &NodeError{
				Message: fmt.Sprintf("exceeded timeout of %v", timeout),
				Code:    CodeNodeTimeout,
				NodeID:  nodeID,
				Cause:   result.Err,
			}
		}
		return result.Delta, result.Err
	}
	return result.Delta, nil
}
