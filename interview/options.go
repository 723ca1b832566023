package interview

import (
	"context"
	"errors"
	"time"

	"github.com/NishanthN27/Final-Year/graph"
)

// Option configures an Interviewer.
type Option func(*settings) error

type settings struct {
	followUps     bool
	maxFollowUps  int
	nodeTimeout   time.Duration
	retry         *graph.RetryPolicy
	profiles      ProfileStore
	clock         func() time.Time
	engineOptions []graph.Option
}

func defaultSettings() settings {
	return settings{
		followUps: true,
		retry: &graph.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    2 * time.Second,
			Retryable:   Retryable,
		},
		clock: time.Now,
	}
}

// WithMaxFollowUps caps the follow-up questions one plan item may receive.
// Zero, the default, leaves them unbounded: a plan item is only popped once
// an answer no longer needs user input. Bound runaway sessions with
// graph.WithMaxSteps instead.
func WithMaxFollowUps(n int) Option {
	return func(s *settings) error {
		if n < 0 {
			return &graph.ConfigError{Code: graph.CodeInvalidOption, Message: "max follow-ups cannot be negative"}
		}
		s.maxFollowUps = n
		return nil
	}
}

// WithoutFollowUps never asks follow-up questions; every answer completes
// its plan item.
func WithoutFollowUps() Option {
	return func(s *settings) error {
		s.followUps = false
		return nil
	}
}

// WithNodeTimeout bounds each collaborator call made by a node.
func WithNodeTimeout(d time.Duration) Option {
	return func(s *settings) error {
		if d < 0 {
			return &graph.ConfigError{Code: graph.CodeInvalidOption, Message: "node timeout cannot be negative"}
		}
		s.nodeTimeout = d
		return nil
	}
}

// WithRetry replaces the retry policy of collaborator-calling nodes. Nil
// disables retries.
func WithRetry(rp *graph.RetryPolicy) Option {
	return func(s *settings) error {
		if rp != nil {
			if err := rp.Validate(); err != nil {
				return &graph.ConfigError{Code: graph.CodeInvalidPolicy, Message: err.Error()}
			}
		}
		s.retry = rp
		return nil
	}
}

// WithProfileStore loads profiles at session start and saves them when the
// session ends.
func WithProfileStore(ps ProfileStore) Option {
	return func(s *settings) error {
		s.profiles = ps
		return nil
	}
}

// WithClock overrides the time source for question and profile timestamps
// and for checkpoints.
func WithClock(now func() time.Time) Option {
	return func(s *settings) error {
		if now == nil {
			return &graph.ConfigError{Code: graph.CodeInvalidOption, Message: "clock cannot be nil"}
		}
		s.clock = now
		return nil
	}
}

// WithEngineOptions passes options through to the underlying graph engine.
func WithEngineOptions(opts ...graph.Option) Option {
	return func(s *settings) error {
		s.engineOptions = append(s.engineOptions, opts...)
		return nil
	}
}

// Retryable is the default retry predicate for collaborator failures:
// everything except cancellation and unknown resume items.
func Retryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrUnknownItem)
}
