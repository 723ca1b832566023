package graph

import (
	"time"

	"github.com/NishanthN27/Final-Year/graph/store"
)

// Option configures an Engine at construction.
//
// Example:
//
//	eng := graph.New(reducer, st, emitter,
//	    graph.WithMaxSteps(200),
//	    graph.WithLocker(store.NewRedisLocker(client, "interview:", time.Minute)),
//	)
type Option func(*engineConfig) error

type engineConfig struct {
	maxSteps       int
	locker         store.Locker
	metrics        *PrometheusMetrics
	defaultTimeout time.Duration
	clock          func() time.Time
}

// WithMaxSteps bounds the number of steps one Run or Resume call may
// execute. Zero means no limit. Exceeding it returns ErrMaxStepsExceeded and
// leaves the checkpoint at the last completed step.
func WithMaxSteps(n int) Option {
	return func(cfg *engineConfig) error {
		if n < 0 {
			return &ConfigError{Code: CodeInvalidOption, Message: "max steps cannot be negative"}
		}
		cfg.maxSteps = n
		return nil
	}
}

// WithLocker replaces the default in-process session locker. Use a
// store.RedisLocker when several processes share one checkpoint store.
func WithLocker(l store.Locker) Option {
	return func(cfg *engineConfig) error {
		if l == nil {
			return &ConfigError{Code: CodeInvalidOption, Message: "locker cannot be nil"}
		}
		cfg.locker = l
		return nil
	}
}

// WithMetrics records Prometheus metrics for node executions and session
// transitions.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(cfg *engineConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithDefaultNodeTimeout applies a timeout to every node without its own
// NodePolicy.Timeout. Zero, the default, leaves nodes unbounded.
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		if d < 0 {
			return &ConfigError{Code: CodeInvalidOption, Message: "default node timeout cannot be negative"}
		}
		cfg.defaultTimeout = d
		return nil
	}
}

// WithClock overrides the time source used for checkpoint timestamps and
// events.
func WithClock(now func() time.Time) Option {
	return func(cfg *engineConfig) error {
		if now == nil {
			return &ConfigError{Code: CodeInvalidOption, Message: "clock cannot be nil"}
		}
		cfg.clock = now
		return nil
	}
}
