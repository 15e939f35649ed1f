package jobx

import (
	"time"

	"github.com/google/uuid"
)

// Options tunes the runner.
type Options struct {
	Queue           string
	Concurrency     int
	MaxAttempts     int
	RetryDelay      time.Duration
	PromoteInterval time.Duration
	PullTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func defaultOptions() Options {
	return Options{
		Queue:           "default",
		Concurrency:     4,
		MaxAttempts:     3,
		RetryDelay:      30 * time.Second,
		PromoteInterval: time.Second,
		PullTimeout:     5 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Option is a functional option for the runner.
type Option func(*Options)

// WithQueue sets the queue the runner produces to and consumes from.
func WithQueue(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.Queue = name
		}
	}
}

// WithConcurrency sets the worker goroutine count.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithMaxAttempts sets the per-task attempt budget.
func WithMaxAttempts(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// WithRetryDelay sets the backoff before a failed task runs again.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) {
		o.RetryDelay = d
	}
}

// WithShutdownTimeout bounds the drain on shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ShutdownTimeout = d
	}
}

func newTaskID() string {
	return uuid.NewString()
}
