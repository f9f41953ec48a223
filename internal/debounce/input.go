// Package debounce holds a fast-changing value and commits it once input has
// been idle for a fixed delay.
package debounce

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Option configures an Input.
type Option[T any] func(*Input[T])

// WithSanitizer cleans the value right before it is committed. The immediate
// Value is left as typed.
func WithSanitizer[T any](fn func(T) T) Option[T] {
	return func(in *Input[T]) { in.sanitize = fn }
}

func WithClock[T any](c clock.Clock) Option[T] {
	return func(in *Input[T]) { in.clock = c }
}

// Input is a trailing debouncer. Every Set re-arms a single timer; when it
// expires the latest value is sanitized and handed to settle. The initial
// value is never committed.
type Input[T any] struct {
	mu       sync.Mutex
	clock    clock.Clock
	delay    time.Duration
	settle   func(T)
	sanitize func(T) T

	value   T
	settled T
	timer   *clock.Timer
	gen     uint64
	pending bool
	closed  bool
}

func New[T any](initial T, settle func(T), delay time.Duration, opts ...Option[T]) *Input[T] {
	in := &Input[T]{
		clock:   clock.New(),
		delay:   delay,
		settle:  settle,
		value:   initial,
		settled: initial,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Set records v as the current value and restarts the idle window.
func (in *Input[T]) Set(v T) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	in.value = v
	in.pending = true
	if in.timer != nil {
		in.timer.Stop()
	}
	in.gen++
	gen := in.gen
	in.timer = in.clock.AfterFunc(in.delay, func() { in.fire(gen) })
}

// Value is what the user last typed.
func (in *Input[T]) Value() T {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.value
}

// Settled is the last committed (sanitized) value.
func (in *Input[T]) Settled() T {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.settled
}

// Pending reports whether a commit is scheduled.
func (in *Input[T]) Pending() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.pending
}

// Flush commits a scheduled value now instead of waiting for the timer.
func (in *Input[T]) Flush() {
	in.mu.Lock()
	if in.closed || !in.pending {
		in.mu.Unlock()
		return
	}
	if in.timer != nil {
		in.timer.Stop()
		in.timer = nil
	}
	in.gen++
	in.commitLocked()
}

// Close drops any scheduled commit. Later Sets are ignored.
func (in *Input[T]) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	in.pending = false
	if in.timer != nil {
		in.timer.Stop()
		in.timer = nil
	}
	in.gen++
}

func (in *Input[T]) fire(gen uint64) {
	in.mu.Lock()
	// a timer that fired before Stop took effect carries a stale generation
	if in.closed || gen != in.gen || !in.pending {
		in.mu.Unlock()
		return
	}
	in.timer = nil
	in.commitLocked()
}

// commitLocked is entered with mu held and releases it before calling settle.
func (in *Input[T]) commitLocked() {
	v := in.value
	in.pending = false
	sanitize, settle := in.sanitize, in.settle
	in.mu.Unlock()

	if sanitize != nil {
		v = sanitize(v)
	}
	in.mu.Lock()
	in.settled = v
	in.mu.Unlock()
	if settle != nil {
		settle(v)
	}
}
