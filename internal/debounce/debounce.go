// Package debounce implements a generic time+count-gated flusher, the
// batching primitive that drives both a tournament's per-member
// self-update stream and its room-wide aggregate broadcast.
//
// The design is grounded in the teacher repo's single-goroutine,
// single-owner-of-state loop (internal/lobby.Lobby.loop), generalized
// from a fixed message enum to a generic item buffer, and in
// _examples/original_source/app/src/core/debouncer.rs's two-timer
// race between a quiet-period deadline and an absolute max-wait
// deadline.
package debounce

import (
	"errors"
	"sync"
	"time"
)

// ErrShutdown is returned by Push once the debouncer has been shut
// down; the caller can distinguish a rejected push from an accepted
// one.
var ErrShutdown = errors.New("debounce: pushed after shutdown")

// Config carries the three thresholds spec.md §4.1 names.
type Config struct {
	// Debounce is the quiet period required after a push before flush
	// runs, reset by every subsequent push.
	Debounce time.Duration
	// MaxStack is the buffered item count that forces an immediate
	// flush.
	MaxStack int
	// MaxWait bounds the age of the oldest buffered item; it is armed
	// once, on the first push into an empty buffer, and never reset.
	MaxWait time.Duration
}

// Debouncer batches items of type T and invokes flush with the
// accumulated batch, in push order, at most once concurrently.
type Debouncer[T any] struct {
	cfg   Config
	flush func([]T)

	mu       sync.Mutex
	buf      []T
	shutdown bool

	debounceTimer *time.Timer
	waitTimer     *time.Timer
	// timerGen only advances when a flush actually runs (stopTimersLocked).
	// A timer callback captures the generation in effect when it was
	// armed and compares against the current value when it fires; this
	// is what lets the max-wait timer, armed once on the first push into
	// an empty buffer, stay valid across any number of later pushes that
	// never themselves cause a flush.
	timerGen uint64

	flushMu sync.Mutex // serializes concurrent flush invocations
}

// New creates a Debouncer that calls flush with each batch. flush is
// invoked synchronously from whichever goroutine triggers the flush
// (a Push, a timer fire, or an explicit FlushNow/Shutdown); the
// Debouncer guarantees flush is never entered re-entrantly for the
// same instance.
func New[T any](flush func([]T), cfg Config) *Debouncer[T] {
	return &Debouncer[T]{
		cfg:   cfg,
		flush: flush,
	}
}

// Push appends item to the buffer. If the buffer has reached
// cfg.MaxStack, a flush runs immediately (synchronously, before Push
// returns). Otherwise the quiet-period timer is (re)armed, and, on
// the first push into an empty buffer, the max-wait deadline timer is
// armed once.
func (d *Debouncer[T]) Push(item T) error {
	d.mu.Lock()
	if d.shutdown {
		d.mu.Unlock()
		return ErrShutdown
	}

	firstInBuffer := len(d.buf) == 0
	d.buf = append(d.buf, item)
	gen := d.timerGen

	forceFlush := len(d.buf) >= d.cfg.MaxStack

	if forceFlush {
		d.stopTimersLocked()
		batch := d.takeLocked()
		d.mu.Unlock()
		d.runFlush(batch)
		return nil
	}

	if d.debounceTimer != nil {
		d.debounceTimer.Stop()
	}
	d.debounceTimer = time.AfterFunc(d.cfg.Debounce, func() { d.onTimerFire(gen) })

	if firstInBuffer {
		if d.waitTimer != nil {
			d.waitTimer.Stop()
		}
		d.waitTimer = time.AfterFunc(d.cfg.MaxWait, func() { d.onTimerFire(gen) })
	}

	d.mu.Unlock()
	return nil
}

func (d *Debouncer[T]) onTimerFire(gen uint64) {
	d.mu.Lock()
	if d.shutdown || gen != d.timerGen || len(d.buf) == 0 {
		d.mu.Unlock()
		return
	}
	d.stopTimersLocked()
	batch := d.takeLocked()
	d.mu.Unlock()
	d.runFlush(batch)
}

// FlushNow cancels any pending timers and, if the buffer is
// non-empty, invokes flush with the current batch.
func (d *Debouncer[T]) FlushNow() {
	d.mu.Lock()
	d.stopTimersLocked()
	batch := d.takeLocked()
	d.mu.Unlock()
	if len(batch) > 0 {
		d.runFlush(batch)
	}
}

// Shutdown flushes any pending batch and then refuses further pushes.
func (d *Debouncer[T]) Shutdown() {
	d.mu.Lock()
	d.stopTimersLocked()
	batch := d.takeLocked()
	d.shutdown = true
	d.mu.Unlock()
	if len(batch) > 0 {
		d.runFlush(batch)
	}
}

func (d *Debouncer[T]) runFlush(batch []T) {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()
	d.flush(batch)
}

func (d *Debouncer[T]) stopTimersLocked() {
	if d.debounceTimer != nil {
		d.debounceTimer.Stop()
		d.debounceTimer = nil
	}
	if d.waitTimer != nil {
		d.waitTimer.Stop()
		d.waitTimer = nil
	}
	d.timerGen++
}

func (d *Debouncer[T]) takeLocked() []T {
	batch := d.buf
	d.buf = nil
	return batch
}
