package channel

import (
	"context"
	"sync"
)

// Semaphore is a named binary semaphore shared between processes.
//
// The value is either 1 (free) or 0 (held). Release on a free semaphore
// leaves it free; it never counts above one.
type Semaphore interface {
	// Name returns the name the semaphore was opened with.
	Name() string

	// Acquire blocks until the semaphore is free and takes it. It returns
	// ctx.Err() if ctx is done first.
	Acquire(ctx context.Context) error

	// Release frees the semaphore, waking one waiter.
	Release() error

	// Held reports whether the semaphore is currently taken.
	Held() bool

	// Close releases this process's handle.
	Close() error

	// Unlink removes the name so later opens fail. Existing handles keep
	// working until closed.
	Unlink() error
}

// LocalSemaphore is an in-process Semaphore. It counts Close and Unlink
// calls so callers can check teardown happened exactly once.
type LocalSemaphore struct {
	name  string
	slot  chan struct{}
	mu    sync.Mutex
	stats LocalSemaphoreStats
}

// LocalSemaphoreStats counts calls made on a LocalSemaphore
type LocalSemaphoreStats struct {
	Acquires int
	Releases int
	Closes   int
	Unlinks  int
}

// NewLocalSemaphore creates a free in-process semaphore
func NewLocalSemaphore(name string) *LocalSemaphore {
	s := &LocalSemaphore{
		name: name,
		slot: make(chan struct{}, 1),
	}
	s.slot <- struct{}{}
	return s
}

// Name returns the semaphore name
func (s *LocalSemaphore) Name() string {
	return s.name
}

// Acquire takes the semaphore or waits for ctx
func (s *LocalSemaphore) Acquire(ctx context.Context) error {
	select {
	case <-s.slot:
		s.mu.Lock()
		s.stats.Acquires++
		s.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the semaphore if it is held
func (s *LocalSemaphore) Release() error {
	s.mu.Lock()
	s.stats.Releases++
	s.mu.Unlock()

	select {
	case s.slot <- struct{}{}:
	default:
	}
	return nil
}

// Held reports whether the semaphore is taken
func (s *LocalSemaphore) Held() bool {
	return len(s.slot) == 0
}

// Close records a close
func (s *LocalSemaphore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Closes++
	return nil
}

// Unlink records an unlink
func (s *LocalSemaphore) Unlink() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Unlinks++
	return nil
}

// Stats returns a copy of the call counters
func (s *LocalSemaphore) Stats() LocalSemaphoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
