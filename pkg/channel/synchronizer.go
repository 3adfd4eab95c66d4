package channel

import (
	"context"
	"fmt"
)

// Synchronizer runs the publish/release handshake over a region and a
// semaphore.
type Synchronizer struct {
	region Region
	sem    Semaphore
}

// NewSynchronizer pairs a region with the semaphore guarding it
func NewSynchronizer(region Region, sem Semaphore) *Synchronizer {
	return &Synchronizer{region: region, sem: sem}
}

// Region returns the guarded region
func (s *Synchronizer) Region() Region {
	return s.region
}

// Semaphore returns the guarding semaphore
func (s *Synchronizer) Semaphore() Semaphore {
	return s.sem
}

// Publish acquires exclusion and writes record into the region. It returns
// with the semaphore still held; the consumer releases it once the record
// has been applied.
func (s *Synchronizer) Publish(ctx context.Context, record []byte) error {
	// size is checked before acquiring so a bad record never holds the lock
	if err := checkFits(record, s.region.Capacity()); err != nil {
		return err
	}

	if err := s.sem.Acquire(ctx); err != nil {
		return fmt.Errorf("failed to acquire %s: %w", s.sem.Name(), err)
	}

	if err := s.region.Write(record); err != nil {
		// nothing was published, so nobody else will release it
		if rerr := s.sem.Release(); rerr != nil {
			return fmt.Errorf("failed to write record: %w (release also failed: %v)", err, rerr)
		}
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Release hands exclusion back after a drained record has been processed
func (s *Synchronizer) Release() error {
	if err := s.sem.Release(); err != nil {
		return fmt.Errorf("failed to release %s: %w", s.sem.Name(), err)
	}
	return nil
}
