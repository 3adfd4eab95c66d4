package channel

import (
	"fmt"
	"sync"
)

// Factory attaches processes to a channel. The server creates the region
// and, once it has looked at the region, the semaphore. Clients open both
// and cannot attach until the semaphore exists.
type Factory interface {
	// CreateRegion attaches to the region, creating it if needed.
	CreateRegion(key, capacity int) (Region, error)

	// CreateSemaphore opens the semaphore, creating it free if needed.
	CreateSemaphore(name string) (Semaphore, error)

	// Open attaches to an existing region and semaphore.
	Open(key, capacity int, semaphore string) (*Synchronizer, error)
}

// SharedFactory attaches to System V shared memory and a futex semaphore
type SharedFactory struct{}

// NewSharedFactory creates the cross-process factory
func NewSharedFactory() Factory {
	return &SharedFactory{}
}

// CreateRegion attaches the System V segment as the server
func (f *SharedFactory) CreateRegion(key, capacity int) (Region, error) {
	return CreateRegion(key, capacity)
}

// CreateSemaphore opens or creates the futex semaphore as the server
func (f *SharedFactory) CreateSemaphore(name string) (Semaphore, error) {
	return OpenOrCreateSemaphore(name)
}

// Open attaches as a client
func (f *SharedFactory) Open(key, capacity int, semaphore string) (*Synchronizer, error) {
	region, err := OpenRegion(key, capacity)
	if err != nil {
		return nil, err
	}
	sem, err := OpenSemaphore(semaphore)
	if err != nil {
		_ = region.Close()
		return nil, err
	}
	return NewSynchronizer(region, sem), nil
}

// LocalFactory hands out in-process channels so a server and its clients
// can run inside one process. Handles returned by Open share the created
// region and semaphore; closing them leaves the shared state alone.
type LocalFactory struct {
	mu     sync.Mutex
	region *MemRegion
	sem    *LocalSemaphore
}

// NewLocalFactory creates an empty in-process factory
func NewLocalFactory() *LocalFactory {
	return &LocalFactory{}
}

// CreateRegion makes the region on first use
func (f *LocalFactory) CreateRegion(key, capacity int) (Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.region == nil {
		f.region = NewMemRegion(capacity)
	}
	return f.region, nil
}

// CreateSemaphore makes the semaphore on first use
func (f *LocalFactory) CreateSemaphore(name string) (Semaphore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sem == nil {
		f.sem = NewLocalSemaphore(name)
	}
	return f.sem, nil
}

// Open returns a handle on the channel made by CreateRegion and
// CreateSemaphore
func (f *LocalFactory) Open(key, capacity int, semaphore string) (*Synchronizer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.region == nil {
		return nil, fmt.Errorf("%w: no local channel %d", ErrAttach, key)
	}
	if f.sem == nil {
		return nil, fmt.Errorf("%w: no local semaphore %s", ErrAttach, semaphore)
	}
	return NewSynchronizer(sharedRegion{f.region}, sharedSemaphore{f.sem}), nil
}

// Region returns the created region, or nil
func (f *LocalFactory) Region() *MemRegion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.region
}

// Semaphore returns the created semaphore, or nil
func (f *LocalFactory) Semaphore() *LocalSemaphore {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sem
}

type sharedRegion struct{ Region }

func (sharedRegion) Close() error { return nil }

type sharedSemaphore struct{ Semaphore }

func (sharedSemaphore) Close() error  { return nil }
func (sharedSemaphore) Unlink() error { return nil }
