//go:build !linux

package channel

import "fmt"

// CreateRegion is not available on this platform
func CreateRegion(key, capacity int) (Region, error) {
	return nil, fmt.Errorf("%w: %w", ErrAttach, ErrUnsupported)
}

// OpenRegion is not available on this platform
func OpenRegion(key, capacity int) (Region, error) {
	return nil, fmt.Errorf("%w: %w", ErrAttach, ErrUnsupported)
}

// OpenOrCreateSemaphore is not available on this platform
func OpenOrCreateSemaphore(name string) (Semaphore, error) {
	return nil, fmt.Errorf("%w: %w", ErrAttach, ErrUnsupported)
}

// OpenSemaphore is not available on this platform
func OpenSemaphore(name string) (Semaphore, error) {
	return nil, fmt.Errorf("%w: %w", ErrAttach, ErrUnsupported)
}
