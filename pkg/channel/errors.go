package channel

import "errors"

var (
	// ErrAttach is wrapped by every failure to create, open or map a
	// region or semaphore.
	ErrAttach = errors.New("channel attach failed")

	// ErrRecordTooLarge is returned by Write when a record and its
	// terminator do not fit in the region.
	ErrRecordTooLarge = errors.New("record exceeds region capacity")

	// ErrClosed is returned by operations on a closed region or semaphore.
	ErrClosed = errors.New("channel closed")

	// ErrUnsupported is returned on platforms without the needed primitives.
	ErrUnsupported = errors.New("shared memory channel not supported on this platform")
)
