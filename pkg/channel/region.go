package channel

import (
	"fmt"
	"sync"
)

// Region is a fixed-capacity byte slot shared between processes.
//
// The logical content of a region is the bytes before the first NUL.
// Writers always terminate what they write; bytes after the terminator are
// left over from earlier records and carry no meaning.
type Region interface {
	// Capacity returns the size of the slot in bytes.
	Capacity() int

	// Snapshot copies the whole slot into dst, growing it if needed, and
	// returns the filled slice.
	Snapshot(dst []byte) []byte

	// Write replaces the slot content with record followed by a NUL byte.
	Write(record []byte) error

	// Close detaches the region from this process. It does not destroy it.
	Close() error
}

// checkFits validates that a record and its terminator fit in capacity
func checkFits(record []byte, capacity int) error {
	if len(record)+1 > capacity {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrRecordTooLarge, len(record)+1, capacity)
	}
	return nil
}

// MemRegion is an in-process Region backed by a byte slice
type MemRegion struct {
	mu     sync.Mutex
	buf    []byte
	writes int
	closed bool
}

// NewMemRegion creates a zeroed in-process region
func NewMemRegion(capacity int) *MemRegion {
	return &MemRegion{buf: make([]byte, capacity)}
}

// Capacity returns the size of the slot in bytes
func (r *MemRegion) Capacity() int {
	return len(r.buf)
}

// Snapshot copies the slot into dst
func (r *MemRegion) Snapshot(dst []byte) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(dst) < len(r.buf) {
		dst = make([]byte, len(r.buf))
	}
	dst = dst[:len(r.buf)]
	copy(dst, r.buf)
	return dst
}

// Write stores record and its terminator at the start of the slot
func (r *MemRegion) Write(record []byte) error {
	if err := checkFits(record, len(r.buf)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	copy(r.buf, record)
	r.buf[len(record)] = 0
	r.writes++
	return nil
}

// Writes returns how many records have been written
func (r *MemRegion) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

// Close marks the region closed for writing
func (r *MemRegion) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
