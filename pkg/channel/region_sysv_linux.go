//go:build linux

package channel

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// minRegionCapacity keeps room for the atomically published head word
const minRegionCapacity = 8

// SysvRegion is a Region backed by a System V shared memory segment
// identified by a numeric key.
type SysvRegion struct {
	key int
	id  int

	mu  sync.Mutex
	mem []byte
}

// CreateSysvRegion creates the segment for key if it does not exist and
// attaches it. Permissions are owner read/write, group and other read.
func CreateSysvRegion(key, capacity int) (*SysvRegion, error) {
	return attachSysv(key, capacity, unix.IPC_CREAT|0644)
}

// OpenSysvRegion attaches an existing segment. It fails if no process has
// created the segment for key.
func OpenSysvRegion(key, capacity int) (*SysvRegion, error) {
	return attachSysv(key, capacity, 0644)
}

// CreateRegion is CreateSysvRegion behind the Region interface
func CreateRegion(key, capacity int) (Region, error) {
	r, err := CreateSysvRegion(key, capacity)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// OpenRegion is OpenSysvRegion behind the Region interface
func OpenRegion(key, capacity int) (Region, error) {
	r, err := OpenSysvRegion(key, capacity)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func attachSysv(key, capacity, flag int) (*SysvRegion, error) {
	if capacity < minRegionCapacity {
		return nil, fmt.Errorf("%w: capacity %d is below minimum %d", ErrAttach, capacity, minRegionCapacity)
	}

	id, err := unix.SysvShmGet(key, capacity, flag)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to locate shared memory segment for key %d: %w", ErrAttach, key, err)
	}

	mem, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to attach shared memory segment %d: %w", ErrAttach, id, err)
	}
	if len(mem) < capacity {
		_ = unix.SysvShmDetach(mem)
		return nil, fmt.Errorf("%w: segment %d is %d bytes, need %d", ErrAttach, id, len(mem), capacity)
	}

	return &SysvRegion{key: key, id: id, mem: mem[:capacity]}, nil
}

// Key returns the System V key of the segment
func (r *SysvRegion) Key() int {
	return r.key
}

// Capacity returns the size of the slot in bytes
func (r *SysvRegion) Capacity() int {
	return len(r.mem)
}

// Snapshot copies the slot into dst
func (r *SysvRegion) Snapshot(dst []byte) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(dst) < len(r.mem) {
		dst = make([]byte, len(r.mem))
	}
	dst = dst[:len(r.mem)]
	copy(dst, r.mem)
	return dst
}

// Write publishes record followed by a NUL byte.
//
// The first word of the slot is cleared before the body is copied and
// stored last, so a concurrent reader sees either an empty record, the
// previous record, or the new one with its head in place.
func (r *SysvRegion) Write(record []byte) error {
	if err := checkFits(record, len(r.mem)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mem == nil {
		return ErrClosed
	}

	var head [4]byte
	copy(head[:], record)

	word := (*uint32)(unsafe.Pointer(&r.mem[0]))
	atomic.StoreUint32(word, 0)
	if len(record) >= len(head) {
		copy(r.mem[len(head):], record[len(head):])
		r.mem[len(record)] = 0
	}
	atomic.StoreUint32(word, *(*uint32)(unsafe.Pointer(&head[0])))
	return nil
}

// Close detaches the segment. The segment itself stays in the system.
func (r *SysvRegion) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mem == nil {
		return nil
	}
	mem := r.mem[:cap(r.mem)]
	r.mem = nil
	if err := unix.SysvShmDetach(mem); err != nil {
		return fmt.Errorf("failed to detach shared memory segment %d: %w", r.id, err)
	}
	return nil
}
