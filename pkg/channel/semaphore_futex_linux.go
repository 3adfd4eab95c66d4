//go:build linux

package channel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	semaphoreFileSize = 4
	semaphorePrefix   = "shmkv-sem."

	// acquireWakeInterval bounds each futex sleep so a cancelled context
	// is noticed. It does not bound the total wait.
	acquireWakeInterval = 100 * time.Millisecond
)

// FutexSemaphore is a named binary semaphore stored as a single futex word
// in a small shared file, 1 when free and 0 when held.
type FutexSemaphore struct {
	name string
	path string

	mu   sync.Mutex
	file *os.File
	mem  []byte
	word *uint32
}

// OpenOrCreateSemaphore opens the named semaphore, creating it free if it
// does not exist yet. Creation is atomic: the file is initialised under a
// temporary name and linked into place, so no process ever maps a
// half-initialised semaphore.
func OpenOrCreateSemaphore(name string) (Semaphore, error) {
	path := semaphorePath(name)

	for {
		s, err := openSemaphoreFile(name, path)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		err = createSemaphoreFile(path)
		if err == nil || errors.Is(err, os.ErrExist) {
			// ours or someone else's, open whichever won
			continue
		}
		return nil, fmt.Errorf("%w: failed to create semaphore %s: %w", ErrAttach, path, err)
	}
}

// OpenSemaphore opens an existing named semaphore
func OpenSemaphore(name string) (Semaphore, error) {
	s, err := openSemaphoreFile(name, semaphorePath(name))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func createSemaphoreFile(path string) error {
	tmp := path + ".tmp" + strconv.Itoa(os.Getpid())
	var free [semaphoreFileSize]byte
	*(*uint32)(unsafe.Pointer(&free[0])) = 1

	if err := os.WriteFile(tmp, free[:], 0600); err != nil {
		return err
	}
	defer os.Remove(tmp)

	return os.Link(tmp, path)
}

func openSemaphoreFile(name, path string) (*FutexSemaphore, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: semaphore %s: %w", ErrAttach, path, err)
		}
		return nil, fmt.Errorf("%w: failed to open semaphore %s: %w", ErrAttach, path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: failed to stat semaphore %s: %w", ErrAttach, path, err)
	}
	if info.Size() < semaphoreFileSize {
		file.Close()
		return nil, fmt.Errorf("%w: semaphore file %s too small: %d bytes", ErrAttach, path, info.Size())
	}

	mem, err := unix.Mmap(int(file.Fd()), 0, semaphoreFileSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: failed to mmap semaphore %s: %w", ErrAttach, path, err)
	}

	return &FutexSemaphore{
		name: name,
		path: path,
		file: file,
		mem:  mem,
		word: (*uint32)(unsafe.Pointer(&mem[0])),
	}, nil
}

// semaphorePath maps a semaphore name to its backing file
func semaphorePath(name string) string {
	// Try /dev/shm first, it is tmpfs on Linux
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return filepath.Join("/dev/shm", semaphorePrefix+name)
	}
	return filepath.Join(os.TempDir(), semaphorePrefix+name)
}

// Name returns the semaphore name
func (s *FutexSemaphore) Name() string {
	return s.name
}

// Path returns the backing file path
func (s *FutexSemaphore) Path() string {
	return s.path
}

func (s *FutexSemaphore) handle() (*uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.word == nil {
		return nil, ErrClosed
	}
	return s.word, nil
}

// Acquire takes the semaphore, sleeping on the futex while it is held
func (s *FutexSemaphore) Acquire(ctx context.Context) error {
	word, err := s.handle()
	if err != nil {
		return err
	}

	for {
		if atomic.CompareAndSwapUint32(word, 1, 0) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := futexWait(word, 0, acquireWakeInterval); err != nil && !errors.Is(err, errFutexTimeout) {
			return err
		}
	}
}

// Release frees the semaphore and wakes one waiter
func (s *FutexSemaphore) Release() error {
	word, err := s.handle()
	if err != nil {
		return err
	}

	atomic.StoreUint32(word, 1)
	return futexWake(word, 1)
}

// Held reports whether the semaphore is taken
func (s *FutexSemaphore) Held() bool {
	word, err := s.handle()
	if err != nil {
		return false
	}
	return atomic.LoadUint32(word) == 0
}

// Close unmaps the semaphore and closes its file
func (s *FutexSemaphore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.word == nil {
		return nil
	}
	s.word = nil

	var errs []error
	if err := unix.Munmap(s.mem); err != nil {
		errs = append(errs, fmt.Errorf("munmap failed: %w", err))
	}
	s.mem = nil
	if err := s.file.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Unlink removes the backing file
func (s *FutexSemaphore) Unlink() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to unlink semaphore %s: %w", s.path, err)
	}
	return nil
}
