// Package channel implements the single-slot command channel shared by the
// shmkv server and its clients.
//
// A channel is two operating system objects:
//
//   - a Region, a fixed-capacity byte slot that holds one NUL-terminated
//     record at a time (SysV shared memory on Linux);
//   - a Semaphore, a named binary semaphore that serializes publishers
//     (a futex word in a file under /dev/shm on Linux).
//
// The Synchronizer layers the exclusion protocol on top of them. A publisher
// acquires the semaphore, writes its record and returns without releasing.
// The consumer releases only after it has drained and applied the record, so
// a second publisher cannot overwrite a record the consumer has not seen.
//
// There is no timeout anywhere in the protocol. If the consumer dies while
// the semaphore is held, every later publisher blocks until its context is
// cancelled.
//
// MemRegion and LocalSemaphore are in-process implementations used by tests
// and by anything that wants the protocol without the operating system.
package channel
