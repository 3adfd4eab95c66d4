package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/shmkv/pkg/channel"
	"github.com/ssargent/shmkv/pkg/codec"
	"github.com/ssargent/shmkv/pkg/store"
)

// Config holds poll loop settings
type Config struct {
	// PollInterval is how long an idle loop sleeps between checks. Zero
	// spins, yielding the processor between checks.
	PollInterval time.Duration

	// DumpTable logs the full table after every applied command.
	DumpTable bool

	// PublishDump keeps a rendered copy of the table for TableDump.
	PublishDump bool

	// ResetLock frees a semaphore found held at startup.
	ResetLock bool
}

// SemaphoreOpener opens or creates the semaphore guarding the region
type SemaphoreOpener func() (channel.Semaphore, error)

// Server drains commands from a shared region and applies them to a table.
//
// A Server is driven by a single goroutine: either Run, or Start followed
// by repeated calls to Poll. TableDump is the only method safe to call
// from other goroutines.
type Server struct {
	region  channel.Region
	openSem SemaphoreOpener
	syncer  *channel.Synchronizer
	table   *store.Table
	codec   *codec.CommandCodec
	config  Config
	logger  *zap.Logger
	metrics *Metrics

	instanceID ksuid.KSUID
	snapshot   []byte
	scratch    []byte
	confirm    []byte
	state      State
	started    bool

	dump      atomic.Pointer[string]
	stats     atomic.Pointer[store.ExplainResult]
	closeOnce sync.Once
	closeErr  error
}

// NewServer creates a server over an attached region. The semaphore is not
// opened until Start has taken the initial snapshot, so no client can
// publish before the server knows what the region held. logger and metrics
// may be nil.
func NewServer(
	region channel.Region,
	openSem SemaphoreOpener,
	table *store.Table,
	config Config,
	logger *zap.Logger,
	metrics *Metrics,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	id := ksuid.New()
	return &Server{
		region:     region,
		openSem:    openSem,
		table:      table,
		codec:      codec.NewCommandCodec(region.Capacity()),
		config:     config,
		logger:     logger.With(zap.String("instance-id", id.String())),
		metrics:    metrics,
		instanceID: id,
		state:      StateIdle,
	}
}

// InstanceID identifies this server run
func (s *Server) InstanceID() string {
	return s.instanceID.String()
}

// State returns the state reached by the last poll
func (s *Server) State() State {
	return s.state
}

// Start prepares the region for polling, then opens the semaphore. A
// shutdown marker left by a previous run is overwritten, and whatever the
// region holds becomes the initial snapshot so it is never applied.
func (s *Server) Start() error {
	if s.started {
		return nil
	}

	region := s.region
	s.scratch = region.Snapshot(s.scratch)
	current := codec.Trim(s.scratch)

	if codec.IsShutdown(current) {
		sentinel := s.sentinel(region.Capacity())
		if err := region.Write(sentinel); err != nil {
			return fmt.Errorf("failed to clear stale shutdown marker: %w", err)
		}
		s.logger.Info("cleared stale shutdown marker")
		current = sentinel
	}
	s.snapshot = append(s.snapshot[:0], current...)

	sem, err := s.openSem()
	if err != nil {
		return fmt.Errorf("failed to open semaphore: %w", err)
	}
	s.syncer = channel.NewSynchronizer(region, sem)

	// only a semaphore left over from a previous run can be held here
	if sem.Held() {
		if s.config.ResetLock {
			if err := s.syncer.Release(); err != nil {
				return err
			}
			s.logger.Warn("semaphore was held at startup, released it", zap.String("semaphore", sem.Name()))
		} else {
			s.logger.Warn("semaphore is held at startup, clients will block until it is released",
				zap.String("semaphore", sem.Name()))
		}
	}

	s.publishDump()
	s.started = true
	s.state = StateIdle
	return nil
}

// sentinel builds content that can never match a record a client writes
func (s *Server) sentinel(capacity int) []byte {
	sentinel := []byte("0\n" + s.instanceID.String())
	if len(sentinel) > capacity-1 {
		sentinel = sentinel[:capacity-1]
	}
	return sentinel
}

// Poll checks the region once, applying a new record if there is one, and
// returns the resulting state.
func (s *Server) Poll() State {
	if s.state == StateStopped || !s.started {
		return s.state
	}

	region := s.region
	s.scratch = region.Snapshot(s.scratch)
	current := codec.Trim(s.scratch)

	// empty content is never a record
	if len(current) == 0 || bytes.Equal(current, s.snapshot) {
		s.state = StateIdle
		return s.state
	}

	// a second look that disagrees means a write is still landing
	s.confirm = region.Snapshot(s.confirm)
	if !bytes.Equal(current, codec.Trim(s.confirm)) {
		s.state = StateIdle
		return s.state
	}

	s.state = StateDraining
	s.snapshot = append(s.snapshot[:0], current...)

	s.state = StateApplying
	s.state = s.apply(s.snapshot)
	return s.state
}

func (s *Server) apply(data []byte) State {
	record, err := s.codec.Decode(data)
	if err != nil {
		s.logger.Warn("dropping malformed record", zap.Error(err), zap.ByteString("record", data))
		if s.metrics != nil {
			s.metrics.RecordMalformed()
		}
		s.release()
		return StateIdle
	}

	cmd := record.Command
	if cmd.Op == codec.OpShutdown {
		s.logger.Info("shutdown requested")
		return StateStopped
	}

	s.logger.Debug("applying command",
		zap.Stringer("op", cmd.Op),
		zap.Uint64("nonce", record.Nonce),
		zap.Int("key-len", len(cmd.Key)),
		zap.Int("value-len", len(cmd.Value)))

	start := time.Now()
	found := true
	switch cmd.Op {
	case codec.OpInsert:
		s.table.Insert(cmd.Key, cmd.Value)
		s.logger.Info("inserted", zap.ByteString("key", cmd.Key))
	case codec.OpGet:
		var value []byte
		value, found = s.table.Get(cmd.Key)
		if found {
			s.logger.Info("Result is", zap.ByteString("key", cmd.Key), zap.ByteString("value", value))
		} else {
			s.logger.Info("Result is not found", zap.ByteString("key", cmd.Key))
		}
	case codec.OpDelete:
		found = s.table.Delete(cmd.Key)
		s.logger.Info("deleted", zap.ByteString("key", cmd.Key), zap.Bool("found", found))
	}

	if s.metrics != nil {
		s.metrics.RecordCommand(cmd.Op.String(), found, time.Since(start))
		s.metrics.UpdateKeys(s.table.Len())
	}

	if s.config.DumpTable {
		s.logger.Info("table", zap.String("dump", s.table.DumpString()))
	}
	s.publishDump()

	s.release()
	return StateIdle
}

func (s *Server) release() {
	if err := s.syncer.Release(); err != nil {
		s.logger.Error("failed to release semaphore", zap.Error(err))
	}
}

func (s *Server) publishDump() {
	if !s.config.PublishDump {
		return
	}
	dump := s.table.DumpString()
	s.dump.Store(&dump)
	s.stats.Store(s.table.Explain())
}

// TableDump returns the table as rendered after the last applied command.
// It is empty unless Config.PublishDump is set.
func (s *Server) TableDump() string {
	if dump := s.dump.Load(); dump != nil {
		return *dump
	}
	return ""
}

// TableStats returns the distribution stats taken with the last TableDump,
// or nil when Config.PublishDump is not set.
func (s *Server) TableStats() *store.ExplainResult {
	return s.stats.Load()
}

// Run polls until a shutdown command arrives or ctx is done, then tears
// down the channel.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return errors.Join(err, s.Close())
	}

	s.logger.Info("server started",
		zap.Int("table-size", s.table.Size()),
		zap.Int("capacity", s.region.Capacity()),
		zap.String("semaphore", s.syncer.Semaphore().Name()),
		zap.Duration("poll-interval", s.config.PollInterval))

loop:
	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("stopping", zap.Error(err))
			break
		}

		if s.Poll() == StateStopped {
			break
		}

		if s.config.PollInterval <= 0 {
			runtime.Gosched()
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("stopping", zap.Error(ctx.Err()))
			break loop
		case <-time.After(s.config.PollInterval):
		}
	}

	return s.Close()
}

// Close clears the table, frees the semaphore for any blocked client,
// closes and unlinks it if Start opened it, and detaches the region. Only the first call does
// anything; later calls return the first result.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.state = StateStopped
		s.table.Clear()
		if s.metrics != nil {
			s.metrics.UpdateKeys(0)
		}
		s.publishDump()

		var errs []error
		if s.syncer != nil {
			sem := s.syncer.Semaphore()
			if err := sem.Release(); err != nil {
				errs = append(errs, fmt.Errorf("failed to release semaphore: %w", err))
			}
			if err := sem.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close semaphore: %w", err))
			}
			if err := sem.Unlink(); err != nil {
				errs = append(errs, fmt.Errorf("failed to unlink semaphore: %w", err))
			}
		}
		if err := s.region.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to detach region: %w", err))
		}
		s.closeErr = errors.Join(errs...)

		s.logger.Info("server stopped")
	})
	return s.closeErr
}
