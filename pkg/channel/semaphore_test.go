package channel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSemaphore_AcquireRelease(t *testing.T) {
	sem := NewLocalSemaphore("test")
	assert.Equal(t, "test", sem.Name())
	assert.False(t, sem.Held())

	require.NoError(t, sem.Acquire(context.Background()))
	assert.True(t, sem.Held())

	require.NoError(t, sem.Release())
	assert.False(t, sem.Held())
}

func TestLocalSemaphore_AcquireBlocksUntilRelease(t *testing.T) {
	sem := NewLocalSemaphore("test")
	require.NoError(t, sem.Acquire(context.Background()))

	acquired := make(chan error, 1)
	go func() {
		acquired <- sem.Acquire(context.Background())
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while held")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, sem.Release())

	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second acquire did not complete after release")
	}
}

func TestLocalSemaphore_AcquireHonoursContext(t *testing.T) {
	sem := NewLocalSemaphore("test")
	require.NoError(t, sem.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := sem.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocalSemaphore_ReleaseIsBinary(t *testing.T) {
	sem := NewLocalSemaphore("test")

	require.NoError(t, sem.Release())
	require.NoError(t, sem.Release())

	require.NoError(t, sem.Acquire(context.Background()))
	assert.True(t, sem.Held())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, sem.Acquire(ctx))
}

func TestLocalSemaphore_Stats(t *testing.T) {
	sem := NewLocalSemaphore("test")
	require.NoError(t, sem.Acquire(context.Background()))
	require.NoError(t, sem.Release())
	require.NoError(t, sem.Close())
	require.NoError(t, sem.Unlink())

	stats := sem.Stats()
	assert.Equal(t, LocalSemaphoreStats{Acquires: 1, Releases: 1, Closes: 1, Unlinks: 1}, stats)
}
