package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/rwclient/internal/backup"
)

type fakeRunner struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (f *fakeRunner) Run(ctx context.Context) (*backup.Result, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &backup.Result{Books: 1, Highlights: 2}, nil
}

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("0 */6 * * *"))
	assert.NoError(t, ValidateCronSchedule("*/15 * * * *"))
	assert.Error(t, ValidateCronSchedule("every day"))
	assert.Error(t, ValidateCronSchedule("0 0 * *"))
}

func TestCronDescription(t *testing.T) {
	assert.Equal(t, "Every 6 hours", CronDescription("0 */6 * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * *", CronDescription("5 4 * * *"))
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	next, err := NextRunTime("0 */6 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), next)

	_, err = NextRunTime("bogus", from)
	assert.Error(t, err)
}

func TestBackupSchedulerLifecycle(t *testing.T) {
	s := NewBackupScheduler(&fakeRunner{}, "0 */6 * * *", nil)
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	next := s.NextRun()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	// starting twice is a no-op
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())
}

func TestBackupSchedulerInvalidSchedule(t *testing.T) {
	s := NewBackupScheduler(&fakeRunner{}, "not a schedule", nil)
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")
	assert.False(t, s.IsRunning())
}

func TestBackupSchedulerStopsOnContextCancel(t *testing.T) {
	s := NewBackupScheduler(&fakeRunner{}, "0 0 * * *", nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestBackupSchedulerRunNow(t *testing.T) {
	runner := &fakeRunner{}
	s := NewBackupScheduler(runner, "0 0 * * *", nil)

	hook := make(chan *backup.Result, 1)
	s.AfterRun = func(_ context.Context, r *backup.Result) error {
		hook <- r
		return nil
	}

	s.RunNow()

	select {
	case r := <-hook:
		assert.Equal(t, 2, r.Highlights)
	case <-time.After(time.Second):
		t.Fatal("backup did not run")
	}
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestBackupSchedulerSkipsOverlappingRuns(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{})}
	s := NewBackupScheduler(runner, "0 0 * * *", nil)

	s.RunNow()
	assert.Eventually(t, s.IsSyncing, time.Second, 5*time.Millisecond)

	// runs synchronously and returns at once because a pass is in flight
	s.runBackup()
	assert.Equal(t, int32(1), runner.calls.Load())

	close(runner.release)
	assert.Eventually(t, func() bool { return !s.IsSyncing() }, time.Second, 5*time.Millisecond)
}

func TestBackupSchedulerHookNotCalledOnFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	s := NewBackupScheduler(runner, "0 0 * * *", nil)

	called := false
	s.AfterRun = func(context.Context, *backup.Result) error {
		called = true
		return nil
	}

	s.runBackup()
	assert.Equal(t, int32(1), runner.calls.Load())
	assert.False(t, called)
}
