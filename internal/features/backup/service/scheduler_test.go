package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swagly-backend/internal/features/backup/models"
)

type fakeRunner struct {
	runs     atomic.Int32
	inFlight atomic.Bool
	block    chan struct{}
	result   models.Result

	mu sync.Mutex
	wm models.Watermark
}

func (f *fakeRunner) RunCycle(context.Context) models.Result {
	f.inFlight.Store(true)
	defer f.inFlight.Store(false)
	f.runs.Add(1)
	if f.block != nil {
		<-f.block
	}
	return f.result
}

func (f *fakeRunner) InFlight() bool { return f.inFlight.Load() }

func (f *fakeRunner) Watermark(context.Context) (models.Watermark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wm, nil
}

func TestSchedulerRunsImmediatelyAndOnInterval(t *testing.T) {
	runner := &fakeRunner{result: models.Result{Success: true}}
	s := NewScheduler(runner, 20*time.Millisecond, "")

	require.True(t, s.Start())
	assert.False(t, s.Start(), "second start is a no-op")
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.False(t, s.IsRunning())

	after := runner.runs.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, runner.runs.Load(), "no ticks after stop")
}

func TestSchedulerKeepsRunningAfterFailedCycle(t *testing.T) {
	runner := &fakeRunner{result: models.Result{Success: false, Error: "boom"}}
	s := NewScheduler(runner, 10*time.Millisecond, "")
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.IsRunning())
}

func TestSchedulerSkipsTickWhileCycleInFlight(t *testing.T) {
	runner := &fakeRunner{result: models.Result{Success: true}, block: make(chan struct{})}
	runner.inFlight.Store(true)

	s := NewScheduler(runner, 5*time.Millisecond, "")
	assert.Nil(t, s.LastResult())
	s.Start()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), runner.runs.Load())

	last := s.LastResult()
	require.NotNil(t, last)
	assert.True(t, last.Skipped)
	assert.True(t, last.Success)

	st, err := s.Status(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st.LastResult)
	assert.True(t, st.LastResult.Skipped)

	s.Stop()
	close(runner.block)
}

func TestSchedulerRecordsCompletedTick(t *testing.T) {
	runner := &fakeRunner{result: models.Result{Success: true, Locator: "bafyabc", ScansCount: 2}}
	s := NewScheduler(runner, time.Hour, "")
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		last := s.LastResult()
		return last != nil && last.Locator == "bafyabc"
	}, time.Second, 5*time.Millisecond)
	assert.False(t, s.LastResult().Skipped)
}

func TestSchedulerShutdownWaitsForLoopFromEarlierStart(t *testing.T) {
	runner := &fakeRunner{result: models.Result{Success: true}, block: make(chan struct{})}
	s := NewScheduler(runner, time.Hour, "")

	require.True(t, s.Start())
	assert.Eventually(t, runner.InFlight, time.Second, time.Millisecond)
	require.True(t, s.Stop())
	require.True(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Shutdown(ctx), context.DeadlineExceeded)
	assert.True(t, runner.InFlight())

	close(runner.block)
	require.NoError(t, s.Shutdown(context.Background()))
	assert.False(t, runner.InFlight())
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestSchedulerStopDoesNotCancelInFlightCycle(t *testing.T) {
	runner := &fakeRunner{result: models.Result{Success: true}, block: make(chan struct{})}
	s := NewScheduler(runner, time.Hour, "")
	s.Start()

	assert.Eventually(t, runner.InFlight, time.Second, time.Millisecond)
	assert.True(t, s.Stop())
	assert.False(t, s.Stop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Shutdown(ctx), context.DeadlineExceeded)
	assert.True(t, runner.InFlight())

	close(runner.block)
	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestSchedulerStatus(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	runner := &fakeRunner{wm: models.Watermark{LastBackupAt: &at, LastBackupLocator: "bafyabc", BackupCount: 4}}

	s := NewScheduler(runner, time.Minute, "https://%s.ipfs.w3s.link")
	st, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.IsRunning)
	assert.Equal(t, &at, st.LastBackupTimestamp)
	assert.Equal(t, "bafyabc", st.LastBackupCid)
	assert.Equal(t, int64(4), st.BackupCount)
	assert.Equal(t, "https://bafyabc.ipfs.w3s.link", st.PublicURL)

	plain := NewScheduler(&fakeRunner{wm: models.Watermark{LastBackupLocator: "https://blob.example/a.json"}}, time.Minute, "")
	st, err = plain.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://blob.example/a.json", st.PublicURL)
}
