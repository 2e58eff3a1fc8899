package monitoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatSampler_Sample(t *testing.T) {
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	s := &StatSampler{
		cpuPercent: func(context.Context) (float64, error) { return 37.26, nil },
		memory: func(context.Context) (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{Total: 8 << 30, Used: 2 << 30, UsedPercent: 25.04}, nil
		},
		now: func() time.Time { return at },
	}

	_, ok := s.Latest()
	assert.False(t, ok)

	require.NoError(t, s.Sample(context.Background()))

	stats, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 37.3, stats.CPUPercent)
	assert.Equal(t, 25.0, stats.MemoryPercent)
	assert.Equal(t, uint64(2048), stats.MemoryUsedMB)
	assert.Equal(t, uint64(8192), stats.MemoryTotalMB)
	assert.Equal(t, at, stats.SampledAt)
}

func TestStatSampler_FailureKeepsPreviousSample(t *testing.T) {
	fail := false
	s := &StatSampler{
		cpuPercent: func(context.Context) (float64, error) {
			if fail {
				return 0, errors.New("permission denied")
			}
			return 10, nil
		},
		memory: func(context.Context) (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{UsedPercent: 50}, nil
		},
		now: time.Now,
	}

	require.NoError(t, s.Sample(context.Background()))
	fail = true
	require.Error(t, s.Sample(context.Background()))

	stats, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 10.0, stats.CPUPercent)
}

func TestScheduler_RejectsInvalidSpec(t *testing.T) {
	s := NewScheduler()
	err := s.Add("broken", "every now and then", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestScheduler_RunsJobsUntilCancelled(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, s.Add("failing", "@every 1s", func(ctx context.Context) error {
		return errors.New("boom")
	}))
	require.NoError(t, s.Add("panicking", "@every 1s", func(ctx context.Context) error {
		panic("boom")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_StopCancelsJobContext(t *testing.T) {
	s := NewScheduler()
	started := make(chan struct{}, 1)
	var sawCancel atomic.Bool
	require.NoError(t, s.Add("slow", "@every 1s", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		sawCancel.Store(true)
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}
	cancel()
	<-done
	assert.True(t, sawCancel.Load())
}
