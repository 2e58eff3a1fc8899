package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/tasktrack-be/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const highCPUThreshold = 90.0

// StatSampler periodically records host CPU and memory usage so /health can
// report it without doing any work on the request path.
type StatSampler struct {
	cpuPercent func(ctx context.Context) (float64, error)
	memory     func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	now        func() time.Time

	mu      sync.RWMutex
	latest  models.SystemStats
	sampled bool
}

// NewStatSampler creates a new StatSampler backed by gopsutil.
func NewStatSampler() *StatSampler {
	return &StatSampler{
		cpuPercent: hostCPUPercent,
		memory:     mem.VirtualMemoryWithContext,
		now:        time.Now,
	}
}

// Sample takes one measurement and stores it as the latest.
func (s *StatSampler) Sample(ctx context.Context) error {
	cpuPct, err := s.cpuPercent(ctx)
	if err != nil {
		return fmt.Errorf("failed to read cpu usage: %w", err)
	}
	vm, err := s.memory(ctx)
	if err != nil {
		return fmt.Errorf("failed to read memory usage: %w", err)
	}

	stats := models.SystemStats{
		CPUPercent:    round1(cpuPct),
		MemoryPercent: round1(vm.UsedPercent),
		MemoryUsedMB:  vm.Used / 1024 / 1024,
		MemoryTotalMB: vm.Total / 1024 / 1024,
		SampledAt:     s.now().UTC(),
	}

	s.mu.Lock()
	s.latest = stats
	s.sampled = true
	s.mu.Unlock()

	if stats.CPUPercent > highCPUThreshold {
		log.Warn().Float64("cpu_percent", stats.CPUPercent).Msg("High CPU usage detected")
	}
	return nil
}

// Latest returns the most recent sample, if one has been taken.
func (s *StatSampler) Latest() (models.SystemStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.sampled
}

// hostCPUPercent returns total CPU usage since the previous call.
func hostCPUPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errors.New("no cpu data")
	}
	return percents[0], nil
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
