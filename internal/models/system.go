package models

import "time"

// SystemStats is a point-in-time sample of host resource usage.
type SystemStats struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsedMB  uint64    `json:"memory_used_mb"`
	MemoryTotalMB uint64    `json:"memory_total_mb"`
	SampledAt     time.Time `json:"sampled_at"`
}
