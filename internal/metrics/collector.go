// Package metrics periodically logs process and system resource usage
// next to conversion progress.
package metrics

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// DefaultInterval is used when the requested interval is under a second
const DefaultInterval = 30 * time.Second

// Snapshot holds one metrics sample
type Snapshot struct {
	CPUPercent        float64 // System-wide CPU usage (0-100%)
	ProcessCPUPercent float64 // This process, can exceed 100% on multi-core
	ProcessRSS        uint64  // Resident set size in bytes
	ProcessReadBytes  uint64  // Cumulative bytes read by this process
	ProcessWriteBytes uint64  // Cumulative bytes written by this process
	MemoryUsedGB      float64
	MemoryTotalGB     float64
	MemoryPercent     float64
	Timestamp         time.Time
}

// ProgressFunc reports conversion progress as log fields
type ProgressFunc func() []zap.Field

// Collector periodically samples and logs metrics
type Collector struct {
	interval time.Duration
	logger   *zap.Logger
	progress ProgressFunc
	proc     *process.Process

	mu   sync.RWMutex
	last *Snapshot
}

// NewCollector creates a new metrics collector. progress may be nil.
func NewCollector(interval time.Duration, logger *zap.Logger, progress ProgressFunc) *Collector {
	if interval < time.Second {
		interval = DefaultInterval
	}

	// Handle to the current process; nil when unavailable
	proc, _ := process.NewProcess(int32(os.Getpid()))

	return &Collector{
		interval: interval,
		logger:   logger,
		progress: progress,
		proc:     proc,
	}
}

// Interval returns the sampling interval
func (c *Collector) Interval() time.Duration {
	return c.interval
}

// Start samples until ctx is cancelled. It always returns nil so it can
// run in an errgroup without failing the conversion.
func (c *Collector) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// First CPU sample initializes the percent baselines
	c.Sample()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Metrics collection stopped")
			return nil
		case <-ticker.C:
			c.log(c.Sample())
		}
	}
}

// Last returns the most recent sample, nil before the first one
func (c *Collector) Last() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Sample collects a snapshot and stores it as the latest
func (c *Collector) Sample() *Snapshot {
	s := &Snapshot{Timestamp: time.Now()}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}

	if c.proc != nil {
		if pct, err := c.proc.Percent(0); err == nil {
			s.ProcessCPUPercent = pct
		}
		if info, err := c.proc.MemoryInfo(); err == nil {
			s.ProcessRSS = info.RSS
		}
		if io, err := c.proc.IOCounters(); err == nil {
			s.ProcessReadBytes = io.ReadBytes
			s.ProcessWriteBytes = io.WriteBytes
		}
	}

	if vmem, err := mem.VirtualMemory(); err == nil {
		s.MemoryPercent = vmem.UsedPercent
		s.MemoryUsedGB = float64(vmem.Used) / (1024 * 1024 * 1024)
		s.MemoryTotalGB = float64(vmem.Total) / (1024 * 1024 * 1024)
	}

	c.mu.Lock()
	c.last = s
	c.mu.Unlock()
	return s
}

func (c *Collector) log(s *Snapshot) {
	fields := []zap.Field{
		zap.String("sys_cpu", formatPercent(s.CPUPercent)),
		zap.String("proc_cpu", formatPercent(s.ProcessCPUPercent)),
		zap.String("rss", formatMB(s.ProcessRSS)),
		zap.String("proc_read", formatMB(s.ProcessReadBytes)),
		zap.String("proc_write", formatMB(s.ProcessWriteBytes)),
		zap.String("mem_used", fmt.Sprintf("%.1f / %.1f GB", s.MemoryUsedGB, s.MemoryTotalGB)),
	}
	if c.progress != nil {
		fields = append(c.progress(), fields...)
	}
	c.logger.Info("System metrics", fields...)
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func formatMB(b uint64) string {
	return fmt.Sprintf("%.1f MB", float64(b)/(1024*1024))
}
