package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ProgressTracker estimates conversion progress from rows handled and
// raw input bytes consumed
type ProgressTracker struct {
	totalBytes int64
	startTime  time.Time
}

// NewProgressTracker creates a tracker for an input of totalBytes (0 when
// unknown, e.g. stdin)
func NewProgressTracker(totalBytes int64) *ProgressTracker {
	return &ProgressTracker{
		totalBytes: totalBytes,
		startTime:  time.Now(),
	}
}

// Progress holds current progress information
type Progress struct {
	Rows       int64
	BytesRead  int64
	TotalBytes int64
	Percentage float64
	Elapsed    time.Duration
	ETA        time.Duration
	Throughput float64 // rows per second
}

// Calculate returns progress metrics for the given row count and bytes read
func (p *ProgressTracker) Calculate(rows, bytesRead int64) Progress {
	return p.calculate(rows, bytesRead, time.Since(p.startTime))
}

func (p *ProgressTracker) calculate(rows, bytesRead int64, elapsed time.Duration) Progress {
	var percentage float64
	var eta time.Duration

	if p.totalBytes > 0 && bytesRead > 0 {
		percentage = float64(bytesRead) / float64(p.totalBytes) * 100
		if percentage > 100 {
			percentage = 100
		}
		if percentage < 100 && elapsed > 0 {
			bytesPerSecond := float64(bytesRead) / elapsed.Seconds()
			remaining := p.totalBytes - bytesRead
			if bytesPerSecond > 0 {
				eta = time.Duration(float64(remaining) / bytesPerSecond * float64(time.Second))
			}
		}
	}

	var throughput float64
	if elapsed.Seconds() > 0 {
		throughput = float64(rows) / elapsed.Seconds()
	}

	return Progress{
		Rows:       rows,
		BytesRead:  bytesRead,
		TotalBytes: p.totalBytes,
		Percentage: percentage,
		Elapsed:    elapsed.Round(time.Second),
		ETA:        eta.Round(time.Second),
		Throughput: throughput,
	}
}

// Fields renders the progress as log fields. Byte based fields are only
// present when the input size is known.
func (p Progress) Fields() []zap.Field {
	fields := []zap.Field{
		zap.Int64("rows", p.Rows),
		zap.String("rate", FormatThroughput(p.Throughput)),
		zap.Duration("elapsed", p.Elapsed),
	}
	if p.TotalBytes > 0 {
		fields = append(fields,
			zap.String("read", FormatBytes(p.BytesRead)+" / "+FormatBytes(p.TotalBytes)),
			zap.String("percent", fmt.Sprintf("%.1f%%", p.Percentage)),
			zap.String("eta", FormatETA(p.ETA)),
		)
	}
	return fields
}

// FormatETA formats the ETA duration in a human-readable format
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "calculating..."
	}

	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatThroughput formats a row rate as rows per second
func FormatThroughput(rowsPerSec float64) string {
	switch {
	case rowsPerSec >= 1_000_000:
		return fmt.Sprintf("%.1fM rows/s", rowsPerSec/1_000_000)
	case rowsPerSec >= 1_000:
		return fmt.Sprintf("%.1fK rows/s", rowsPerSec/1_000)
	default:
		return fmt.Sprintf("%.0f rows/s", rowsPerSec)
	}
}

// FormatBytes formats a byte count using binary units
func FormatBytes(n int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case n >= GB:
		return fmt.Sprintf("%.1f GB", float64(n)/GB)
	case n >= MB:
		return fmt.Sprintf("%.1f MB", float64(n)/MB)
	case n >= KB:
		return fmt.Sprintf("%.1f KB", float64(n)/KB)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
