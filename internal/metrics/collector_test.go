package metrics

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

func TestNewCollectorInterval(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, DefaultInterval},
		{500 * time.Millisecond, DefaultInterval},
		{2 * time.Second, 2 * time.Second},
	}
	for _, tt := range tests {
		c := NewCollector(tt.in, zap.NewNop(), nil)
		if got := c.Interval(); got != tt.want {
			t.Errorf("Interval(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCollectorSample(t *testing.T) {
	c := NewCollector(time.Second, zap.NewNop(), nil)
	if c.Last() != nil {
		t.Fatal("Last should be nil before sampling")
	}

	s := c.Sample()
	if s.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if c.Last() != s {
		t.Error("Last should return the latest sample")
	}
	if s.MemoryTotalGB < 0 || s.MemoryPercent < 0 {
		t.Errorf("implausible memory sample %+v", s)
	}
}

func TestCollectorLogsProgress(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	progress := func() []zap.Field { return []zap.Field{zap.Int64("rows", 42)} }
	c := NewCollector(time.Second, zap.New(core), progress)

	c.log(c.Sample())

	entries := logs.FilterMessage("System metrics").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if rows := entries[0].ContextMap()["rows"]; rows != int64(42) {
		t.Errorf("rows field = %v, want 42", rows)
	}
	if _, ok := entries[0].ContextMap()["rss"]; !ok {
		t.Error("rss field missing")
	}
}

func TestCollectorStopsWithContext(t *testing.T) {
	c := NewCollector(time.Second, zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Start(gctx) })
	cancel()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("collector did not stop")
	}
}
