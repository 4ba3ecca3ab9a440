package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewConsoleLevel(t *testing.T) {
	tests := []struct {
		debug     bool
		wantDebug bool
	}{
		{false, false},
		{true, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		log := New(tt.debug, &buf, "")
		log.Debug("row detail")
		log.Info("run summary")
		_ = log.Sync()

		out := buf.String()
		if got := strings.Contains(out, "row detail"); got != tt.wantDebug {
			t.Errorf("debug=%v: debug line logged = %v, want %v", tt.debug, got, tt.wantDebug)
		}
		if !strings.Contains(out, "run summary") {
			t.Errorf("debug=%v: info line missing from %q", tt.debug, out)
		}
	}
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csv2osm.log")
	var console bytes.Buffer

	log := New(false, &console, path)
	log.Warn("Skipping node -2: couldn't parse coordinates", zap.Int64("id", -2))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log file line is not JSON: %v\n%s", err, data)
	}
	if entry["level"] != "warn" {
		t.Errorf("level = %v, want warn", entry["level"])
	}
	if entry["id"] != float64(-2) {
		t.Errorf("id = %v, want -2", entry["id"])
	}
	if !strings.Contains(console.String(), "Skipping node -2") {
		t.Errorf("console missing entry: %q", console.String())
	}
}
