package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/billtrust/sla-monitor-report-lambda/internal/application/port"
)

type recordingPublisher struct {
	entries []port.LogEntry
}

func (p *recordingPublisher) Publish(_ context.Context, entry port.LogEntry) error {
	p.entries = append(p.entries, entry)
	return nil
}

func (p *recordingPublisher) Flush(context.Context) error {
	return nil
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message", "service", "billing")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Fatalf("unexpected low level output: %q", output)
	}
	if !strings.Contains(output, "[WARN] warn message | service=billing") {
		t.Fatalf("unexpected output: %q", output)
	}
}

func TestLogger_WithAndPublisher(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)
	publisher := &recordingPublisher{}
	log.SetLogPublisher(publisher)

	child := log.With("batch_id", "b-1")
	child.Error("publish failed", context.DeadlineExceeded, "service", "billing")

	if !strings.Contains(buf.String(), "batch_id=b-1 service=billing error=context deadline exceeded") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
	if len(publisher.entries) != 1 {
		t.Fatalf("expected 1 mirrored entry, got %d", len(publisher.entries))
	}

	entry := publisher.entries[0]
	if entry.Level != port.LogLevelError || entry.Message != "publish failed" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Fields["batch_id"] != "b-1" || entry.Fields["service"] != "billing" {
		t.Fatalf("unexpected fields: %+v", entry.Fields)
	}

	log.SetLogPublisher(nil)
	child.Info("after detach")
	if len(publisher.entries) != 1 {
		t.Fatal("expected mirroring to stop after detach")
	}
}
