package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/billtrust/sla-monitor-report-lambda/internal/interfaces/queue"
)

func TestGenerateEventWritesDecodableFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "event.json")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{
		"events", "generate",
		"--service", "billing",
		"--failed",
		"--duration", "2.5",
		"--timestamp", "2026-02-08T12:00:00Z",
		"--output", output,
	})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	body, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	var event events.SQSEvent
	if err := json.Unmarshal(body, &event); err != nil {
		t.Fatalf("failed to parse event: %v", err)
	}
	if len(event.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(event.Records))
	}

	result, err := queue.DecodeBody(event.Records[0].Body)
	if err != nil {
		t.Fatalf("DecodeBody() error = %v", err)
	}
	if result.Service != "billing" || result.Succeeded == nil || *result.Succeeded {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Timestamp != 1770552000 || result.TestExecutionSecs != 2.5 {
		t.Errorf("unexpected timestamp or duration: %d %v", result.Timestamp, result.TestExecutionSecs)
	}
}

func TestRunEventRequiresFile(t *testing.T) {
	rootCmd.SetArgs([]string{"events", "run", filepath.Join(t.TempDir(), "missing.json")})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestGlobalFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("REPORTS_DIR", "./reports")
	dir := t.TempDir()

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"events", "generate", "--reports-dir", dir, "--output", "-"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		flag := rootCmd.PersistentFlags().Lookup("reports-dir")
		_ = flag.Value.Set("")
		flag.Changed = false
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := os.Getenv("REPORTS_DIR"); got != dir {
		t.Errorf("REPORTS_DIR = %q, want %q", got, dir)
	}
	if !bytes.Contains(stdout.Bytes(), []byte(`"Records"`)) {
		t.Errorf("expected event on stdout, got %s", stdout.String())
	}
}
