package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestBuildHandlerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	handler, err := buildHandler("text", []string{path}, &slog.HandlerOptions{Level: slog.LevelInfo})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	slog.New(handler).Info("strategy deployed", slog.String("strategy_id", "defi_1"))
	if err := Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "strategy_id=defi_1") {
		t.Fatalf("unexpected log content: %s", content)
	}
}

func TestBuildAuditLoggerRequiresPath(t *testing.T) {
	if _, err := buildAuditLogger(AuditConfig{Enabled: true}); err == nil {
		t.Fatal("expected error for empty audit path")
	}
}

func TestReplaceAndNamed(t *testing.T) {
	var buf bytes.Buffer
	Replace(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { Replace(nil) })

	Named("defi").Info("hello")
	Audit().Info("audited")

	out := buf.String()
	if !strings.Contains(out, "logger=defi") {
		t.Fatalf("expected component tag in output: %s", out)
	}
	if !strings.Contains(out, "audited") {
		t.Fatalf("expected audit line to use replaced logger: %s", out)
	}
}
