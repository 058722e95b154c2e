package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeStorageFailure, cause, "写入日志失败", WithMetadata("entry_id", "e-1"))

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through errors.Is")
	}
	if !stdErrors.Is(err, New(CodeStorageFailure, "")) {
		t.Fatalf("expected code comparison to match")
	}
	if CodeOf(fmt.Errorf("outer: %w", err)) != CodeStorageFailure {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
	if got := err.Metadata()["entry_id"]; got != "e-1" {
		t.Fatalf("unexpected metadata: %q", got)
	}
	if err.Error() != "[STORAGE_FAILURE] 写入日志失败: connection refused" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestAttributesFallBackToUnknown(t *testing.T) {
	attr := AttributesOf(Code("NOT_REGISTERED"))
	if attr != AttributesOf(CodeUnknown) {
		t.Fatalf("expected unknown attributes, got %+v", attr)
	}
	if SeverityOf(stdErrors.New("plain")) != SeverityCritical {
		t.Fatalf("plain errors should be treated as critical")
	}
}

func TestOverrides(t *testing.T) {
	err := New(CodeQueueFailure, "", WithRetryable(false), WithAlert(false), WithSeverity(SeverityInfo))
	if err.Message() != "queue failure" {
		t.Fatalf("expected default message, got %q", err.Message())
	}
	if RetryableError(err) || ShouldAlert(err) {
		t.Fatalf("overrides were not applied: %+v", err)
	}
	if err.Severity() != SeverityInfo {
		t.Fatalf("unexpected severity: %s", err.Severity())
	}
}

func TestRegisterAddsCode(t *testing.T) {
	code := Code("TEST_REGISTERED")
	Register(code, Attributes{Message: "registered", Severity: SeverityWarning, Retryable: true})

	found := false
	for _, c := range Codes() {
		if c == code {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in registered codes", code)
	}
	if !New(code, "").Retryable() {
		t.Fatalf("expected registered attributes to apply")
	}
}
