package journal

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"testing"
	"time"

	xerrors "AssetGrid-Chain/internal/errors"
	"AssetGrid-Chain/internal/observability/alerting"
)

type capturingAlerter struct{ events []alerting.Event }

func (a *capturingAlerter) Notify(_ context.Context, event alerting.Event) error {
	a.events = append(a.events, event)
	return nil
}

type failingProducer struct{ calls int }

func (p *failingProducer) Publish(context.Context, string) error {
	p.calls++
	return stdErrors.New("broker down")
}

func (p *failingProducer) Close() error { return nil }

func TestRecorderAppendsAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	queue := NewMemoryQueue(4)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recorder := NewRecorder(store, WithProducer(queue), WithRecorderClock(func() time.Time { return fixed }))

	payload := map[string]any{"operation": "swap", "amount": 10000}
	if err := recorder.Record(ctx, "defi", "execute_operation", "swap", payload); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := recorder.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Component != "defi" || entry.Action != "execute_operation" || entry.RefID != "swap" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.CreatedAt != fixed.Unix() {
		t.Fatalf("unexpected created_at: %d", entry.CreatedAt)
	}
	var decoded map[string]any
	if err := json.Unmarshal(entry.Payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["operation"] != "swap" {
		t.Fatalf("unexpected payload: %v", decoded)
	}

	select {
	case id := <-queue.ch:
		if id != entry.ID {
			t.Fatalf("published %s, stored %s", id, entry.ID)
		}
	default:
		t.Fatalf("expected entry id to be published")
	}
}

func TestRecorderPublishFailureKeepsEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	producer := &failingProducer{}
	alerter := &capturingAlerter{}
	var logs bytes.Buffer
	recorder := NewRecorder(store, WithProducer(producer), WithAlertDispatcher(alerter),
		WithRecorderLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	err := recorder.Record(ctx, "contracts", "deploy_contract", "contract_1", nil)
	if xerrors.CodeOf(err) != CodePublishFailed {
		t.Fatalf("expected publish failure code, got %v", err)
	}
	if producer.calls != 1 {
		t.Fatalf("expected one publish attempt, got %d", producer.calls)
	}
	if len(alerter.events) != 1 || alerter.events[0].Code != CodePublishFailed || alerter.events[0].Component != "contracts" {
		t.Fatalf("expected one publish alert, got %+v", alerter.events)
	}
	stats, _ := recorder.Stats(ctx)
	if stats.Total != 1 {
		t.Fatalf("expected entry to be stored, got %+v", stats)
	}
	if logs.Len() != 0 {
		t.Fatalf("publish failure should be left to the caller to log, got %q", logs.String())
	}
}

func TestRecorderRejectsInvalidInput(t *testing.T) {
	recorder := NewRecorder(NewMemoryStore())
	ctx := context.Background()

	if err := recorder.Record(ctx, "", "deploy", "", nil); xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if err := recorder.Record(ctx, "defi", "deploy", "", func() {}); xerrors.CodeOf(err) != CodeEncodeFailed {
		t.Fatalf("expected encode failure, got %v", err)
	}

	var nilRecorder *Recorder
	if err := nilRecorder.Record(ctx, "defi", "deploy", "", nil); xerrors.CodeOf(err) != xerrors.CodeInitializationFailure {
		t.Fatalf("expected initialization failure, got %v", err)
	}
}
