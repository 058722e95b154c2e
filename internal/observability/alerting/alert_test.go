package alerting

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	xerrors "AssetGrid-Chain/internal/errors"
)

type recordingNotifier struct {
	channel Channel
	events  []Event
	err     error
}

func (n *recordingNotifier) Channel() Channel { return n.channel }

func (n *recordingNotifier) Notify(_ context.Context, event Event) error {
	n.events = append(n.events, event)
	return n.err
}

func TestFanoutDispatcherNotifiesAll(t *testing.T) {
	first := &recordingNotifier{channel: "a"}
	second := &recordingNotifier{channel: "b", err: errors.New("offline")}
	dispatcher := NewFanout(first, nil, second)

	err := dispatcher.Notify(context.Background(), Event{Code: xerrors.CodeQueueFailure})
	if err == nil || !strings.Contains(err.Error(), "channel b") {
		t.Fatalf("expected joined channel error, got %v", err)
	}
	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("expected both notifiers to receive the event")
	}

	var nilDispatcher *FanoutDispatcher
	if err := nilDispatcher.Notify(context.Background(), Event{}); err != nil {
		t.Fatalf("nil dispatcher should be a no-op: %v", err)
	}
}

func TestEventFromError(t *testing.T) {
	err := xerrors.Wrap(xerrors.CodeQueueFailure, errors.New("dial tcp"), "publish failed",
		xerrors.WithMetadata("entry_id", "e1"))

	event := EventFromError(err, "defi", "deploy_strategy", "e1")
	if event.Code != xerrors.CodeQueueFailure || event.Severity != xerrors.SeverityCritical {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Metadata["entry_id"] != "e1" || event.Component != "defi" {
		t.Fatalf("unexpected metadata: %+v", event)
	}
	if !strings.Contains(event.Message, "dial tcp") {
		t.Fatalf("expected cause in message: %s", event.Message)
	}
}

func TestLogNotifierWritesAttributes(t *testing.T) {
	var buf bytes.Buffer
	notifier := &LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	if err := notifier.Notify(context.Background(), Event{
		Code:     xerrors.CodeQueueFailure,
		Message:  "queue down",
		Severity: xerrors.SeverityWarning,
		EntryID:  "e1",
		Metadata: map[string]string{"stage": "publish"},
	}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"queue down", "code=QUEUE_FAILURE", "entry_id=e1", "meta.stage=publish"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}
