package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	sub, err := p.Subscribe(context.Background(), "status")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := p.Publish("status", "running", RunStatus{State: "running", Message: "analyzing"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case ev := <-sub.Events():
		if ev.Topic != "status" || ev.Type != "running" {
			t.Errorf("event = %+v", ev)
		}
		if ev.Version != 1 {
			t.Errorf("Version = %d, want 1", ev.Version)
		}
		var status RunStatus
		if err := json.Unmarshal(ev.Data, &status); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if status.Message != "analyzing" {
			t.Errorf("Message = %q", status.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSubscribeReplaysLastEvent(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	if err := p.Publish("analysis", "report", map[string]int{"total_rebuilds": 3}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// A dashboard connecting after the run still sees the result.
	sub, err := p.Subscribe(context.Background(), "analysis")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	select {
	case ev := <-sub.Events():
		if ev.Type != "report" {
			t.Errorf("Type = %q, want report", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("last event not replayed")
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	sub, err := p.Subscribe(context.Background(), "status")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := p.Publish("analysis", "report", nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case ev := <-sub.Events():
		t.Errorf("status subscriber received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestVersionIncrementsPerTopic(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	sub, _ := p.Subscribe(context.Background(), "status")
	p.Publish("status", "running", nil)
	p.Publish("status", "done", nil)
	p.Publish("analysis", "report", nil)

	first := <-sub.Events()
	second := <-sub.Events()
	if first.Version != 1 || second.Version != 2 {
		t.Errorf("versions = %d, %d, want 1, 2", first.Version, second.Version)
	}
}

func TestContextCancellationClosesSubscription(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := p.Subscribe(ctx, "status")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("received event on canceled subscription")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}

func TestPublishAfterClose(t *testing.T) {
	p := NewSSEPublisher()
	p.Close()

	if err := p.Publish("status", "running", nil); err == nil {
		t.Error("Publish on closed publisher succeeded")
	}
	if _, err := p.Subscribe(context.Background(), "status"); err == nil {
		t.Error("Subscribe on closed publisher succeeded")
	}
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	ev := Event{Topic: "status", Type: "done", Data: json.RawMessage(`{"state":"done"}`), Version: 2}
	if err := WriteSSE(&buf, ev); err != nil {
		t.Fatalf("WriteSSE: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "data: ") {
		t.Errorf("output = %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Errorf("output not terminated by blank line: %q", out)
	}
	var wire Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(out), "data: ")), &wire); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if wire.Topic != "status" || wire.Version != 2 {
		t.Errorf("wire = %+v", wire)
	}
}
