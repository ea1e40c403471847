package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func serviceEvent(session string, handle uint32) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: session,
		Direction: DirectionIn,
		Category:  CategoryService,
		Service: &ServiceEvent{
			RequestType:   "CreateSubscriptionRequest",
			RequestHandle: handle,
		},
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	event := Event{
		Timestamp: time.Now().Truncate(time.Millisecond),
		SessionID: "s-1",
		Direction: DirectionOut,
		Category:  CategorySubscription,
		Subscription: &SubscriptionEvent{
			SubscriptionID: 12,
			State:          "KEEPALIVE",
			SequenceNumber: 4,
			KeepAlive:      true,
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}

	if decoded.SessionID != event.SessionID {
		t.Errorf("SessionID = %q, want %q", decoded.SessionID, event.SessionID)
	}
	if decoded.Subscription == nil {
		t.Fatal("Subscription payload lost in round trip")
	}
	if *decoded.Subscription != *event.Subscription {
		t.Errorf("Subscription = %+v, want %+v", decoded.Subscription, event.Subscription)
	}
	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", decoded.Timestamp, event.Timestamp)
	}
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	logger.Log(serviceEvent("s-1", 1))
	logger.Log(serviceEvent("s-2", 2))
	logger.Log(serviceEvent("s-1", 3))
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Log after close must be a silent no-op.
	logger.Log(serviceEvent("s-1", 4))

	reader, err := NewFilteredReader(path, Filter{SessionID: "s-1"})
	if err != nil {
		t.Fatalf("NewFilteredReader: %v", err)
	}
	defer reader.Close()

	var handles []uint32
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		handles = append(handles, event.Service.RequestHandle)
	}
	if len(handles) != 2 || handles[0] != 1 || handles[1] != 3 {
		t.Errorf("filtered handles = %v, want [1 3]", handles)
	}
}

func TestMultiLogger(t *testing.T) {
	var first, second []Event
	a := loggerFunc(func(e Event) { first = append(first, e) })
	b := loggerFunc(func(e Event) { second = append(second, e) })

	multi := NewMultiLogger(a, b)
	multi.Log(serviceEvent("s-1", 1))

	if len(first) != 1 || len(second) != 1 {
		t.Errorf("fan-out counts = %d, %d, want 1, 1", len(first), len(second))
	}
}

// loggerFunc adapts a function to the Logger interface for tests.
type loggerFunc func(Event)

func (f loggerFunc) Log(e Event) { f(e) }

func TestSlogAdapter(t *testing.T) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	// Must not panic on any payload shape.
	adapter.Log(serviceEvent("s-1", 1))
	adapter.Log(Event{Category: CategoryError, Error: &ErrorEventData{Message: "boom", Context: "dispatch"}})
	adapter.Log(Event{Category: CategorySession})
}
