package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BogdanYarotsky/opcua/pkg/log"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

func TestFormatServiceEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp: ts,
		SessionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction: log.DirectionIn,
		Category:  log.CategoryService,
		Service: &log.ServiceEvent{
			RequestType:   "CreateSubscriptionRequest",
			RequestHandle: 42,
			ServiceResult: uint32(ua.BadTooManySubscriptions),
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "2026-01-28T10:15:32.123456Z") {
		t.Errorf("expected formatted timestamp, got: %s", output)
	}
	if !strings.Contains(output, "[session:abc12345]") {
		t.Errorf("expected shortened session ID, got: %s", output)
	}
	if !strings.Contains(output, "IN") {
		t.Errorf("expected IN direction, got: %s", output)
	}
	if !strings.Contains(output, "CreateSubscriptionRequest") {
		t.Errorf("expected request type label, got: %s", output)
	}
	if !strings.Contains(output, "RequestHandle: 42") {
		t.Errorf("expected request handle, got: %s", output)
	}
	if !strings.Contains(output, "BadTooManySubscriptions") {
		t.Errorf("expected symbolic service result, got: %s", output)
	}
}

func TestFormatSubscriptionEvent(t *testing.T) {
	event := log.Event{
		Timestamp: time.Now(),
		SessionID: "short",
		Direction: log.DirectionOut,
		Category:  log.CategorySubscription,
		Subscription: &log.SubscriptionEvent{
			SubscriptionID: 7,
			SequenceNumber: 3,
			KeepAlive:      true,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "[session:short]") {
		t.Errorf("short session IDs should pass through, got: %s", output)
	}
	if !strings.Contains(output, "SubscriptionID: 7") {
		t.Errorf("expected subscription ID, got: %s", output)
	}
	if !strings.Contains(output, "SequenceNumber: 3 (keep-alive)") {
		t.Errorf("expected keep-alive marker, got: %s", output)
	}
}

func TestFormatErrorEvent(t *testing.T) {
	event := log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionOut,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Message: "publish queue overflow",
			Context: "dispatch",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "Message: publish queue overflow") {
		t.Errorf("expected error message, got: %s", output)
	}
	if !strings.Contains(output, "Context: dispatch") {
		t.Errorf("expected error context, got: %s", output)
	}
}

func TestParseDirectionFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    log.Direction
		wantErr bool
	}{
		{"in", log.DirectionIn, false},
		{"IN", log.DirectionIn, false},
		{"out", log.DirectionOut, false},
		{"Out", log.DirectionOut, false},
		{"sideways", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDirectionFlag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDirectionFlag(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDirectionFlag(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCategoryFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    log.Category
		wantErr bool
	}{
		{"service", log.CategoryService, false},
		{"SUBSCRIPTION", log.CategorySubscription, false},
		{"session", log.CategorySession, false},
		{"error", log.CategoryError, false},
		{"frame", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategoryFlag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategoryFlag(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseCategoryFlag(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// writeTestLog writes the events to a fresh log file and returns its path.
func writeTestLog(t *testing.T, events []log.Event) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.ualog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() returned error: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
	return path
}

func testEvents() []log.Event {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	return []log.Event{
		{
			Timestamp: base,
			SessionID: "session-a",
			Direction: log.DirectionIn,
			Category:  log.CategoryService,
			Service:   &log.ServiceEvent{RequestType: "CreateSessionRequest"},
		},
		{
			Timestamp: base.Add(time.Second),
			SessionID: "session-a",
			Direction: log.DirectionOut,
			Category:  log.CategorySubscription,
			Subscription: &log.SubscriptionEvent{
				SubscriptionID: 1,
				SequenceNumber: 1,
				KeepAlive:      true,
			},
		},
		{
			Timestamp: base.Add(2 * time.Second),
			SessionID: "session-b",
			Direction: log.DirectionOut,
			Category:  log.CategoryError,
			Error:     &log.ErrorEventData{Message: "boom"},
		},
	}
}

func TestRunView(t *testing.T) {
	path := writeTestLog(t, testEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView() returned error: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "CreateSessionRequest") {
		t.Errorf("expected service event in output, got: %s", output)
	}
	if !strings.Contains(output, "SubscriptionID: 1") {
		t.Errorf("expected subscription event in output, got: %s", output)
	}
	if !strings.Contains(output, "Message: boom") {
		t.Errorf("expected error event in output, got: %s", output)
	}
}

func TestRunView_CategoryFilter(t *testing.T) {
	path := writeTestLog(t, testEvents())

	cat := log.CategoryError
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Category: &cat}, &buf); err != nil {
		t.Fatalf("RunView() returned error: %v", err)
	}
	output := buf.String()

	if strings.Contains(output, "CreateSessionRequest") {
		t.Errorf("service event should be filtered out, got: %s", output)
	}
	if !strings.Contains(output, "Message: boom") {
		t.Errorf("expected error event in output, got: %s", output)
	}
}

func TestRunView_MissingFile(t *testing.T) {
	if err := RunView(filepath.Join(t.TempDir(), "nope.ualog"), ViewFilter{}, &bytes.Buffer{}); err == nil {
		t.Error("RunView() should fail for a missing file")
	}
}
