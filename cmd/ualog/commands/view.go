// Package commands implements the ualog CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/BogdanYarotsky/opcua/pkg/log"
	"github.com/BogdanYarotsky/opcua/pkg/ua"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	SessionID string
	Direction *log.Direction
	Category  *log.Category
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] DIRECTION CATEGORY Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)
	dir := event.Direction.String()

	var typeLabel string
	switch {
	case event.Service != nil:
		typeLabel = event.Service.RequestType
	case event.Subscription != nil:
		typeLabel = "Subscription"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = event.Category.String()
	}

	fmt.Fprintf(w, "%s [session:%s] %-3s %s %s\n", ts, session, dir, event.Category.String(), typeLabel)

	switch {
	case event.Service != nil:
		formatServiceDetails(w, event.Service)
	case event.Subscription != nil:
		formatSubscriptionDetails(w, event.Subscription)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatServiceDetails writes service call details.
func formatServiceDetails(w io.Writer, svc *log.ServiceEvent) {
	if svc.RequestHandle != 0 {
		fmt.Fprintf(w, "  RequestHandle: %d\n", svc.RequestHandle)
	}
	if svc.ServiceResult != 0 {
		fmt.Fprintf(w, "  ServiceResult: %s\n", ua.StatusCode(svc.ServiceResult))
	}
}

// formatSubscriptionDetails writes subscription event details.
func formatSubscriptionDetails(w io.Writer, sub *log.SubscriptionEvent) {
	fmt.Fprintf(w, "  SubscriptionID: %d\n", sub.SubscriptionID)
	if sub.State != "" {
		fmt.Fprintf(w, "  State: %s\n", sub.State)
	}
	if sub.SequenceNumber != 0 {
		fmt.Fprintf(w, "  SequenceNumber: %d", sub.SequenceNumber)
		if sub.KeepAlive {
			fmt.Fprintf(w, " (keep-alive)")
		}
		fmt.Fprintln(w)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseDirectionFlag parses a direction string from a command-line flag
// (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	return parseDirection(s)
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "service":
		return log.CategoryService, nil
	case "subscription":
		return log.CategorySubscription, nil
	case "session":
		return log.CategorySession, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be service, subscription, session, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, log.Filter{
		SessionID: filter.SessionID,
		Direction: filter.Direction,
		Category:  filter.Category,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
