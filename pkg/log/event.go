package log

import "time"

// Event is one server event. CBOR encoding uses integer keys for
// compactness; a capture file is a plain concatenation of encoded events.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the session the event belongs to.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow relative to the server.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (at most one is set).
	Service      *ServiceEvent      `cbor:"5,keyasint,omitempty"`
	Subscription *SubscriptionEvent `cbor:"6,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"7,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates a received request.
	DirectionIn Direction = 0
	// DirectionOut indicates an emitted response or notification.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies an event.
type Category uint8

const (
	// CategoryService is a dispatched service request or its response.
	CategoryService Category = 1

	// CategorySubscription is a subscription state change or an emitted
	// notification message.
	CategorySubscription Category = 2

	// CategorySession is a session lifecycle event.
	CategorySession Category = 3

	// CategoryError is a failure at any layer.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryService:
		return "SERVICE"
	case CategorySubscription:
		return "SUBSCRIPTION"
	case CategorySession:
		return "SESSION"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ServiceEvent describes one dispatched service call.
type ServiceEvent struct {
	// RequestType is the request's type name, e.g. "CreateSubscriptionRequest".
	RequestType string `cbor:"1,keyasint"`

	// RequestHandle is the client-assigned handle from the request header.
	RequestHandle uint32 `cbor:"2,keyasint,omitempty"`

	// ServiceResult is the numeric status code of the call outcome.
	ServiceResult uint32 `cbor:"3,keyasint,omitempty"`
}

// SubscriptionEvent describes a subscription state change or an emitted
// notification message.
type SubscriptionEvent struct {
	// SubscriptionID identifies the subscription.
	SubscriptionID uint32 `cbor:"1,keyasint"`

	// State is the subscription state after the event.
	State string `cbor:"2,keyasint,omitempty"`

	// SequenceNumber is set when the event is an emitted message.
	SequenceNumber uint32 `cbor:"3,keyasint,omitempty"`

	// KeepAlive marks an emitted message that carried no data changes.
	KeepAlive bool `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData describes a failure.
type ErrorEventData struct {
	// Message is the human-readable failure description.
	Message string `cbor:"1,keyasint"`

	// Context names where the failure occurred.
	Context string `cbor:"2,keyasint,omitempty"`
}
