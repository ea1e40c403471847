package ua

import "fmt"

// StatusCode is an OPC UA status code. The top two bits encode severity:
// 00 = good, 01 = uncertain, 10 = bad.
type StatusCode uint32

const (
	// Good indicates the operation succeeded.
	Good StatusCode = 0x00000000

	// BadUnexpectedError indicates an unexpected internal failure.
	BadUnexpectedError StatusCode = 0x80010000

	// BadInternalError indicates an internal error in the server.
	BadInternalError StatusCode = 0x80020000

	// BadTimeout indicates the operation timed out.
	BadTimeout StatusCode = 0x800A0000

	// BadServiceUnsupported indicates the server does not implement the
	// requested service. The connection stays usable for other requests.
	BadServiceUnsupported StatusCode = 0x800B0000

	// BadNothingToDo indicates the request contained no work to perform.
	BadNothingToDo StatusCode = 0x800F0000

	// BadTooManyOperations indicates the request exceeded server limits.
	BadTooManyOperations StatusCode = 0x80100000

	// BadSessionIDInvalid indicates the session id is not known.
	BadSessionIDInvalid StatusCode = 0x80250000

	// BadSessionClosed indicates the session was closed by the client.
	BadSessionClosed StatusCode = 0x80260000

	// BadSessionNotActivated indicates the session exists but
	// ActivateSession has not completed.
	BadSessionNotActivated StatusCode = 0x80270000

	// BadSubscriptionIDInvalid indicates the subscription id is not known.
	BadSubscriptionIDInvalid StatusCode = 0x80280000

	// BadNodeIDUnknown indicates the node id does not exist in the
	// server's address space.
	BadNodeIDUnknown StatusCode = 0x80340000

	// BadMonitoredItemIDInvalid indicates the monitored item id is not
	// known in the given subscription.
	BadMonitoredItemIDInvalid StatusCode = 0x80420000

	// BadMonitoredItemFilterUnsupported indicates the requested filter is
	// not supported for the item.
	BadMonitoredItemFilterUnsupported StatusCode = 0x80440000

	// BadIdentityTokenInvalid indicates the supplied authentication token
	// does not match the session.
	BadIdentityTokenInvalid StatusCode = 0x80200000

	// BadTooManySessions indicates the connection already carries a
	// session.
	BadTooManySessions StatusCode = 0x80560000

	// BadTooManySubscriptions indicates the session reached its
	// subscription limit.
	BadTooManySubscriptions StatusCode = 0x80770000

	// BadTooManyPublishRequests indicates the session queued more publish
	// requests than the server allows.
	BadTooManyPublishRequests StatusCode = 0x80780000

	// BadNoSubscription indicates a publish was received while the session
	// has no subscriptions at all.
	BadNoSubscription StatusCode = 0x80790000

	// BadSequenceNumberUnknown indicates an acknowledged sequence number
	// was never issued or has already been retired.
	BadSequenceNumberUnknown StatusCode = 0x807A0000

	// BadMessageNotAvailable indicates the requested retransmission
	// message is no longer in the retransmission queue.
	BadMessageNotAvailable StatusCode = 0x807B0000
)

var statusNames = map[StatusCode]string{
	Good:                              "Good",
	BadUnexpectedError:                "BadUnexpectedError",
	BadInternalError:                  "BadInternalError",
	BadTimeout:                        "BadTimeout",
	BadServiceUnsupported:             "BadServiceUnsupported",
	BadNothingToDo:                    "BadNothingToDo",
	BadTooManyOperations:              "BadTooManyOperations",
	BadSessionIDInvalid:               "BadSessionIDInvalid",
	BadSessionClosed:                  "BadSessionClosed",
	BadSessionNotActivated:            "BadSessionNotActivated",
	BadSubscriptionIDInvalid:          "BadSubscriptionIDInvalid",
	BadNodeIDUnknown:                  "BadNodeIDUnknown",
	BadMonitoredItemIDInvalid:         "BadMonitoredItemIDInvalid",
	BadMonitoredItemFilterUnsupported: "BadMonitoredItemFilterUnsupported",
	BadIdentityTokenInvalid:           "BadIdentityTokenInvalid",
	BadTooManySessions:                "BadTooManySessions",
	BadTooManySubscriptions:           "BadTooManySubscriptions",
	BadTooManyPublishRequests:         "BadTooManyPublishRequests",
	BadNoSubscription:                 "BadNoSubscription",
	BadSequenceNumberUnknown:          "BadSequenceNumberUnknown",
	BadMessageNotAvailable:            "BadMessageNotAvailable",
}

// String returns the symbolic name of the status code.
func (c StatusCode) String() string {
	if name, ok := statusNames[c]; ok {
		return name
	}
	return fmt.Sprintf("StatusCode(0x%08X)", uint32(c))
}

// Error makes a bad status code usable as a Go error. Services return a
// StatusCode as the error when a whole call fails; per-operation results
// carry their codes inside the response instead.
func (c StatusCode) Error() string {
	return c.String()
}

// IsGood returns true if the severity bits indicate success.
func (c StatusCode) IsGood() bool {
	return c&0xC0000000 == 0
}

// IsBad returns true if the severity bits indicate failure.
func (c StatusCode) IsBad() bool {
	return c&0x80000000 != 0
}
