// Package server implements the OPC UA service layer: per-session state,
// the services that mutate it, the message handler that routes decoded
// requests, and the publish driver that ticks subscriptions.
//
// # Dispatch model
//
// The transport layer decodes a request and calls MessageHandler.Handle.
// The handler acquires the session's exclusive lock, routes the request to
// exactly one service, and returns the service's response or status
// unchanged. Request kinds with no handler fail the call with
// BadServiceUnsupported; the session stays usable.
//
// # Concurrency
//
// Two execution contexts touch a session's subscriptions: the network
// receive path through MessageHandler, and the publish timer through
// Publisher. Both serialize on the session's single lock, held for the
// whole dispatch or tick. The lock is coarse (whole-session, not
// per-subscription), which makes cross-subscription ordering trivial:
// a delete and a tick of the same subscription can never interleave.
package server
