// Package subscription implements the server side of the OPC UA
// publish/subscribe model: monitored items, the per-subscription publish
// state machine, and the registry that owns a session's subscriptions.
//
// # State machine
//
// A subscription moves through Creating → Normal ⇄ Late ⇄ KeepAlive, and
// from any state to the terminal Closed. Each call to Tick advances the
// machine by one publishing interval:
//
//   - pending notifications + a queued publish slot: a data-change message
//     is emitted and the keep-alive and lifetime counters reset
//   - pending notifications but no publish slot: the subscription is Late
//   - nothing pending for maxKeepAliveCount ticks: a keep-alive message is
//     emitted, which also counts as alive
//   - lifetimeCount ticks without any emitted message: the subscription
//     closes and is discarded by its registry
//
// Disabling publishing does not stop the timers; an abandoned disabled
// subscription still expires after lifetimeCount ticks.
//
// # Sequence numbers
//
// Every emitted message, keep-alives included, consumes exactly one
// sequence number starting at 1. Emitted messages stay in a retransmission
// queue until acknowledged; republishing a retired sequence number fails.
//
// # Concurrency
//
// Nothing in this package locks. The registry and its subscriptions are
// owned by one session and must only be touched while holding that
// session's exclusive lock, which serializes the request-dispatch path and
// the publish-timer path (see package server).
package subscription
