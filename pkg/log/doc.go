// Package log provides structured event logging for the OPC UA server
// core. Every dispatched service call, emitted notification message, and
// subscription state change is captured as an Event.
//
// Applications choose where events go by supplying a Logger: NoopLogger
// discards everything, SlogAdapter bridges to log/slog for console output,
// FileLogger appends CBOR-encoded events to a file for later analysis with
// Reader, and MultiLogger fans out to several sinks at once.
package log
