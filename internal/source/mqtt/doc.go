// Package mqtt subscribes the doorbell, motion and message topics and
// translates their payloads into typed events on the merged stream.
//
// The client auto-reconnects; connection loss and recovery are reported as
// SourceStatus events so the arbiter can mark the source degraded instead
// of stalling. Payloads that fail to parse are logged and dropped, never
// propagated as a crash.
package mqtt
