// Package bus implements the merged event stream between the source
// adapters and the arbiter: an unbounded multi-producer queue with a single
// blocking consumer. Events keep arrival order across all producers, and
// per-source order follows from each adapter publishing from one goroutine.
//
// Timers are modeled as delayed self-events: Schedule posts the event into
// the same queue when the delay elapses, so a timer firing and a concurrent
// event arriving serialize through one point. Stale timers are not
// cancelled here; the arbiter discards them by generation tag.
package bus
