// Package arbiter contains the event-arbitration and display-state
// coordinator: the single consumer of the merged event stream.
//
// It owns the display and audio state exclusively, so no locking guards
// them beyond the queue itself. Conflicts between simultaneously pending
// content are resolved by layer priority (doorbell > motion > encoder
// overlays > message > metadata > idle); encoder overlays are transient and
// always restore whatever the priority ruleset computes once they expire.
// Timers are delayed self-events tagged with a per-scope generation
// counter; a delivered timeout whose generation no longer matches is stale
// and ignored, which removes the need for timer cancellation.
package arbiter
