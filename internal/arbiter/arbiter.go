package arbiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/doorbell-panel/internal/audio"
	"github.com/oshokin/doorbell-panel/internal/bus"
	"github.com/oshokin/doorbell-panel/internal/config"
	"github.com/oshokin/doorbell-panel/internal/domain/event"
	"github.com/oshokin/doorbell-panel/internal/logger"
	"github.com/oshokin/doorbell-panel/internal/render"
)

// SourceName is the source tag on self-events scheduled by the arbiter.
const SourceName = "arbiter"

// Options controls the arbiter's timings and audio behavior.
type Options struct {
	// Durations holds the show duration per transient layer.
	Durations config.DurationsConfig
	// VolumeStep is the percentage change per volume encoder detent.
	VolumeStep int
	// InitialVolume is the mixer volume applied when the loop starts.
	InitialVolume int
	// DefaultSound is the alert filename used until a selection is committed.
	DefaultSound string
	// PreferMetadata flips the message/metadata tie-break.
	PreferMetadata bool
}

// Arbiter consumes the merged event stream and coordinates both displays
// and the audio channel. All state below is touched only by the Run
// goroutine.
type Arbiter struct {
	// queue is the merged inbound event stream.
	queue *bus.Queue
	// displays are the render sinks, updated together on every change.
	displays []render.Renderer
	// player is the audio sink.
	player audio.Player
	// opts are the fixed timings and audio settings.
	opts Options

	// pend tracks the active trigger conditions.
	pend pending
	// overlay is the transient encoder overlay layer, LayerIdle when none.
	overlay event.Layer
	// overlayText is the value line of the active overlay.
	overlayText string
	// gens holds the per-scope timeout generation counters.
	gens map[event.TimeoutScope]uint64
	// degraded names the sources currently reported unavailable.
	degraded map[string]struct{}

	// aud is the audio channel state.
	aud AudioState
	// sounds is the alert sound list the selection index cycles through.
	sounds []string
	// selected is the committed index into sounds.
	selected int
	// preview is the candidate index shown while the sound menu is open.
	preview int
	// playingID is the request ID of the in-flight playback, if any.
	playingID uuid.UUID

	// display is the current decision, exposed for inspection.
	display DisplayState
	// lastFrame suppresses redundant renders of an unchanged frame.
	lastFrame event.DisplayFrame
	// rendered tracks whether lastFrame has been pushed at least once.
	rendered bool
}

// New builds the arbiter around its sinks. The sound selection starts at the
// configured default sound when it exists in the directory listing.
func New(queue *bus.Queue, displays []render.Renderer, player audio.Player, opts Options) *Arbiter {
	a := &Arbiter{
		queue:    queue,
		displays: displays,
		player:   player,
		opts:     opts,
		overlay:  event.LayerIdle,
		gens:     make(map[event.TimeoutScope]uint64),
		degraded: make(map[string]struct{}),
		sounds:   player.Sounds(),
	}

	a.aud.Volume = clampVolume(opts.InitialVolume)
	for i, name := range a.sounds {
		if name == opts.DefaultSound {
			a.selected = i
			break
		}
	}

	a.preview = a.selected
	a.aud.SelectedSound = a.currentSound()

	return a
}

// State returns the current display decision and audio state.
func (a *Arbiter) State() (DisplayState, AudioState) {
	return a.display, a.aud
}

// Run applies the initial volume, renders the idle layer and then processes
// the merged stream until the context is canceled or the queue closes.
func (a *Arbiter) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "arbiter")

	if err := a.player.SetVolume(ctx, a.aud.Volume); err != nil {
		logger.WarnKV(ctx, "Initial volume not applied", "error", err)
	}

	a.apply(ctx)

	for {
		ev, err := a.queue.Receive(ctx)

		switch {
		case err == nil:
		case errors.Is(err, bus.ErrClosed):
			logger.Info(ctx, "Event stream closed, exiting")
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		default:
			return fmt.Errorf("receive event: %w", err)
		}

		a.handle(ctx, ev)
	}
}

// handle dispatches one event. A glitch on one input must never take the
// appliance down, so malformed events are logged and dropped here.
func (a *Arbiter) handle(ctx context.Context, ev event.Event) {
	switch ev.Kind {
	case event.KindDoorbell:
		if ev.Doorbell == nil {
			a.dropMalformed(ctx, ev)
			return
		}

		a.handleDoorbell(ctx, ev.Doorbell)
	case event.KindMotion:
		if ev.Motion == nil {
			a.dropMalformed(ctx, ev)
			return
		}

		a.handleMotion(ctx, ev.Motion)
	case event.KindMessage:
		if ev.Message == nil {
			a.dropMalformed(ctx, ev)
			return
		}

		a.handleMessage(ctx, ev.Message)
	case event.KindMetadata:
		if ev.Metadata == nil {
			a.dropMalformed(ctx, ev)
			return
		}

		a.handleMetadata(ctx, ev.Metadata)
	case event.KindEncoder:
		if ev.Encoder == nil {
			a.dropMalformed(ctx, ev)
			return
		}

		a.handleEncoder(ctx, ev.Encoder)
	case event.KindTimeout:
		if ev.Timeout == nil {
			a.dropMalformed(ctx, ev)
			return
		}

		a.handleTimeout(ctx, ev.Timeout)
	case event.KindPlaybackFinished:
		if ev.Playback == nil {
			a.dropMalformed(ctx, ev)
			return
		}

		a.handlePlaybackFinished(ctx, ev.Playback)
	case event.KindSourceStatus:
		if ev.Status == nil {
			a.dropMalformed(ctx, ev)
			return
		}

		a.handleSourceStatus(ctx, ev.Status)
	case event.KindUnknown:
		a.dropMalformed(ctx, ev)
	default:
		a.dropMalformed(ctx, ev)
	}
}

// dropMalformed logs and discards an event the arbiter cannot interpret.
func (a *Arbiter) dropMalformed(ctx context.Context, ev event.Event) {
	logger.WarnKV(ctx, "Malformed event dropped", "kind", ev.Kind.String(), "source", ev.Source)
}

// handleDoorbell applies ring on/off. An off event for an already cleared
// ring is stale and ignored.
func (a *Arbiter) handleDoorbell(ctx context.Context, d *event.Doorbell) {
	if d.Active {
		a.pend.doorbell = d
		a.armTimeout(event.ScopeDoorbell, a.opts.Durations.DoorbellShow)
		a.ring(ctx)
		a.apply(ctx)

		return
	}

	if a.pend.doorbell == nil {
		logger.DebugKV(ctx, "Stale doorbell off event ignored")
		return
	}

	a.pend.doorbell = nil
	a.gens[event.ScopeDoorbell]++
	a.apply(ctx)
}

// handleMotion mirrors doorbell semantics at its own priority tier. The
// alert sound plays only when motion actually takes the display, so a ring
// in progress is never interrupted by a lower-priority trigger.
func (a *Arbiter) handleMotion(ctx context.Context, m *event.Motion) {
	if m.Active {
		a.pend.motion = m
		a.armTimeout(event.ScopeMotion, a.opts.Durations.MotionShow)

		if a.pend.doorbell == nil {
			a.ring(ctx)
		}

		a.apply(ctx)

		return
	}

	if a.pend.motion == nil {
		logger.DebugKV(ctx, "Stale motion off event ignored")
		return
	}

	a.pend.motion = nil
	a.gens[event.ScopeMotion]++
	a.apply(ctx)
}

// handleMessage queues the message; it surfaces once nothing higher is
// pending. A new message replaces the queued one.
func (a *Arbiter) handleMessage(ctx context.Context, m *event.Message) {
	a.pend.message = m

	if a.opts.Durations.MessageShow > 0 {
		a.armTimeout(event.ScopeMessage, a.opts.Durations.MessageShow)
	}

	a.apply(ctx)
}

// handleMetadata tracks the now-playing state. Only playing metadata is
// pending; paused or stopped transports clear it and let the display fall
// back.
func (a *Arbiter) handleMetadata(ctx context.Context, m *event.Metadata) {
	if m.State == event.PlayStatePlaying {
		a.pend.metadata = m
	} else {
		a.pend.metadata = nil
	}

	a.apply(ctx)
}

// handleEncoder applies a debounced rotation or press from either encoder.
func (a *Arbiter) handleEncoder(ctx context.Context, e *event.Encoder) {
	switch e.Source {
	case event.EncoderVolume:
		a.handleVolumeEncoder(ctx, e)
	case event.EncoderSoundSelect:
		a.handleSoundSelectEncoder(ctx, e)
	default:
		logger.WarnKV(ctx, "Encoder event with unknown source dropped", "encoder", int(e.Source))
		return
	}

	a.apply(ctx)
}

// handleVolumeEncoder adjusts the mixer and shows the transient volume
// overlay. Rotating while muted only surfaces the muted state; the press
// toggles mute.
func (a *Arbiter) handleVolumeEncoder(ctx context.Context, e *event.Encoder) {
	switch e.Action {
	case event.ActionRotate:
		if a.aud.Muted {
			a.showOverlay(event.LayerVolumeOverlay, "Muted", a.opts.Durations.VolumeOverlay)
			return
		}

		a.aud.Volume = clampVolume(a.aud.Volume + e.Delta*a.opts.VolumeStep)
		if err := a.player.SetVolume(ctx, a.aud.Volume); err != nil {
			logger.ErrorKV(ctx, "Volume not applied", "volume", a.aud.Volume, "error", err)
		}

		a.showOverlay(event.LayerVolumeOverlay, fmt.Sprintf("%d%%", a.aud.Volume), a.opts.Durations.VolumeOverlay)
	case event.ActionPress:
		a.aud.Muted = !a.aud.Muted
		if err := a.player.SetMute(ctx, a.aud.Muted); err != nil {
			logger.ErrorKV(ctx, "Mute not applied", "muted", a.aud.Muted, "error", err)
		}

		text := fmt.Sprintf("%d%%", a.aud.Volume)
		if a.aud.Muted {
			text = "Muted"
		}

		a.showOverlay(event.LayerVolumeOverlay, text, a.opts.Durations.VolumeOverlay)
	default:
		logger.WarnKV(ctx, "Encoder event with unknown action dropped", "action", int(e.Action))
	}
}

// handleSoundSelectEncoder cycles the alert sound preview and commits it on
// press. The previewed sound is not played; committing is silent.
func (a *Arbiter) handleSoundSelectEncoder(ctx context.Context, e *event.Encoder) {
	switch e.Action {
	case event.ActionRotate:
		if len(a.sounds) == 0 {
			logger.Warn(ctx, "Sound selection turned but the sound directory is empty")
			return
		}

		if a.overlay != event.LayerSoundMenu {
			a.preview = a.selected
		}

		a.preview = wrapIndex(a.preview+e.Delta, len(a.sounds))
		a.showOverlay(event.LayerSoundMenu, a.sounds[a.preview], a.opts.Durations.SoundMenu)
	case event.ActionPress:
		if a.overlay == event.LayerSoundMenu {
			a.selected = a.preview
			a.aud.SelectedSound = a.currentSound()
			logger.InfoKV(ctx, "Alert sound committed", "sound", a.aud.SelectedSound)
		}

		a.dismissOverlay()
	default:
		logger.WarnKV(ctx, "Encoder event with unknown action dropped", "action", int(e.Action))
	}
}

// handleTimeout expires the scoped state, unless the delivery is stale.
func (a *Arbiter) handleTimeout(ctx context.Context, t *event.Timeout) {
	if t.Generation != a.gens[t.Scope] {
		logger.DebugKV(ctx, "Stale timeout ignored",
			"scope", t.Scope.String(), "generation", t.Generation)
		return
	}

	switch t.Scope {
	case event.ScopeDoorbell:
		a.pend.doorbell = nil
	case event.ScopeMotion:
		a.pend.motion = nil
	case event.ScopeMessage:
		a.pend.message = nil
	case event.ScopeOverlay:
		a.overlay = event.LayerIdle
		a.overlayText = ""
	default:
		logger.WarnKV(ctx, "Timeout with unknown scope dropped", "scope", int(t.Scope))
		return
	}

	a.apply(ctx)
}

// handlePlaybackFinished clears the playing flag when the completion matches
// the in-flight request. Completions of interrupted playbacks miss the
// current ID and fall through.
func (a *Arbiter) handlePlaybackFinished(ctx context.Context, p *event.PlaybackFinished) {
	if p.RequestID != a.playingID {
		logger.DebugKV(ctx, "Completion of superseded playback ignored", "request_id", p.RequestID)
		return
	}

	a.aud.IsPlaying = false
	a.playingID = uuid.Nil
}

// handleSourceStatus tracks degraded adapters; the idle layer surfaces them
// as a status glyph.
func (a *Arbiter) handleSourceStatus(ctx context.Context, s *event.SourceStatus) {
	if s.Available {
		delete(a.degraded, s.Name)
		logger.InfoKV(ctx, "Source recovered", "source", s.Name)
	} else {
		a.degraded[s.Name] = struct{}{}
		logger.WarnKV(ctx, "Source unavailable, continuing on the rest", "source", s.Name)
	}

	a.apply(ctx)
}

// ring plays the committed alert sound at the current volume, unless muted.
func (a *Arbiter) ring(ctx context.Context) {
	if a.aud.Muted {
		return
	}

	file := a.currentSound()
	if file == "" {
		logger.Warn(ctx, "No alert sound available, ring is silent")
		return
	}

	id := uuid.New()
	a.playingID = id
	a.aud.IsPlaying = true

	err := a.player.Play(ctx, event.PlayRequest{
		ID:     id,
		File:   file,
		Volume: a.aud.Volume,
	})
	if err != nil {
		logger.ErrorKV(ctx, "Alert playback failed", "file", file, "error", err)

		a.aud.IsPlaying = false
		a.playingID = uuid.Nil
	}
}

// currentSound resolves the committed alert sound filename.
func (a *Arbiter) currentSound() string {
	if len(a.sounds) > 0 {
		return a.sounds[a.selected]
	}

	return a.opts.DefaultSound
}

// armTimeout bumps the scope generation and schedules its expiry self-event.
// Bumping invalidates every previously scheduled timeout of the scope.
func (a *Arbiter) armTimeout(scope event.TimeoutScope, after time.Duration) {
	a.gens[scope]++

	a.queue.Schedule(after, event.Event{
		Kind:   event.KindTimeout,
		Source: SourceName,
		Timeout: &event.Timeout{
			Scope:      scope,
			Generation: a.gens[scope],
		},
	})
}

// showOverlay raises a transient encoder overlay and (re)arms its expiry.
func (a *Arbiter) showOverlay(layer event.Layer, text string, after time.Duration) {
	a.overlay = layer
	a.overlayText = text
	a.armTimeout(event.ScopeOverlay, after)
}

// dismissOverlay drops the overlay immediately and invalidates its timer.
func (a *Arbiter) dismissOverlay() {
	a.overlay = event.LayerIdle
	a.overlayText = ""
	a.gens[event.ScopeOverlay]++
}

// apply recomputes the frame and pushes it to both displays when it
// changed. The overlay, when raised, preempts whatever the base ruleset
// selected; it never replaces the underlying pending state.
func (a *Arbiter) apply(ctx context.Context) {
	frame := a.recomputeBase()
	if a.overlay != event.LayerIdle {
		frame = a.overlayFrame()
	}

	a.display = DisplayState{
		ActiveLayer: frame.Layer,
		Frame:       frame,
	}

	if a.rendered && frame == a.lastFrame {
		return
	}

	for _, d := range a.displays {
		if err := d.Render(ctx, frame); err != nil {
			logger.ErrorKV(ctx, "Render failed", "layer", frame.Layer.String(), "error", err)
		}
	}

	a.lastFrame = frame
	a.rendered = true
}

// wrapIndex cycles an index into [0, n).
func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}

	return i
}
