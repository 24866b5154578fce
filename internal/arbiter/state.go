package arbiter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// DisplayState is the arbiter's decision of what the displays show now.
type DisplayState struct {
	// ActiveLayer is the layer currently owning both displays.
	ActiveLayer event.Layer
	// Frame is the rendered frame content of the active layer.
	Frame event.DisplayFrame
}

// AudioState is the arbiter's view of the audio channel.
type AudioState struct {
	// Volume is the mixer percentage, always within 0-100.
	Volume int
	// Muted reports whether the mixer is muted.
	Muted bool
	// SelectedSound is the committed alert sound filename, empty when the
	// sound directory is empty.
	SelectedSound string
	// IsPlaying reports whether an alert playback is in flight.
	IsPlaying bool
}

// pending tracks every currently active trigger condition. The highest
// priority one owns the base display layer; the rest wait underneath.
type pending struct {
	// doorbell is the active ring, nil when none.
	doorbell *event.Doorbell
	// motion is the active motion detection, nil when none.
	motion *event.Motion
	// message is the queued text message, nil when none.
	message *event.Message
	// metadata is the currently playing track, nil unless state is playing.
	metadata *event.Metadata
}

// recomputeBase selects the highest-priority pending condition and builds
// its frame. Running it twice without new events yields the same frame.
func (a *Arbiter) recomputeBase() event.DisplayFrame {
	if d := a.pend.doorbell; d != nil {
		return event.DisplayFrame{
			Layer:       event.LayerDoorbell,
			PrimaryText: "Doorbell!",
			Timestamp:   d.Timestamp,
			VideoURL:    d.VideoURL,
		}
	}

	if m := a.pend.motion; m != nil {
		return event.DisplayFrame{
			Layer:       event.LayerMotion,
			PrimaryText: "Motion detected",
			Timestamp:   m.Timestamp,
			VideoURL:    m.VideoURL,
		}
	}

	// Message vs metadata is a configurable tie-break; messages win by default.
	if a.opts.PreferMetadata {
		if frame, ok := a.metadataFrame(); ok {
			return frame
		}
	}

	if msg := a.pend.message; msg != nil {
		return event.DisplayFrame{
			Layer:       event.LayerMessage,
			PrimaryText: msg.Text,
		}
	}

	if frame, ok := a.metadataFrame(); ok {
		return frame
	}

	return event.DisplayFrame{
		Layer:         event.LayerIdle,
		SecondaryText: a.degradedGlyph(),
	}
}

// metadataFrame builds the now-playing frame when metadata is pending.
func (a *Arbiter) metadataFrame() (event.DisplayFrame, bool) {
	m := a.pend.metadata
	if m == nil {
		return event.DisplayFrame{}, false
	}

	return event.DisplayFrame{
		Layer:         event.LayerMetadata,
		PrimaryText:   m.Title,
		SecondaryText: m.Artist,
	}, true
}

// overlayFrame builds the transient encoder overlay frame.
func (a *Arbiter) overlayFrame() event.DisplayFrame {
	title := "Volume"
	if a.overlay == event.LayerSoundMenu {
		title = "Doorbell sound:"
	}

	return event.DisplayFrame{
		Layer:         a.overlay,
		PrimaryText:   title,
		SecondaryText: a.overlayText,
	}
}

// degradedGlyph renders the unavailable sources as a short status string
// shown on the idle layer, e.g. "!mqtt !shairport".
func (a *Arbiter) degradedGlyph() string {
	if len(a.degraded) == 0 {
		return ""
	}

	names := make([]string, 0, len(a.degraded))
	for name := range a.degraded {
		names = append(names, fmt.Sprintf("!%s", name))
	}

	sort.Strings(names)

	return strings.Join(names, " ")
}

// clampVolume bounds a mixer percentage to 0-100.
func clampVolume(v int) int {
	if v < 0 {
		return 0
	}

	if v > 100 {
		return 100
	}

	return v
}
