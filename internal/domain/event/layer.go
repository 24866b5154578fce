package event

import (
	"time"

	"github.com/google/uuid"
)

// Layer is the logical content category currently owning a display.
type Layer int

// Display layers.
const (
	LayerIdle Layer = iota
	LayerMetadata
	LayerMessage
	LayerVolumeOverlay
	LayerSoundMenu
	LayerMotion
	LayerDoorbell
)

// String returns the lowercase layer name for logging.
func (l Layer) String() string {
	switch l {
	case LayerIdle:
		return "idle"
	case LayerMetadata:
		return "metadata"
	case LayerMessage:
		return "message"
	case LayerVolumeOverlay:
		return "volume_overlay"
	case LayerSoundMenu:
		return "sound_menu"
	case LayerMotion:
		return "motion"
	case LayerDoorbell:
		return "doorbell"
	default:
		return "idle"
	}
}

// Priority ranks layers for conflict resolution: doorbell beats motion,
// motion beats the encoder overlays, overlays beat messages, messages beat
// metadata, anything beats idle. Both overlays share one tier.
func (l Layer) Priority() int {
	switch l {
	case LayerDoorbell:
		return 5
	case LayerMotion:
		return 4
	case LayerVolumeOverlay, LayerSoundMenu:
		return 3
	case LayerMessage:
		return 2
	case LayerMetadata:
		return 1
	case LayerIdle:
		return 0
	default:
		return 0
	}
}

// IsOverlay reports whether the layer is a transient encoder overlay that
// restores the prior content on expiry.
func (l Layer) IsOverlay() bool {
	return l == LayerVolumeOverlay || l == LayerSoundMenu
}

// DisplayFrame describes what a display should show, independent of the
// rendering hardware. Renderers discard fields they cannot represent.
type DisplayFrame struct {
	// Layer the frame belongs to.
	Layer Layer
	// PrimaryText is the main line, e.g. a track title or "Doorbell!".
	PrimaryText string
	// SecondaryText is the supporting line, e.g. the artist or a status glyph.
	SecondaryText string
	// Timestamp is the event time shown on event frames, zero when absent.
	Timestamp time.Time
	// VideoURL is the camera stream for doorbell and motion frames, empty otherwise.
	VideoURL string
}

// PlayRequest asks the audio sink to play one alert sound.
type PlayRequest struct {
	// ID correlates the request with its PlaybackFinished event.
	ID uuid.UUID
	// File is the sound filename inside the configured directory.
	File string
	// Volume is the mixer percentage to play at, 0-100.
	Volume int
}
