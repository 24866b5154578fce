package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the Event union.
type Kind int

// Event kinds, one per input variant the arbiter understands.
const (
	KindUnknown Kind = iota
	KindDoorbell
	KindMotion
	KindMessage
	KindMetadata
	KindEncoder
	KindTimeout
	KindPlaybackFinished
	KindSourceStatus
)

// String returns the lowercase kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindDoorbell:
		return "doorbell"
	case KindMotion:
		return "motion"
	case KindMessage:
		return "message"
	case KindMetadata:
		return "metadata"
	case KindEncoder:
		return "encoder"
	case KindTimeout:
		return "timeout"
	case KindPlaybackFinished:
		return "playback_finished"
	case KindSourceStatus:
		return "source_status"
	case KindUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// Event is the tagged union carried on the merged stream. Exactly one of the
// payload pointers matching Kind is set; the rest are nil.
type Event struct {
	// Kind selects which payload field is populated.
	Kind Kind
	// Arrived is the arrival timestamp, stamped by the bus on publish.
	Arrived time.Time
	// Source names the adapter that produced the event.
	Source string

	// Doorbell is set for KindDoorbell.
	Doorbell *Doorbell
	// Motion is set for KindMotion.
	Motion *Motion
	// Message is set for KindMessage.
	Message *Message
	// Metadata is set for KindMetadata.
	Metadata *Metadata
	// Encoder is set for KindEncoder.
	Encoder *Encoder
	// Timeout is set for KindTimeout.
	Timeout *Timeout
	// Playback is set for KindPlaybackFinished.
	Playback *PlaybackFinished
	// Status is set for KindSourceStatus.
	Status *SourceStatus
}

// Doorbell reports the doorbell ring turning on or off.
type Doorbell struct {
	// Active is true while the ring condition holds.
	Active bool
	// Timestamp is the producer-side time of the ring, when known.
	Timestamp time.Time
	// VideoURL optionally points at the door camera stream.
	VideoURL string
}

// Motion reports detected motion turning on or off.
type Motion struct {
	// Active is true while motion is detected.
	Active bool
	// Timestamp is the producer-side time of the detection, when known.
	Timestamp time.Time
	// VideoURL optionally points at the camera stream that saw the motion.
	VideoURL string
}

// Message carries free-form text to show on the panel.
type Message struct {
	// Text is the message body.
	Text string
}

// PlayState is the AirPlay transport state.
type PlayState int

// AirPlay transport states.
const (
	PlayStateStopped PlayState = iota
	PlayStatePlaying
	PlayStatePaused
)

// String returns the lowercase state name for logging.
func (s PlayState) String() string {
	switch s {
	case PlayStatePlaying:
		return "playing"
	case PlayStatePaused:
		return "paused"
	case PlayStateStopped:
		return "stopped"
	default:
		return "stopped"
	}
}

// Metadata carries now-playing information from the metadata pipe.
type Metadata struct {
	// Artist is the current artist, may be empty.
	Artist string
	// Title is the current track title, may be empty.
	Title string
	// State is the transport state the metadata belongs to.
	State PlayState
}

// EncoderSource identifies which physical encoder produced an event.
type EncoderSource int

// The two rotary encoders of the panel.
const (
	EncoderVolume EncoderSource = iota
	EncoderSoundSelect
)

// String returns the lowercase encoder name for logging.
func (s EncoderSource) String() string {
	switch s {
	case EncoderVolume:
		return "volume"
	case EncoderSoundSelect:
		return "sound_select"
	default:
		return "unknown"
	}
}

// EncoderAction discriminates rotation from a switch press.
type EncoderAction int

// Encoder actions.
const (
	ActionRotate EncoderAction = iota
	ActionPress
)

// Encoder reports one debounced encoder step or press.
type Encoder struct {
	// Source is the encoder that moved.
	Source EncoderSource
	// Action is rotation or press.
	Action EncoderAction
	// Delta is +1 or -1 for ActionRotate, zero for ActionPress.
	Delta int
}

// TimeoutScope names the state a scheduled timeout expires.
type TimeoutScope int

// Timeout scopes, one per expirable layer condition.
const (
	ScopeDoorbell TimeoutScope = iota
	ScopeMotion
	ScopeMessage
	ScopeOverlay
)

// String returns the lowercase scope name for logging.
func (s TimeoutScope) String() string {
	switch s {
	case ScopeDoorbell:
		return "doorbell"
	case ScopeMotion:
		return "motion"
	case ScopeMessage:
		return "message"
	case ScopeOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// Timeout is a delayed self-event posted by the arbiter. Generation tags the
// scheduling moment; a delivery whose generation no longer matches the
// arbiter's counter for the scope is stale and ignored.
type Timeout struct {
	// Scope names the state this timeout was armed to expire.
	Scope TimeoutScope
	// Generation is the scope's counter value at scheduling time.
	Generation uint64
}

// PlaybackFinished reports that an alert sound finished playing.
type PlaybackFinished struct {
	// RequestID matches the PlayRequest that started the playback.
	RequestID uuid.UUID
}

// SourceStatus reports an adapter becoming unavailable or recovering.
type SourceStatus struct {
	// Name is the adapter name as published on its events.
	Name string
	// Available is false while the adapter is degraded.
	Available bool
}
