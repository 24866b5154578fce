package oled

import (
	"strings"
	"time"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// Display text geometry: a 128x32 panel with a 6-pixel glyph advance gives
// 21 columns over 4 rows.
const (
	columns = 21
	rows    = 4
)

// layout converts a frame into exactly 4 lines of at most 21 characters.
// The clock drives the idle screen, event layers lead with their title,
// overlays center their value on the middle rows.
func layout(frame event.DisplayFrame, now time.Time) []string {
	switch frame.Layer {
	case event.LayerIdle:
		return []string{
			center(now.Format("15:04:05")),
			center(now.Format("Mon 2 Jan")),
			"",
			center(truncate(frame.SecondaryText)),
		}
	case event.LayerVolumeOverlay, event.LayerSoundMenu:
		return []string{
			center(truncate(frame.PrimaryText)),
			"",
			center(truncate(frame.SecondaryText)),
			"",
		}
	case event.LayerDoorbell, event.LayerMotion:
		return []string{
			center(truncate(frame.PrimaryText)),
			center(eventTime(frame.Timestamp, now)),
			center(truncate(frame.SecondaryText)),
			"",
		}
	case event.LayerMessage, event.LayerMetadata:
		return []string{
			truncate(frame.PrimaryText),
			truncate(frame.SecondaryText),
			"",
			center(now.Format("15:04")),
		}
	default:
		return []string{"", "", "", ""}
	}
}

// eventTime shows the event clock time, switching to an age once the event
// is more than a minute old.
func eventTime(ts, now time.Time) string {
	if ts.IsZero() {
		return ""
	}

	age := now.Sub(ts)
	if age < time.Minute {
		return ts.Format("15:04:05")
	}

	return ts.Format("15:04") + " (" + age.Truncate(time.Minute).String() + ")"
}

// truncate trims a line to the display width, marking the cut.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= columns {
		return s
	}

	return string(r[:columns-1]) + "~"
}

// center pads a line so it sits in the middle of the display.
func center(s string) string {
	r := []rune(s)
	if len(r) >= columns {
		return truncate(s)
	}

	return strings.Repeat(" ", (columns-len(r))/2) + s
}
