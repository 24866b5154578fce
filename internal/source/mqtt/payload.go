package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ringPayload is the JSON shape of the doorbell and motion topics.
type ringPayload struct {
	// Active is the on/off flag; producers that omit it mean "ring now".
	Active *bool `json:"active"`
	// Timestamp is the producer-side ISO8601 event time.
	Timestamp string `json:"timestamp"`
	// VideoURL optionally points at the camera stream.
	VideoURL string `json:"video_url"`
}

// parseRingPayload decodes a doorbell/motion payload. A missing active flag
// defaults to true, the way bare ring publishes have always behaved; an
// unparseable timestamp falls back to zero and the bus arrival time stands in.
func parseRingPayload(payload []byte) (active bool, ts time.Time, videoURL string, err error) {
	var p ringPayload
	if err = json.Unmarshal(payload, &p); err != nil {
		return false, time.Time{}, "", fmt.Errorf("decode ring payload: %w", err)
	}

	active = true
	if p.Active != nil {
		active = *p.Active
	}

	if p.Timestamp != "" {
		if parsed, parseErr := time.Parse(time.RFC3339, p.Timestamp); parseErr == nil {
			ts = parsed
		}
	}

	return active, ts, p.VideoURL, nil
}

// messagePayload is the JSON shape of the message topic.
type messagePayload struct {
	// Text is the message body.
	Text string `json:"text"`
}

// parseMessagePayload accepts either a {"text": ...} object or a bare
// string payload and returns the trimmed message text.
func parseMessagePayload(payload []byte) string {
	var p messagePayload
	if err := json.Unmarshal(payload, &p); err == nil && p.Text != "" {
		return strings.TrimSpace(p.Text)
	}

	var bare string
	if err := json.Unmarshal(payload, &bare); err == nil {
		return strings.TrimSpace(bare)
	}

	return strings.TrimSpace(string(payload))
}
