// Package render defines the capability interface every display output
// implements. The arbiter hands each sink the same DisplayFrame; the OLED
// and HDMI implementations adapt it to their hardware and discard what they
// cannot represent.
package render

import (
	"context"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// Renderer materializes display frames on one physical output.
type Renderer interface {
	// Render shows the frame. Implementations must tolerate being handed
	// the same frame repeatedly.
	Render(ctx context.Context, frame event.DisplayFrame) error
	// Close releases the underlying device, leaving it blanked or powered off.
	Close() error
}
