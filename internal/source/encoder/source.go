package encoder

import (
	"context"
	"fmt"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/oshokin/doorbell-panel/internal/config"
	"github.com/oshokin/doorbell-panel/internal/domain/event"
	"github.com/oshokin/doorbell-panel/internal/logger"
)

// pollInterval is how often the GPIO pins are sampled. One millisecond
// comfortably resolves hand rotation of a detented encoder.
const pollInterval = time.Millisecond

// rpioPin adapts a BCM pin to the Pin interface.
type rpioPin struct {
	// pin is the underlying memory-mapped pin.
	pin rpio.Pin
}

// Read reports whether the pin level is high.
func (p rpioPin) Read() bool {
	return p.pin.Read() == rpio.High
}

// inputPin configures a BCM pin as a pulled-up input.
func inputPin(bcm int) rpioPin {
	pin := rpio.Pin(bcm)
	pin.Input()
	pin.PullUp()

	return rpioPin{pin: pin}
}

// Source polls both panel encoders and publishes their events.
type Source struct {
	// cfg holds the pin assignments and debounce intervals.
	cfg config.GPIOConfig
	// events receives decoded encoder events.
	events publisher
}

// NewSource builds the GPIO source. Pins are not touched until Run.
func NewSource(cfg config.GPIOConfig, events publisher) *Source {
	return &Source{
		cfg:    cfg,
		events: events,
	}
}

// Run maps the GPIO registers and samples both encoders until the context
// is canceled. The pins stay unmapped and the source reports itself
// degraded when the GPIO device is unavailable.
func (s *Source) Run(ctx context.Context) error {
	if err := rpio.Open(); err != nil {
		s.publishStatus(false)

		return fmt.Errorf("open gpio: %w", err)
	}
	defer rpio.Close()

	volume := NewEncoder(
		event.EncoderVolume,
		inputPin(s.cfg.VolumeEncoder.CLK),
		inputPin(s.cfg.VolumeEncoder.DT),
		inputPin(s.cfg.VolumeEncoder.SW),
		s.cfg.DebounceInterval,
		s.cfg.PressDebounce,
		s.events,
	)
	sound := NewEncoder(
		event.EncoderSoundSelect,
		inputPin(s.cfg.SoundSelectEncoder.CLK),
		inputPin(s.cfg.SoundSelectEncoder.DT),
		inputPin(s.cfg.SoundSelectEncoder.SW),
		s.cfg.DebounceInterval,
		s.cfg.PressDebounce,
		s.events,
	)

	s.publishStatus(true)
	logger.Infof(ctx, "encoder source is polling GPIO")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			volume.Poll()
			sound.Poll()
		}
	}
}

// publishStatus reports the source going healthy or degraded.
func (s *Source) publishStatus(healthy bool) {
	s.events.Publish(event.Event{
		Kind:   event.KindSourceStatus,
		Source: SourceName,
		Status: &event.SourceStatus{
			Name:      SourceName,
			Available: healthy,
		},
	})
}
