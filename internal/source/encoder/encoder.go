package encoder

import (
	"time"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// SourceName identifies this adapter on published events.
const SourceName = "encoder"

// Pin reads one GPIO input. High is true.
type Pin interface {
	Read() bool
}

// publisher is the slice of the bus the encoders need.
type publisher interface {
	Publish(ev event.Event)
}

// Encoder tracks one quadrature encoder with an integrated push switch.
// Rotation is decoded on CLK edges, the switch is active low.
type Encoder struct {
	// source tags published events with the encoder identity.
	source event.EncoderSource
	// clk is the quadrature clock pin.
	clk Pin
	// dt is the quadrature data pin.
	dt Pin
	// sw is the push switch pin, nil when the encoder has no switch wired.
	sw Pin
	// rotateDebounce is the minimum interval between accepted steps.
	rotateDebounce time.Duration
	// pressDebounce is the minimum interval between accepted presses.
	pressDebounce time.Duration
	// events receives decoded encoder events.
	events publisher
	// now is the clock, swappable in tests.
	now func() time.Time

	// lastCLK is the clock level seen on the previous sample.
	lastCLK bool
	// lastStep is when the last rotation step was accepted.
	lastStep time.Time
	// swDown is the switch level seen on the previous sample.
	swDown bool
	// lastPress is when the last press was accepted.
	lastPress time.Time
}

// NewEncoder builds a decoder for one physical encoder. The initial pin
// levels are latched so startup does not produce a phantom step.
func NewEncoder(
	source event.EncoderSource,
	clk, dt, sw Pin,
	rotateDebounce, pressDebounce time.Duration,
	events publisher,
) *Encoder {
	e := &Encoder{
		source:         source,
		clk:            clk,
		dt:             dt,
		sw:             sw,
		rotateDebounce: rotateDebounce,
		pressDebounce:  pressDebounce,
		events:         events,
		now:            time.Now,
	}

	e.lastCLK = clk.Read()
	if sw != nil {
		e.swDown = !sw.Read()
	}

	return e
}

// Poll samples the pins once and publishes any decoded step or press.
func (e *Encoder) Poll() {
	e.pollRotation()
	e.pollSwitch()
}

// pollRotation decodes one quadrature sample. On a CLK edge the DT level
// gives the direction: the pins are 90 degrees out of phase, so DT trailing
// CLK means clockwise.
func (e *Encoder) pollRotation() {
	clk := e.clk.Read()
	if clk == e.lastCLK {
		return
	}

	e.lastCLK = clk

	// Only the falling edge counts, one detent produces one step.
	if clk {
		return
	}

	now := e.now()
	if now.Sub(e.lastStep) < e.rotateDebounce {
		return
	}

	e.lastStep = now

	delta := -1
	if e.dt.Read() {
		delta = 1
	}

	e.events.Publish(event.Event{
		Kind:   event.KindEncoder,
		Source: SourceName,
		Encoder: &event.Encoder{
			Source: e.source,
			Action: event.ActionRotate,
			Delta:  delta,
		},
	})
}

// pollSwitch reports the press on the falling edge of the active-low switch.
func (e *Encoder) pollSwitch() {
	if e.sw == nil {
		return
	}

	down := !e.sw.Read()
	if down == e.swDown {
		return
	}

	e.swDown = down
	if !down {
		return
	}

	now := e.now()
	if now.Sub(e.lastPress) < e.pressDebounce {
		return
	}

	e.lastPress = now

	e.events.Publish(event.Event{
		Kind:   event.KindEncoder,
		Source: SourceName,
		Encoder: &event.Encoder{
			Source: e.source,
			Action: event.ActionPress,
		},
	})
}
