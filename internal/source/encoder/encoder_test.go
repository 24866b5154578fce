package encoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// fakePin replays a scripted sequence of levels, holding the last one.
type fakePin struct {
	levels []bool
	idx    int
}

func (p *fakePin) Read() bool {
	if p.idx >= len(p.levels) {
		return p.levels[len(p.levels)-1]
	}

	level := p.levels[p.idx]
	p.idx++

	return level
}

// captureBus records published events.
type captureBus struct {
	events []event.Event
}

func (b *captureBus) Publish(ev event.Event) {
	b.events = append(b.events, ev)
}

// testClock hands out strictly increasing timestamps one tick apart.
type testClock struct {
	now  time.Time
	tick time.Duration
}

func (c *testClock) Now() time.Time {
	c.now = c.now.Add(c.tick)

	return c.now
}

// newTestEncoder wires an encoder to scripted pins with a 5ms rotation
// debounce and a 300ms press debounce, sampled 1ms apart.
func newTestEncoder(clk, dt, sw *fakePin, bus *captureBus) *Encoder {
	var swPin Pin
	if sw != nil {
		swPin = sw
	}

	e := NewEncoder(event.EncoderVolume, clk, dt, swPin,
		5*time.Millisecond, 300*time.Millisecond, bus)
	e.now = (&testClock{now: time.Unix(0, 0), tick: 10 * time.Millisecond}).Now

	return e
}

// TestEncoder_RotateClockwise asserts a falling CLK edge with DT high is a
// single +1 step.
func TestEncoder_RotateClockwise(t *testing.T) {
	t.Parallel()

	var (
		bus = &captureBus{}
		clk = &fakePin{levels: []bool{true, false, false}}
		dt  = &fakePin{levels: []bool{true}}
	)

	e := newTestEncoder(clk, dt, nil, bus)
	e.Poll()
	e.Poll()

	require.Len(t, bus.events, 1)
	require.Equal(t, event.KindEncoder, bus.events[0].Kind)
	require.Equal(t, event.ActionRotate, bus.events[0].Encoder.Action)
	require.Equal(t, 1, bus.events[0].Encoder.Delta)
}

// TestEncoder_RotateCounterClockwise asserts DT low on the falling edge is
// a -1 step.
func TestEncoder_RotateCounterClockwise(t *testing.T) {
	t.Parallel()

	var (
		bus = &captureBus{}
		clk = &fakePin{levels: []bool{true, false}}
		dt  = &fakePin{levels: []bool{false}}
	)

	e := newTestEncoder(clk, dt, nil, bus)
	e.Poll()

	require.Len(t, bus.events, 1)
	require.Equal(t, -1, bus.events[0].Encoder.Delta)
}

// TestEncoder_RisingEdgeIgnored asserts only the falling edge produces a
// step, so one detent is one event.
func TestEncoder_RisingEdgeIgnored(t *testing.T) {
	t.Parallel()

	var (
		bus = &captureBus{}
		clk = &fakePin{levels: []bool{false, true, false}}
		dt  = &fakePin{levels: []bool{true}}
	)

	e := newTestEncoder(clk, dt, nil, bus)
	e.Poll()
	e.Poll()

	require.Len(t, bus.events, 1)
}

// TestEncoder_RotationDebounce asserts edges inside the debounce window
// are dropped.
func TestEncoder_RotationDebounce(t *testing.T) {
	t.Parallel()

	var (
		bus = &captureBus{}
		clk = &fakePin{levels: []bool{true, false, true, false}}
		dt  = &fakePin{levels: []bool{true}}
	)

	e := newTestEncoder(clk, dt, nil, bus)
	e.now = (&testClock{now: time.Unix(0, 0), tick: time.Millisecond}).Now

	for i := 0; i < 3; i++ {
		e.Poll()
	}

	// Two falling edges inside the 5ms window collapse to one step.
	require.Len(t, bus.events, 1)
}

// TestEncoder_Press asserts the switch going low publishes a press with no
// delta, and the release is silent.
func TestEncoder_Press(t *testing.T) {
	t.Parallel()

	var (
		bus = &captureBus{}
		clk = &fakePin{levels: []bool{true}}
		dt  = &fakePin{levels: []bool{true}}
		sw  = &fakePin{levels: []bool{true, false, true}}
	)

	e := newTestEncoder(clk, dt, sw, bus)
	e.Poll()
	e.Poll()

	require.Len(t, bus.events, 1)
	require.Equal(t, event.ActionPress, bus.events[0].Encoder.Action)
	require.Equal(t, 0, bus.events[0].Encoder.Delta)
}

// TestEncoder_PressDebounce asserts chatter on the switch line inside the
// press debounce window produces one press.
func TestEncoder_PressDebounce(t *testing.T) {
	t.Parallel()

	var (
		bus = &captureBus{}
		clk = &fakePin{levels: []bool{true}}
		dt  = &fakePin{levels: []bool{true}}
		sw  = &fakePin{levels: []bool{true, false, true, false, true}}
	)

	e := newTestEncoder(clk, dt, sw, bus)
	e.now = (&testClock{now: time.Unix(0, 0), tick: 10 * time.Millisecond}).Now

	for i := 0; i < 4; i++ {
		e.Poll()
	}

	require.Len(t, bus.events, 1)
}

// TestEncoder_NoPhantomStepOnStartup asserts latching the initial levels
// keeps a low idle line from looking like an edge.
func TestEncoder_NoPhantomStepOnStartup(t *testing.T) {
	t.Parallel()

	var (
		bus = &captureBus{}
		clk = &fakePin{levels: []bool{false}}
		dt  = &fakePin{levels: []bool{true}}
	)

	e := newTestEncoder(clk, dt, nil, bus)
	e.Poll()
	e.Poll()

	require.Empty(t, bus.events)
}
