package oled

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/oshokin/doorbell-panel/internal/config"
	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// Panel geometry in pixels.
const (
	width  = 128
	height = 32
	pages  = height / 8
)

// refreshInterval is how often the stored frame is redrawn so the idle
// clock and event ages keep moving.
const refreshInterval = time.Second

// initSequence brings the controller out of reset into horizontal
// addressing mode with the charge pump on.
var initSequence = []byte{
	0xae,       // display off
	0xd5, 0x80, // clock divide
	0xa8, height - 1, // multiplex ratio
	0xd3, 0x00, // display offset
	0x40,       // start line 0
	0x8d, 0x14, // charge pump on
	0x20, 0x00, // horizontal addressing
	0xa1,       // segment remap
	0xc8,       // COM scan direction
	0xda, 0x02, // COM pins
	0x81, 0x8f, // contrast
	0xd9, 0xf1, // precharge
	0xdb, 0x40, // VCOM deselect
	0xa4, // resume from RAM
	0xa6, // normal polarity
	0xaf, // display on
}

// OLED renders frames on the I2C display. It satisfies render.Renderer.
type OLED struct {
	// dev is the controller transport.
	dev Device
	// now is the clock, swappable in tests.
	now func() time.Time

	// mu guards frame and last.
	mu sync.Mutex
	// frame is the most recently rendered frame, redrawn on refresh ticks.
	frame event.DisplayFrame
	// last is the framebuffer most recently pushed to the device.
	last []byte

	// done stops the refresh goroutine.
	done chan struct{}
	// wg waits for the refresh goroutine on Close.
	wg sync.WaitGroup
}

// New opens the display on the configured I2C bus and initializes it.
func New(cfg config.OLEDConfig) (*OLED, error) {
	dev, err := openI2C(cfg.I2CDevice, cfg.I2CAddress)
	if err != nil {
		return nil, err
	}

	return NewWithDevice(dev)
}

// NewWithDevice initializes the controller over an existing transport.
func NewWithDevice(dev Device) (*OLED, error) {
	o := &OLED{
		dev:  dev,
		now:  time.Now,
		done: make(chan struct{}),
	}

	if err := o.dev.Command(initSequence...); err != nil {
		dev.Close()

		return nil, err
	}

	o.wg.Add(1)
	go o.refreshLoop()

	return o, nil
}

// Render lays the frame out and pushes it to the panel.
func (o *OLED) Render(_ context.Context, frame event.DisplayFrame) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.frame = frame

	return o.draw()
}

// Close stops the refresh loop, blanks the panel and releases the bus.
func (o *OLED) Close() error {
	close(o.done)
	o.wg.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()

	// Power the panel down rather than leaving the last frame burned in.
	if err := o.dev.Command(0xae); err != nil {
		o.dev.Close()

		return err
	}

	return o.dev.Close()
}

// refreshLoop redraws the stored frame once a second.
func (o *OLED) refreshLoop() {
	defer o.wg.Done()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.done:
			return
		case <-ticker.C:
			o.mu.Lock()
			_ = o.draw()
			o.mu.Unlock()
		}
	}
}

// draw blits the current frame and sends it when it differs from the last
// pushed framebuffer. Callers hold mu.
func (o *OLED) draw() error {
	buf := blit(layout(o.frame, o.now()))
	if bytes.Equal(buf, o.last) {
		return nil
	}

	if err := o.dev.Command(
		0x21, 0, width-1, // column span
		0x22, 0, pages-1, // page span
	); err != nil {
		return err
	}

	if err := o.dev.Data(buf); err != nil {
		return err
	}

	o.last = buf

	return nil
}

// blit renders text lines into a page-ordered framebuffer, one line per
// 8-pixel page, 6 pixels per glyph.
func blit(lines []string) []byte {
	buf := make([]byte, width*pages)

	for page, line := range lines {
		if page >= pages {
			break
		}

		for col, ch := range []rune(line) {
			if col >= columns {
				break
			}

			g := glyph(ch)
			for i, b := range g {
				buf[page*width+col*6+i] = b
			}
		}
	}

	return buf
}
