package panel

import (
	"context"
	"fmt"
	"sync"

	"github.com/oshokin/doorbell-panel/internal/arbiter"
	"github.com/oshokin/doorbell-panel/internal/audio"
	"github.com/oshokin/doorbell-panel/internal/bus"
	"github.com/oshokin/doorbell-panel/internal/config"
	"github.com/oshokin/doorbell-panel/internal/logger"
	"github.com/oshokin/doorbell-panel/internal/render"
	"github.com/oshokin/doorbell-panel/internal/render/hdmi"
	"github.com/oshokin/doorbell-panel/internal/render/oled"
	"github.com/oshokin/doorbell-panel/internal/source/encoder"
	"github.com/oshokin/doorbell-panel/internal/source/mqtt"
	"github.com/oshokin/doorbell-panel/internal/source/shairport"
)

// Options controls the doorbell-panel process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
}

// Run assembles the appliance and blocks until the context is canceled.
// Sources that cannot come up, such as the OLED bus on a development
// machine, degrade the panel instead of stopping it; only configuration
// and audio failures are fatal.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "doorbell-panel")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if lvl, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(lvl)
	}

	queue := bus.New()

	player, err := audio.NewALSAPlayer(
		cfg.Audio.Directory,
		cfg.Audio.Mixer.Device,
		cfg.Audio.Mixer.Control,
		queue,
	)
	if err != nil {
		return fmt.Errorf("open sound library: %w", err)
	}

	displays := buildDisplays(ctx, cfg)

	mqttSource, err := mqtt.New(cfg.MQTT, queue)
	if err != nil {
		return fmt.Errorf("prepare mqtt source: %w", err)
	}

	if err := mqttSource.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt source: %w", err)
	}

	if cfg.Shairport.MetadataPipe != "" {
		metadataSource, err := shairport.New(cfg.Shairport.MetadataPipe, queue)
		if err != nil {
			return fmt.Errorf("prepare metadata source: %w", err)
		}

		// Not tracked by the wait group: opening a FIFO with no writer
		// blocks past context cancellation, so this goroutine dies with
		// the process instead of stalling shutdown.
		go metadataSource.Run(ctx)
	}

	var wg sync.WaitGroup

	encoderSource := encoder.NewSource(cfg.GPIO, queue)

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := encoderSource.Run(ctx); err != nil {
			logger.Errorf(ctx, "Encoder source stopped: %v", err)
		}
	}()

	arb := arbiter.New(queue, displays, player, arbiter.Options{
		Durations:      cfg.Durations,
		VolumeStep:     cfg.Audio.VolumeStep,
		InitialVolume:  cfg.Audio.InitialVolume,
		DefaultSound:   cfg.Audio.DefaultSound,
		PreferMetadata: cfg.PreferMetadata,
	})

	logger.InfoKV(ctx, "Doorbell panel running",
		"broker", cfg.MQTT.Broker, "sounds", len(player.Sounds()), "displays", len(displays))

	runErr := arb.Run(ctx)

	// Shutdown: sources first so nothing publishes into a closing queue,
	// then the queue, then the sinks.
	mqttSource.Stop()
	wg.Wait()
	queue.Close()

	for _, display := range displays {
		if err := display.Close(); err != nil {
			logger.Warnf(ctx, "Close display: %v", err)
		}
	}

	if err := player.Close(); err != nil {
		logger.Warnf(ctx, "Close audio player: %v", err)
	}

	logger.Info(ctx, "Doorbell panel stopped")

	return runErr
}

// buildDisplays opens every display that is available. A missing OLED bus
// leaves the panel running on HDMI alone.
func buildDisplays(ctx context.Context, cfg *config.Config) []render.Renderer {
	displays := make([]render.Renderer, 0, 2)

	oledDisplay, err := oled.New(cfg.Displays.OLED)
	if err != nil {
		logger.Errorf(ctx, "OLED unavailable, continuing without it: %v", err)
	} else {
		displays = append(displays, oledDisplay)
	}

	displays = append(displays, hdmi.New(cfg.Displays.HDMI))

	return displays
}
