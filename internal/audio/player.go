package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
	"github.com/oshokin/doorbell-panel/internal/logger"
)

// Player is the audio sink contract consumed by the arbiter.
type Player interface {
	// Sounds lists the available alert sound filenames in stable order.
	Sounds() []string
	// Play starts the requested sound, interrupting any in-flight playback.
	Play(ctx context.Context, req event.PlayRequest) error
	// SetVolume applies the mixer volume percentage, 0-100.
	SetVolume(ctx context.Context, percent int) error
	// SetMute mutes or unmutes the mixer.
	SetMute(ctx context.Context, muted bool) error
	// Close stops any in-flight playback.
	Close() error
}

// publisher feeds completion events back into the merged stream.
type publisher interface {
	Publish(ev event.Event)
}

// SourceName is the source tag on events published by the player.
const SourceName = "audio"

var (
	// errNoPublisher is returned when the player is built without an event sink.
	errNoPublisher = errors.New("event publisher must be provided")
	// ErrUnknownSound is returned when a play request names a file missing
	// from the sound directory.
	ErrUnknownSound = errors.New("unknown sound file")
)

// ALSAPlayer implements Player on top of aplay and amixer.
type ALSAPlayer struct {
	// dir is the directory holding the WAV alert sounds.
	dir string
	// sounds is the sorted list of WAV filenames found in dir at startup.
	sounds []string
	// mixerDevice is the optional ALSA mixer device passed to amixer -D.
	mixerDevice string
	// mixerControl is the ALSA simple control adjusted by amixer.
	mixerControl string
	// events receives PlaybackFinished when an aplay run ends.
	events publisher

	// mu protects current.
	mu sync.Mutex
	// current is the in-flight aplay command, nil when idle.
	current *exec.Cmd

	// runCommand builds playback/mixer commands, replaceable in tests.
	runCommand func(name string, args ...string) *exec.Cmd
}

// NewALSAPlayer scans the sound directory and prepares the player.
func NewALSAPlayer(dir, mixerDevice, mixerControl string, events publisher) (*ALSAPlayer, error) {
	if events == nil {
		return nil, errNoPublisher
	}

	sounds, err := scanSounds(dir)
	if err != nil {
		return nil, err
	}

	return &ALSAPlayer{
		dir:          dir,
		sounds:       sounds,
		mixerDevice:  mixerDevice,
		mixerControl: mixerControl,
		events:       events,
		runCommand:   exec.Command,
	}, nil
}

// scanSounds lists the WAV files of the directory in sorted order.
func scanSounds(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan sound directory: %w", err)
	}

	sounds := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			continue
		}

		sounds = append(sounds, entry.Name())
	}

	sort.Strings(sounds)

	return sounds, nil
}

// Sounds lists the available alert sound filenames.
func (p *ALSAPlayer) Sounds() []string {
	result := make([]string, len(p.sounds))
	copy(result, p.sounds)

	return result
}

// Play starts the requested sound. Any in-flight playback is killed first so
// at most one aplay runs at a time; its completion event still fires and is
// discarded by the arbiter via the request ID.
func (p *ALSAPlayer) Play(ctx context.Context, req event.PlayRequest) error {
	path := filepath.Join(p.dir, filepath.Base(req.File))
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownSound, req.File)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.Process != nil {
		_ = p.current.Process.Kill()
	}

	cmd := p.runCommand("aplay", "-q", path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start aplay: %w", err)
	}

	p.current = cmd

	go func() {
		// An interrupted playback reports an error from the kill; either way
		// the run is over and the arbiter decides by request ID whether it
		// still cares.
		if err := cmd.Wait(); err != nil {
			logger.DebugKV(ctx, "Playback ended early", "file", req.File, "error", err)
		}

		p.events.Publish(event.Event{
			Kind:     event.KindPlaybackFinished,
			Source:   SourceName,
			Playback: &event.PlaybackFinished{RequestID: req.ID},
		})
	}()

	return nil
}

// SetVolume applies the mixer volume percentage via amixer.
func (p *ALSAPlayer) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 {
		percent = 0
	}

	if percent > 100 {
		percent = 100
	}

	args := mixerArgs(p.mixerDevice, p.mixerControl, strconv.Itoa(percent)+"%")
	if out, err := p.runCommand("amixer", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("set volume: %w: %s", err, out)
	}

	logger.DebugKV(ctx, "Mixer volume applied", "percent", percent)

	return nil
}

// SetMute mutes or unmutes the mixer control.
func (p *ALSAPlayer) SetMute(ctx context.Context, muted bool) error {
	value := "unmute"
	if muted {
		value = "mute"
	}

	args := mixerArgs(p.mixerDevice, p.mixerControl, value)
	if out, err := p.runCommand("amixer", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("set mute: %w: %s", err, out)
	}

	logger.DebugKV(ctx, "Mixer mute applied", "muted", muted)

	return nil
}

// Close kills any in-flight playback.
func (p *ALSAPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.Process != nil {
		_ = p.current.Process.Kill()
	}

	p.current = nil

	return nil
}

// mixerArgs builds the amixer argument list for one sset invocation.
func mixerArgs(device, control, value string) []string {
	args := make([]string, 0, 5)
	if device != "" {
		args = append(args, "-D", device)
	}

	return append(args, "sset", control, value)
}
