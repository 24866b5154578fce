package hdmi

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	ps "github.com/mitchellh/go-ps"

	"github.com/oshokin/doorbell-panel/internal/config"
	"github.com/oshokin/doorbell-panel/internal/domain/event"
	"github.com/oshokin/doorbell-panel/internal/logger"
)

// HDMI renders event frames as full-screen video. It satisfies
// render.Renderer.
type HDMI struct {
	// cfg holds the framebuffer, the player command and the fallback stream.
	cfg config.HDMIConfig

	// runCommand builds external commands, swappable in tests.
	runCommand func(name string, args ...string) *exec.Cmd
	// listProcesses enumerates running processes, swappable in tests.
	listProcesses func() ([]ps.Process, error)

	// mu guards the player and power state.
	mu sync.Mutex
	// player is the running video player, nil when idle.
	player *exec.Cmd
	// playerURL is the stream the running player was started with.
	playerURL string
	// powered mirrors the last display_power call.
	powered bool
}

// New builds the HDMI renderer. The display is not touched until the first
// frame arrives.
func New(cfg config.HDMIConfig) *HDMI {
	return &HDMI{
		cfg:           cfg,
		runCommand:    exec.Command,
		listProcesses: ps.Processes,
	}
}

// Render shows or clears the video output for the frame. Transient encoder
// overlays are ignored so a volume turn does not interrupt a running
// doorbell stream.
func (h *HDMI) Render(ctx context.Context, frame event.DisplayFrame) error {
	if frame.Layer.IsOverlay() {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch frame.Layer {
	case event.LayerDoorbell, event.LayerMotion:
		url := frame.VideoURL
		if url == "" {
			url = h.cfg.DefaultStream
		}

		if url == "" {
			return h.shutOff(ctx)
		}

		if err := h.setPower(ctx, true); err != nil {
			return err
		}

		return h.startPlayer(ctx, url)
	default:
		return h.shutOff(ctx)
	}
}

// Close stops any running player and powers the display off.
func (h *HDMI) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.shutOff(context.Background())
}

// shutOff kills the player and powers the display down. Callers hold mu.
func (h *HDMI) shutOff(ctx context.Context) error {
	h.stopPlayer(ctx)

	return h.setPower(ctx, false)
}

// setPower toggles the HDMI output through vcgencmd. Callers hold mu.
func (h *HDMI) setPower(ctx context.Context, on bool) error {
	if h.powered == on {
		return nil
	}

	state := "0"
	if on {
		state = "1"
	}

	if err := h.runCommand("vcgencmd", "display_power", state).Run(); err != nil {
		return fmt.Errorf("set display power: %w", err)
	}

	h.powered = on

	return nil
}

// startPlayer launches the video player on the stream unless one is
// already showing it. Callers hold mu.
func (h *HDMI) startPlayer(ctx context.Context, url string) error {
	if h.player != nil && h.playerURL == url {
		return nil
	}

	h.stopPlayer(ctx)

	name, args := h.playerCommand(url)

	if h.strayPlayerRunning(name) {
		logger.Warnf(ctx, "stray %s process found, not starting another player", name)

		return nil
	}

	cmd := h.runCommand(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start video player: %w", err)
	}

	h.player = cmd
	h.playerURL = url

	// Reap the player whenever it exits on its own.
	go func() {
		_ = cmd.Wait()
	}()

	return nil
}

// stopPlayer kills the running player, if any. Callers hold mu.
func (h *HDMI) stopPlayer(ctx context.Context) {
	if h.player == nil {
		return
	}

	if h.player.Process != nil {
		if err := h.player.Process.Kill(); err != nil {
			logger.Warnf(ctx, "kill video player: %v", err)
		}
	}

	h.player = nil
	h.playerURL = ""
}

// playerCommand splits the configured command line, points the video
// output at the framebuffer and appends the stream URL.
func (h *HDMI) playerCommand(url string) (string, []string) {
	fields := strings.Fields(h.cfg.PlayerCommand)
	name := fields[0]
	args := fields[1:]

	if h.cfg.Framebuffer != "" {
		args = append(args, "--vout", "fb", "--fbdev", h.cfg.Framebuffer)
	}

	args = append(args, url)

	return name, args
}

// strayPlayerRunning reports whether a player process this renderer did not
// start is already on screen, e.g. left over from a crashed run.
func (h *HDMI) strayPlayerRunning(name string) bool {
	procs, err := h.listProcesses()
	if err != nil {
		return false
	}

	base := filepath.Base(name)
	for _, p := range procs {
		if p.Executable() == base {
			return true
		}
	}

	return false
}
