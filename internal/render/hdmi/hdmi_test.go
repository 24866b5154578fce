package hdmi

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/doorbell-panel/internal/config"
	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// newTestHDMI builds a renderer whose external commands resolve to the
// no-op true binary and records every invocation.
func newTestHDMI(t *testing.T) (*HDMI, *[]string) {
	t.Helper()

	var calls []string

	h := New(config.HDMIConfig{
		Framebuffer:   "/dev/fb0",
		PlayerCommand: "cvlc --no-audio",
		DefaultStream: "rtsp://door/cam",
	})
	h.runCommand = func(name string, args ...string) *exec.Cmd {
		calls = append(calls, name+" "+strings.Join(args, " "))

		return exec.Command("true")
	}
	h.listProcesses = func() ([]ps.Process, error) { return nil, nil }

	return h, &calls
}

// TestRender_DoorbellPowersOnAndPlays asserts a doorbell frame powers the
// display and launches the player on the frame's stream.
func TestRender_DoorbellPowersOnAndPlays(t *testing.T) {
	t.Parallel()

	h, calls := newTestHDMI(t)

	err := h.Render(context.Background(), event.DisplayFrame{
		Layer:    event.LayerDoorbell,
		VideoURL: "rtsp://gate/cam",
	})
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	require.Equal(t, "vcgencmd display_power 1", (*calls)[0])
	require.Equal(t, "cvlc --no-audio --vout fb --fbdev /dev/fb0 rtsp://gate/cam", (*calls)[1])
}

// TestRender_MotionFallsBackToDefaultStream asserts a motion frame with no
// stream of its own uses the configured default.
func TestRender_MotionFallsBackToDefaultStream(t *testing.T) {
	t.Parallel()

	h, calls := newTestHDMI(t)

	err := h.Render(context.Background(), event.DisplayFrame{Layer: event.LayerMotion})
	require.NoError(t, err)

	require.Contains(t, (*calls)[1], "rtsp://door/cam")
}

// TestRender_SameStreamDoesNotRespawn asserts re-rendering the same layer
// and stream keeps the running player.
func TestRender_SameStreamDoesNotRespawn(t *testing.T) {
	t.Parallel()

	h, calls := newTestHDMI(t)

	frame := event.DisplayFrame{Layer: event.LayerDoorbell, VideoURL: "rtsp://gate/cam"}
	require.NoError(t, h.Render(context.Background(), frame))
	require.NoError(t, h.Render(context.Background(), frame))

	require.Len(t, *calls, 2)
}

// TestRender_TextLayersPowerOff asserts metadata and idle frames stop the
// player and cut display power.
func TestRender_TextLayersPowerOff(t *testing.T) {
	t.Parallel()

	h, calls := newTestHDMI(t)

	require.NoError(t, h.Render(context.Background(),
		event.DisplayFrame{Layer: event.LayerDoorbell, VideoURL: "rtsp://gate/cam"}))
	require.NoError(t, h.Render(context.Background(),
		event.DisplayFrame{Layer: event.LayerMetadata, PrimaryText: "So What"}))

	require.Equal(t, "vcgencmd display_power 0", (*calls)[len(*calls)-1])
	require.Nil(t, h.player)
}

// TestRender_OverlayLeavesStreamAlone asserts a transient volume overlay
// does not interrupt a running doorbell stream.
func TestRender_OverlayLeavesStreamAlone(t *testing.T) {
	t.Parallel()

	h, calls := newTestHDMI(t)

	require.NoError(t, h.Render(context.Background(),
		event.DisplayFrame{Layer: event.LayerDoorbell, VideoURL: "rtsp://gate/cam"}))

	before := len(*calls)

	require.NoError(t, h.Render(context.Background(),
		event.DisplayFrame{Layer: event.LayerVolumeOverlay, PrimaryText: "Volume"}))

	require.Len(t, *calls, before)
	require.Equal(t, "rtsp://gate/cam", h.playerURL)
}

// TestRender_StrayPlayerBlocksSpawn asserts a leftover player process from
// a crashed run prevents a second one from starting.
func TestRender_StrayPlayerBlocksSpawn(t *testing.T) {
	t.Parallel()

	h, calls := newTestHDMI(t)
	h.listProcesses = func() ([]ps.Process, error) {
		return []ps.Process{fakeProcess{executable: "cvlc"}}, nil
	}

	err := h.Render(context.Background(), event.DisplayFrame{
		Layer:    event.LayerDoorbell,
		VideoURL: "rtsp://gate/cam",
	})
	require.NoError(t, err)

	// Power went on but no player was launched.
	require.Len(t, *calls, 1)
	require.Nil(t, h.player)
}

// fakeProcess satisfies ps.Process for the stray-player test.
type fakeProcess struct {
	executable string
}

func (p fakeProcess) Pid() int           { return 4242 }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.executable }
