package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	// mu protects events.
	mu sync.Mutex
	// events holds everything published so far.
	events []event.Event
}

// Publish appends the event to the recording.
func (r *recordingPublisher) Publish(ev event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)
}

// snapshot returns a copy of the recorded events.
func (r *recordingPublisher) snapshot() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]event.Event, len(r.events))
	copy(result, r.events)

	return result
}

// soundDir creates a temp directory with the given WAV files.
func soundDir(t *testing.T, names ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("RIFF"), 0o600))
	}

	return dir
}

// TestScanSounds_SortedWAVOnly verifies only WAV files are listed, sorted.
func TestScanSounds_SortedWAVOnly(t *testing.T) {
	t.Parallel()

	dir := soundDir(t, "zelda.wav", "alarm.wav", "ding.wav")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	p, err := NewALSAPlayer(dir, "", "PCM", new(recordingPublisher))
	require.NoError(t, err)
	require.Equal(t, []string{"alarm.wav", "ding.wav", "zelda.wav"}, p.Sounds())
}

// TestPlay_UnknownSound verifies a missing file is rejected without spawning.
func TestPlay_UnknownSound(t *testing.T) {
	t.Parallel()

	p, err := NewALSAPlayer(soundDir(t, "ding.wav"), "", "PCM", new(recordingPublisher))
	require.NoError(t, err)

	err = p.Play(context.Background(), event.PlayRequest{ID: uuid.New(), File: "gone.wav"})
	require.ErrorIs(t, err, ErrUnknownSound)
}

// TestPlay_PublishesPlaybackFinished verifies the completion event carries
// the request ID once the command exits.
func TestPlay_PublishesPlaybackFinished(t *testing.T) {
	t.Parallel()

	events := new(recordingPublisher)
	p, err := NewALSAPlayer(soundDir(t, "ding.wav"), "", "PCM", events)
	require.NoError(t, err)

	// Replace aplay with a command that exits immediately.
	p.runCommand = func(string, ...string) *exec.Cmd {
		return exec.Command("true")
	}

	id := uuid.New()
	require.NoError(t, p.Play(context.Background(), event.PlayRequest{ID: id, File: "ding.wav"}))

	require.Eventually(t, func() bool {
		return len(events.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	got := events.snapshot()[0]
	require.Equal(t, event.KindPlaybackFinished, got.Kind)
	require.Equal(t, id, got.Playback.RequestID)
}

// TestMixerArgs pins the amixer invocation shape with and without a device.
func TestMixerArgs(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"sset", "PCM", "70%"},
		mixerArgs("", "PCM", "70%"))
	require.Equal(t,
		[]string{"-D", "hw:1", "sset", "Digital", "mute"},
		mixerArgs("hw:1", "Digital", "mute"))
}

// TestSetVolume_ClampsArguments verifies out-of-range percentages are
// clamped before reaching amixer.
func TestSetVolume_ClampsArguments(t *testing.T) {
	t.Parallel()

	var captured [][]string

	p, err := NewALSAPlayer(soundDir(t), "", "PCM", new(recordingPublisher))
	require.NoError(t, err)

	p.runCommand = func(_ string, args ...string) *exec.Cmd {
		captured = append(captured, args)
		return exec.Command("true")
	}

	require.NoError(t, p.SetVolume(context.Background(), 150))
	require.NoError(t, p.SetVolume(context.Background(), -10))

	require.Equal(t, []string{"sset", "PCM", "100%"}, captured[0])
	require.Equal(t, []string{"sset", "PCM", "0%"}, captured[1])
}
