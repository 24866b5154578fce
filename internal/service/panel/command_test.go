package panel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/doorbell-panel/internal/config"
)

// writeTestConfig saves a minimal valid settings file pointing the sound
// library at dir.
func writeTestConfig(t *testing.T, path, soundDir string) {
	t.Helper()

	cfg := &config.Config{}
	cfg.MQTT.Broker = "localhost"
	cfg.MQTT.Topics.Doorbell = "doorbell/ring"
	cfg.MQTT.Topics.Motion = "doorbell/motion"
	cfg.MQTT.Topics.Message = "doorbell/message"
	cfg.Audio.Directory = soundDir

	require.NoError(t, config.Save(path, cfg))
}

// TestRun_MissingConfig asserts the service refuses to start without its
// settings file.
func TestRun_MissingConfig(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "load settings")
}

// TestRun_MissingSoundDirectory asserts an unreadable sound library is a
// startup failure rather than a degraded source.
func TestRun_MissingSoundDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yaml")
	writeTestConfig(t, cfgPath, filepath.Join(dir, "no-such-sounds"))

	err := Run(context.Background(), &Options{ConfigPath: cfgPath})
	require.Error(t, err)
	require.Contains(t, err.Error(), "open sound library")
}
