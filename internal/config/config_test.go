package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// validConfig returns the minimal configuration that passes validation.
func validConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: "broker.local",
			Topics: TopicsConfig{
				Doorbell: "home/doorbell/ring",
				Motion:   "home/doorbell/motion",
				Message:  "home/doorbell/message",
			},
		},
		Audio: AudioConfig{
			Directory: "/srv/sounds",
		},
	}
}

// TestValidate_RequiredFields asserts that missing broker, topics or sound
// directory fail validation.
func TestValidate_RequiredFields(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	cfg := validConfig()
	cfg.MQTT.Broker = ""
	require.ErrorIs(t, Validate(cfg), errBrokerRequired)

	cfg = validConfig()
	cfg.MQTT.Topics.Motion = ""
	require.ErrorIs(t, Validate(cfg), errTopicsRequired)

	cfg = validConfig()
	cfg.Audio.Directory = ""
	require.ErrorIs(t, Validate(cfg), errAudioDirRequired)

	cfg = validConfig()
	cfg.Audio.InitialVolume = 150
	require.ErrorIs(t, Validate(cfg), errVolumeOutOfRange)
}

// TestValidate_Defaults asserts that validation fills the documented defaults.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, Validate(cfg))

	require.Equal(t, 1883, cfg.MQTT.Port)
	require.Equal(t, "doorbell-panel", cfg.MQTT.ClientID)
	require.Equal(t, 5*time.Millisecond, cfg.GPIO.DebounceInterval)
	require.Equal(t, 300*time.Millisecond, cfg.GPIO.PressDebounce)
	require.Equal(t, "/dev/i2c-1", cfg.Displays.OLED.I2CDevice)
	require.Equal(t, uint16(0x3C), cfg.Displays.OLED.I2CAddress)
	require.Equal(t, "/dev/fb0", cfg.Displays.HDMI.Framebuffer)
	require.Equal(t, "cvlc", cfg.Displays.HDMI.PlayerCommand)
	require.Equal(t, 5, cfg.Audio.VolumeStep)
	require.Equal(t, 40, cfg.Audio.InitialVolume)
	require.Equal(t, "PCM", cfg.Audio.Mixer.Control)
	require.Equal(t, 10*time.Second, cfg.Durations.DoorbellShow)
	require.Equal(t, 2*time.Second, cfg.Durations.VolumeOverlay)
	require.Equal(t, 5*time.Second, cfg.Durations.SoundMenu)
	require.Zero(t, cfg.Durations.MessageShow)
	require.False(t, cfg.PreferMetadata)
}

// TestLoadSave_RoundTrip verifies that a saved config loads back identically.
func TestLoadSave_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := validConfig()
	cfg.Audio.DefaultSound = "classic-ding.wav"
	cfg.Durations.DoorbellShow = 7 * time.Second
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.MQTT.Broker, loaded.MQTT.Broker)
	require.Equal(t, cfg.Audio.DefaultSound, loaded.Audio.DefaultSound)
	require.Equal(t, 7*time.Second, loaded.Durations.DoorbellShow)

	// Saved file keeps restricted permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoad_MissingFile verifies a descriptive error for a missing settings file.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}
