package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the doorbell panel appliance.
type Config struct {
	// LogLevel is the minimum level for console logging (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// MQTT configures the broker connection and event topics.
	MQTT MQTTConfig `yaml:"mqtt"`
	// Shairport configures the AirPlay metadata pipe.
	Shairport ShairportConfig `yaml:"shairport"`
	// GPIO configures the two rotary encoders.
	GPIO GPIOConfig `yaml:"gpio"`
	// Displays configures the OLED panel and the HDMI output.
	Displays DisplaysConfig `yaml:"displays"`
	// Audio configures the sound directory and the ALSA mixer.
	Audio AudioConfig `yaml:"audio"`
	// Durations configures how long each display layer stays up.
	Durations DurationsConfig `yaml:"durations"`
	// PreferMetadata flips the tie-break between a queued message and playing
	// metadata when no doorbell or motion layer is active. The default keeps
	// messages on top.
	PreferMetadata bool `yaml:"prefer_metadata"`
}

// MQTTConfig describes the broker connection and the three event topics.
type MQTTConfig struct {
	// Broker is the hostname or IP of the MQTT broker.
	Broker string `yaml:"broker"`
	// Port is the broker TCP port.
	Port int `yaml:"port"`
	// ClientID identifies this appliance to the broker.
	ClientID string `yaml:"client_id"`
	// Username is the optional broker username.
	Username string `yaml:"username"`
	// Password is the optional broker password.
	Password string `yaml:"password"`
	// Topics names the subscribed event topics.
	Topics TopicsConfig `yaml:"topics"`
}

// TopicsConfig names the subscribed MQTT topics per event type.
type TopicsConfig struct {
	// Doorbell is the topic carrying ring on/off payloads.
	Doorbell string `yaml:"doorbell"`
	// Motion is the topic carrying motion on/off payloads.
	Motion string `yaml:"motion"`
	// Message is the topic carrying free-form text messages.
	Message string `yaml:"message"`
}

// ShairportConfig describes the shairport-sync metadata source.
type ShairportConfig struct {
	// MetadataPipe is the path to the shairport-sync metadata FIFO.
	MetadataPipe string `yaml:"metadata_pipe"`
}

// EncoderPins lists the BCM pin numbers of one rotary encoder.
type EncoderPins struct {
	// CLK is the clock signal pin.
	CLK int `yaml:"clk"`
	// DT is the data signal pin.
	DT int `yaml:"dt"`
	// SW is the push-switch pin.
	SW int `yaml:"sw"`
}

// GPIOConfig describes both rotary encoders and their debounce behavior.
type GPIOConfig struct {
	// VolumeEncoder holds the pins of the volume encoder.
	VolumeEncoder EncoderPins `yaml:"volume_encoder"`
	// SoundSelectEncoder holds the pins of the sound selection encoder.
	SoundSelectEncoder EncoderPins `yaml:"sound_select_encoder"`
	// DebounceInterval is the minimum time between accepted rotation steps.
	DebounceInterval time.Duration `yaml:"debounce_interval"`
	// PressDebounce is the minimum time between accepted switch presses.
	PressDebounce time.Duration `yaml:"press_debounce"`
}

// OLEDConfig describes the I2C OLED panel.
type OLEDConfig struct {
	// I2CDevice is the Linux I2C bus device, e.g. /dev/i2c-1.
	I2CDevice string `yaml:"i2c_device"`
	// I2CAddress is the 7-bit address of the display controller.
	I2CAddress uint16 `yaml:"i2c_address"`
}

// HDMIConfig describes the HDMI video output.
type HDMIConfig struct {
	// Framebuffer is the framebuffer device video is rendered to.
	Framebuffer string `yaml:"framebuffer"`
	// PlayerCommand is the external video player binary.
	PlayerCommand string `yaml:"player_command"`
	// DefaultStream is the stream URL played when an event carries no video URL.
	DefaultStream string `yaml:"default_stream"`
}

// DisplaysConfig groups both display outputs.
type DisplaysConfig struct {
	// OLED configures the small I2C text panel.
	OLED OLEDConfig `yaml:"oled"`
	// HDMI configures the video output.
	HDMI HDMIConfig `yaml:"hdmi"`
}

// MixerConfig names the ALSA mixer used for volume control.
type MixerConfig struct {
	// Device is the ALSA mixer device name.
	Device string `yaml:"device"`
	// Control is the ALSA mixer control name.
	Control string `yaml:"control"`
}

// AudioConfig describes alert sound playback.
type AudioConfig struct {
	// Directory contains the WAV alert sounds.
	Directory string `yaml:"directory"`
	// DefaultSound is the alert played on doorbell rings until another is selected.
	DefaultSound string `yaml:"default_sound"`
	// Mixer names the ALSA mixer for volume control.
	Mixer MixerConfig `yaml:"mixer"`
	// VolumeStep is the percentage change per encoder detent.
	VolumeStep int `yaml:"volume_step"`
	// InitialVolume is the mixer volume applied at startup, 0-100.
	InitialVolume int `yaml:"initial_volume"`
}

// DurationsConfig holds the show duration of each transient display layer.
type DurationsConfig struct {
	// DoorbellShow is how long a ring stays on screen without an off event.
	DoorbellShow time.Duration `yaml:"doorbell_show"`
	// MotionShow is how long motion stays on screen without an off event.
	MotionShow time.Duration `yaml:"motion_show"`
	// VolumeOverlay is how long the volume overlay stays up after the last turn.
	VolumeOverlay time.Duration `yaml:"volume_overlay"`
	// SoundMenu is how long the sound selection overlay stays up after the last turn.
	SoundMenu time.Duration `yaml:"sound_menu"`
	// MessageShow bounds how long a message stays up. Zero keeps it until replaced.
	MessageShow time.Duration `yaml:"message_show"`
}

const (
	// DefaultConfigFilename is the default filename for appliance settings.
	DefaultConfigFilename = "doorbell-panel.yaml"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// defaultMQTTPort is the standard unencrypted MQTT port.
	defaultMQTTPort = 1883

	// defaultVolumeStep is the percentage change per encoder detent.
	defaultVolumeStep = 5

	// defaultInitialVolume is the startup mixer volume.
	defaultInitialVolume = 40

	// maxVolume is the upper bound of the mixer percentage range.
	maxVolume = 100
)

// Default durations and debounce intervals applied by Validate.
const (
	defaultDoorbellShow     = 10 * time.Second
	defaultMotionShow       = 10 * time.Second
	defaultVolumeOverlay    = 2 * time.Second
	defaultSoundMenu        = 5 * time.Second
	defaultDebounceInterval = 5 * time.Millisecond
	defaultPressDebounce    = 300 * time.Millisecond
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBrokerRequired is returned when the MQTT broker is missing.
	errBrokerRequired = errors.New("mqtt broker must be provided")
	// errTopicsRequired is returned when any of the three topics is missing.
	errTopicsRequired = errors.New("mqtt doorbell, motion and message topics must be provided")
	// errAudioDirRequired is returned when the sound directory is missing.
	errAudioDirRequired = errors.New("audio directory must be provided")
	// errVolumeOutOfRange is returned when the initial volume is outside 0-100.
	errVolumeOutOfRange = errors.New("initial volume must be between 0 and 100")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may carry broker credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults in place.
//
//nolint:cyclop // Sequential field checks are clearer unsplit.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.MQTT.Broker == "" {
		return errBrokerRequired
	}

	topics := cfg.MQTT.Topics
	if topics.Doorbell == "" || topics.Motion == "" || topics.Message == "" {
		return errTopicsRequired
	}

	if cfg.Audio.Directory == "" {
		return errAudioDirRequired
	}

	if cfg.Audio.InitialVolume < 0 || cfg.Audio.InitialVolume > maxVolume {
		return errVolumeOutOfRange
	}

	applyDefaults(cfg)

	return nil
}

// applyDefaults fills zero values with the appliance defaults.
func applyDefaults(cfg *Config) {
	if cfg.MQTT.Port <= 0 {
		cfg.MQTT.Port = defaultMQTTPort
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "doorbell-panel"
	}

	if cfg.GPIO.DebounceInterval <= 0 {
		cfg.GPIO.DebounceInterval = defaultDebounceInterval
	}

	if cfg.GPIO.PressDebounce <= 0 {
		cfg.GPIO.PressDebounce = defaultPressDebounce
	}

	if cfg.Displays.OLED.I2CDevice == "" {
		cfg.Displays.OLED.I2CDevice = "/dev/i2c-1"
	}

	if cfg.Displays.OLED.I2CAddress == 0 {
		cfg.Displays.OLED.I2CAddress = 0x3C
	}

	if cfg.Displays.HDMI.Framebuffer == "" {
		cfg.Displays.HDMI.Framebuffer = "/dev/fb0"
	}

	if cfg.Displays.HDMI.PlayerCommand == "" {
		cfg.Displays.HDMI.PlayerCommand = "cvlc"
	}

	if cfg.Audio.VolumeStep <= 0 {
		cfg.Audio.VolumeStep = defaultVolumeStep
	}

	if cfg.Audio.InitialVolume == 0 {
		cfg.Audio.InitialVolume = defaultInitialVolume
	}

	if cfg.Audio.Mixer.Control == "" {
		cfg.Audio.Mixer.Control = "PCM"
	}

	if cfg.Durations.DoorbellShow <= 0 {
		cfg.Durations.DoorbellShow = defaultDoorbellShow
	}

	if cfg.Durations.MotionShow <= 0 {
		cfg.Durations.MotionShow = defaultMotionShow
	}

	if cfg.Durations.VolumeOverlay <= 0 {
		cfg.Durations.VolumeOverlay = defaultVolumeOverlay
	}

	if cfg.Durations.SoundMenu <= 0 {
		cfg.Durations.SoundMenu = defaultSoundMenu
	}
}
