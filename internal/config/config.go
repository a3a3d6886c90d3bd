// Package config loads the deployment configuration for the cluster service.
// Pin assignments, the ADC device and the Redis endpoint vary per board
// revision, so they live in a TOML file rather than in code. A missing file
// means the compiled-in reference configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// PinConfig maps a logical input/output channel to a GPIO chip and line.
// Keycode is set for channels routed through the gpio-keys input device
// instead of a directly requested line.
type PinConfig struct {
	Chip    int    `toml:"chip"`
	Line    int    `toml:"line"`
	Keycode uint16 `toml:"keycode,omitempty"`
}

type AdcConfig struct {
	Device  string `toml:"device"`
	Channel int    `toml:"channel"`
}

type RedisConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type Config struct {
	Redis RedisConfig `toml:"redis"`

	// FrameIntervalMs caps the UI loop rate. 16 ms targets ~60 Hz.
	FrameIntervalMs int `toml:"frame_interval_ms"`

	// LoadTimeoutMs is the watchdog for a panel load whose completion
	// callback never fires.
	LoadTimeoutMs int `toml:"load_timeout_ms"`

	InputDevice string               `toml:"input_device"`
	Inputs      map[string]PinConfig `toml:"inputs"`
	Outputs     map[string]PinConfig `toml:"outputs"`
	Adc         map[string]AdcConfig `toml:"adc"`

	// LightThreshold/LightHysteresis convert the raw light-level reading
	// into the day/night trigger state.
	LightThreshold  uint16 `toml:"light_threshold"`
	LightHysteresis uint16 `toml:"light_hysteresis"`
}

// Default returns the reference board configuration.
func Default() *Config {
	return &Config{
		Redis:           RedisConfig{Host: "127.0.0.1", Port: 6379},
		FrameIntervalMs: 16,
		LoadTimeoutMs:   3000,
		InputDevice:     "/dev/input/by-path/platform-gpio-keys-event",
		Inputs: map[string]PinConfig{
			"key_present":     {Chip: 0, Line: 6, Keycode: 30},
			"key_not_present": {Chip: 0, Line: 7, Keycode: 48},
			"lock":            {Chip: 0, Line: 8, Keycode: 46},
			"lights":          {Chip: 0, Line: 9, Keycode: 32},
		},
		Outputs: map[string]PinConfig{
			"backlight_enable": {Chip: 2, Line: 10},
		},
		Adc: map[string]AdcConfig{
			"oil_pressure":    {Device: "iio:device0", Channel: 0},
			"oil_temperature": {Device: "iio:device0", Channel: 1},
			"light_level":     {Device: "iio:device0", Channel: 2},
		},
		LightThreshold:  2048,
		LightHysteresis: 128,
	}
}

// Load reads the configuration file at path, falling back to Default when the
// file does not exist. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.FrameIntervalMs <= 0 {
		cfg.FrameIntervalMs = 16
	}
	if cfg.LoadTimeoutMs <= 0 {
		cfg.LoadTimeoutMs = 3000
	}
	return cfg, nil
}

func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

func (c *Config) LoadTimeout() time.Duration {
	return time.Duration(c.LoadTimeoutMs) * time.Millisecond
}
