// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Timer  TimerConfig  `toml:"timer"`
	Input  InputConfig  `toml:"input"`
	Keys   KeysConfig   `toml:"keys"`
	Colors ColorsConfig `toml:"colors"`
	Log    LogConfig    `toml:"log"`
}

// TimerConfig maps clock and layout settings.
type TimerConfig struct {
	FPS              *int     `toml:"fps"`
	Runner           *string  `toml:"runner"`
	SegmentsOnScreen *int     `toml:"segments-per-screen"`
	MinSegmentsAhead *int     `toml:"min-segments-ahead"`
	ExtraStats       []string `toml:"extra-stats"`
	LockingMessage   *string  `toml:"locking-message"`
}

// InputConfig maps the keyboard backend settings. Durations are in seconds.
type InputConfig struct {
	Backend    *string  `toml:"backend"`
	KeyboardID *int     `toml:"keyboard-id"`
	KeyDelay   *float64 `toml:"key-delay"`
	ResetMin   *float64 `toml:"reset-min"`
	ResetMax   *float64 `toml:"reset-max"`
}

// KeyConfig is one binding, e.g. { key = "27", shift = true }.
type KeyConfig struct {
	Key   *string `toml:"key"`
	Shift *bool   `toml:"shift"`
}

// KeysConfig maps the timer keybindings.
type KeysConfig struct {
	Split *KeyConfig `toml:"split"`
	Reset *KeyConfig `toml:"reset"`
	Undo  *KeyConfig `toml:"undo"`
	Redo  *KeyConfig `toml:"redo"`
	Lock  *KeyConfig `toml:"lock"`
}

// ColorsConfig maps hex colours such as "#ffcc00".
type ColorsConfig struct {
	Base          *string `toml:"base"`
	AheadGaining  *string `toml:"ahead-gaining"`
	AheadLosing   *string `toml:"ahead-losing"`
	BehindGaining *string `toml:"behind-gaining"`
	BehindLosing  *string `toml:"behind-losing"`
	Best          *string `toml:"best"`
	Separator     *string `toml:"separator"`
	DetailedTimer *string `toml:"detailed-timer"`
}

// LogConfig maps the debug log settings.
type LogConfig struct {
	Level      *string `toml:"level"`
	MaxSizeMB  *int    `toml:"max-size-mb"`
	MaxBackups *int    `toml:"max-backups"`
	MaxAgeDays *int    `toml:"max-age-days"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
