// Package config loads and hot-reloads ccmuxd's config.toml. go-toml
// decodes directly into the Config struct; the daemon has one static
// config file and no remote/env-overlay requirement that would call for
// viper's extra surface.
package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full config.toml schema.
type Config struct {
	General     GeneralConfig     `toml:"general"`
	Appearance  AppearanceConfig  `toml:"appearance"`
	Colors      map[string]string `toml:"colors"`
	Keybindings map[string]string `toml:"keybindings"`
	Terminal    TerminalConfig    `toml:"terminal"`
	Agent       AgentConfig       `toml:"agent"`
	Persistence PersistenceConfig `toml:"persistence"`
}

type GeneralConfig struct {
	DefaultShell string `toml:"default_shell"`
	MaxDepth     int    `toml:"max_depth"`
	PrefixKey    string `toml:"prefix_key"`
}

type AppearanceConfig struct {
	Theme          string `toml:"theme"`
	StatusPosition string `toml:"status_position"` // "top" | "bottom"
	BorderStyle    string `toml:"border_style"`     // "single" | "double" | "rounded" | "none"
	ShowPaneTitles bool   `toml:"show_pane_titles"`
}

type TerminalConfig struct {
	ScrollbackLines   int `toml:"scrollback_lines"`
	RenderIntervalMS  int `toml:"render_interval_ms"`
	ParserTimeoutSecs int `toml:"parser_timeout_secs"`
}

type AgentConfig struct {
	DetectionEnabled bool   `toml:"detection_enabled"`
	DetectionMethod  string `toml:"detection_method"` // "pty" | "streamjson" | "visual"
	ShowStatus       bool   `toml:"show_status"`
	AutoResume       bool   `toml:"auto_resume"`
}

type PersistenceConfig struct {
	CheckpointIntervalSecs int `toml:"checkpoint_interval_secs"`
	MaxWALSizeMB           int `toml:"max_wal_size_mb"`
	ScreenSnapshotLines    int `toml:"screen_snapshot_lines"`
}

// Default returns the documented defaults for every field, used both as
// the starting point for Load and as the config for a daemon started with
// no config.toml at all.
func Default() Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return Config{
		General: GeneralConfig{
			DefaultShell: shell,
			MaxDepth:     50,
			PrefixKey:    "ctrl-b",
		},
		Appearance: AppearanceConfig{
			Theme:          "default",
			StatusPosition: "bottom",
			BorderStyle:    "single",
			ShowPaneTitles: true,
		},
		Colors:      map[string]string{},
		Keybindings: map[string]string{},
		Terminal: TerminalConfig{
			ScrollbackLines:   10000,
			RenderIntervalMS:  16,
			ParserTimeoutSecs: 5,
		},
		Agent: AgentConfig{
			DetectionEnabled: true,
			DetectionMethod:  "pty",
			ShowStatus:       true,
			AutoResume:       false,
		},
		Persistence: PersistenceConfig{
			CheckpointIntervalSecs: 30,
			MaxWALSizeMB:           16,
			ScreenSnapshotLines:    200,
		},
	}
}

// Load reads path, overlaying its values onto Default(). A missing file
// is not an error — the defaults alone are returned. Unknown keys are
// ignored with a warning logged through log, not returned as an error — a
// config written by a newer ccmux must not refuse to start an older one.
func Load(path string, log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			log.Warn("config: ignoring unknown key(s)", "detail", strictErr.Error())
			// Re-decode leniently so a future/foreign key doesn't block startup.
			cfg = Default()
			return cfg, toml.Unmarshal(data, &cfg)
		}
		return cfg, err
	}
	return cfg, nil
}
