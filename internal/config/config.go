// Package config provides configuration file parsing for steamdesk.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// FileName is the name of the config file inside Dir().
const FileName = "config.toml"

// DefaultSkipKeywords name auxiliary packages that Steam installs next to
// games: compatibility tools, runtimes, SDKs, servers and soundtracks.
var DefaultSkipKeywords = []string{
	"Proton",
	"Steam Linux Runtime",
	"Steamworks",
	"Common Redistributables",
	"SteamVR",
	"Dedicated Server",
	"Soundtrack",
}

// DefaultIgnoredAppIDs are skipped regardless of name. 480 is Spacewar, the
// Steamworks sample app many games install for testing.
var DefaultIgnoredAppIDs = []string{"480"}

// Config holds user settings. Empty paths mean "autodetect".
type Config struct {
	SteamPath     string   `toml:"steam_path"`
	AppDir        string   `toml:"app_dir"`
	SkipKeywords  []string `toml:"skip_keywords" validate:"dive,required"`
	IgnoredAppIDs []string `toml:"ignored_app_ids" validate:"dive,required,numeric"`
	LaunchCommand string   `toml:"launch_command" validate:"required"`
	FallbackIcon  string   `toml:"fallback_icon"`
	Prune         bool     `toml:"prune"`
}

// Defaults returns the built-in configuration. Slices are copied so callers
// may modify the result.
func Defaults() Config {
	return Config{
		SkipKeywords:  append([]string(nil), DefaultSkipKeywords...),
		IgnoredAppIDs: append([]string(nil), DefaultIgnoredAppIDs...),
		LaunchCommand: "steam",
		Prune:         true,
	}
}

// Dir returns the steamdesk config directory, $XDG_CONFIG_HOME/steamdesk.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "steamdesk")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), FileName)
}

// Load reads the TOML file at path over Defaults(). Keys absent from the file
// keep their default value. A missing file is not an error.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Defaults()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg as TOML to path, creating the parent directory.
func Save(fs afero.Fs, path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints: every skip keyword is non-empty, every
// ignored app id is numeric, and a launch command is set.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// SplitList parses a comma separated flag value. Entries are trimmed and
// blanks dropped, so "a, ,b," yields [a b].
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
