// Package config loads mudra's load-time configuration from the environment,
// an optional .env file and the settings stored in the database.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/gesture"
)

// ErrInvalidConfig is returned when a value cannot be parsed or fails
// validation. It is the only fatal error class at startup.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix is prepended to every environment key.
const EnvPrefix = "MUDRA_"

// Config holds all configuration for the process.
type Config struct {
	Env        string
	Addr       string
	DataDir    string
	PluginDir  string
	LogFile    string
	SourceCmd  []string
	ReplayFile string

	Gesture GestureConfig
}

// GestureConfig is the engine's configuration surface.
type GestureConfig struct {
	Threshold    float64
	HoldFrames   int
	Show         []string
	Hide         []string
	Order        []string
	EmitObserved bool

	Prayer gesture.PrayerParams
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := ".mudra"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".mudra")
	}

	return &Config{
		Env:     "development",
		Addr:    ":8080",
		DataDir: dataDir,
		Gesture: GestureConfig{
			Threshold:  gesture.DefaultThreshold,
			HoldFrames: gesture.DefaultHoldFrames,
			Show:       []string{gesture.KindMiddleFinger.String()},
			Hide:       []string{gesture.KindPrayer.String()},
			Order:      kindNames(gesture.DefaultOrder()),
			Prayer:     gesture.DefaultPrayerParams(),
		},
	}
}

// Load reads .env files (missing files are ignored) and then the process
// environment on top of the defaults.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from defaults and whatever lookup returns for the
// prefixed keys.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	for _, k := range sortedKeys() {
		v, ok := lookup(EnvPrefix + strings.ToUpper(k))
		if !ok {
			continue
		}
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Set assigns a single key. Keys are lower-case without the prefix, the form
// used by the settings table.
func (c *Config) Set(key, value string) error {
	setter, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, key)
	}
	if err := setter(c, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	return nil
}

// Apply overrides the configuration with stored settings. Unknown keys are
// logged and skipped so an old database cannot block startup.
func (c *Config) Apply(settings map[string]string, log *zap.Logger) error {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := setters[strings.ToLower(k)]; !ok {
			if log != nil {
				log.Warn("ignoring unknown setting", zap.String("key", k))
			}
			continue
		}
		if err := c.Set(k, settings[k]); err != nil {
			return err
		}
	}
	return nil
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DBPath is the SQLite database location.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// ResolvedPluginDir returns PluginDir, or the plugins directory under DataDir.
func (c *Config) ResolvedPluginDir() string {
	if c.PluginDir != "" {
		return c.PluginDir
	}
	return filepath.Join(c.DataDir, "plugins")
}

// ResolvedLogFile returns LogFile, or mudra.log under DataDir.
func (c *Config) ResolvedLogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "mudra.log")
}

type setter func(*Config, string) error

var setters = map[string]setter{
	"env":        func(c *Config, v string) error { c.Env = v; return nil },
	"addr":       func(c *Config, v string) error { c.Addr = v; return nil },
	"data_dir":   func(c *Config, v string) error { c.DataDir = v; return nil },
	"plugin_dir": func(c *Config, v string) error { c.PluginDir = v; return nil },
	"log_file":   func(c *Config, v string) error { c.LogFile = v; return nil },
	"replay_file": func(c *Config, v string) error {
		c.ReplayFile = v
		return nil
	},
	"source_cmd": func(c *Config, v string) error {
		c.SourceCmd = strings.Fields(v)
		return nil
	},
	"confidence_threshold": func(c *Config, v string) error {
		return parseFloat(v, &c.Gesture.Threshold)
	},
	"hold_frames": func(c *Config, v string) error {
		return parseInt(v, &c.Gesture.HoldFrames)
	},
	"show_gestures": func(c *Config, v string) error {
		c.Gesture.Show = splitList(v)
		return nil
	},
	"hide_gestures": func(c *Config, v string) error {
		c.Gesture.Hide = splitList(v)
		return nil
	},
	"classifier_order": func(c *Config, v string) error {
		c.Gesture.Order = splitList(v)
		return nil
	},
	"emit_observed": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Gesture.EmitObserved = b
		return nil
	},
	"prayer_palm_distance": func(c *Config, v string) error {
		return parseFloat(v, &c.Gesture.Prayer.MaxPalmDistance)
	},
	"prayer_fingertip_distance": func(c *Config, v string) error {
		return parseFloat(v, &c.Gesture.Prayer.MaxFingertipDistance)
	},
	"prayer_min_fingers_up": func(c *Config, v string) error {
		return parseInt(v, &c.Gesture.Prayer.MinFingersUp)
	},
}

// Keys lists every recognized setting key.
func Keys() []string {
	return sortedKeys()
}

func sortedKeys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseFloat(v string, dst *float64) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func kindNames(kinds []gesture.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}
