// Package config assembles zparse's tool configuration.
//
// Settings are layered, later layers overriding earlier ones:
//
//  1. built-in defaults
//  2. the configuration file (TOML or YAML, with @include support for TOML)
//  3. ZPARSE_* environment variables
//
// Recognized keys are log.level, rules.dir, rules.language and
// watch.debounce.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/zparse/internal/config/loader"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "ZPARSE_"

// ErrInvalidValue indicates a setting with the wrong type or an unknown value.
var ErrInvalidValue = errors.New("invalid config value")

// Config is the resolved tool configuration.
type Config struct {
	Log   LogConfig
	Rules RulesConfig
	Watch WatchConfig
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
}

// RulesConfig selects the rule set.
type RulesConfig struct {
	// Dir holds user rule files named <language>.toml or <language>.yaml.
	Dir string

	// Language is the default language when none is inferred from a file.
	Language string
}

// WatchConfig tunes the file watcher.
type WatchConfig struct {
	// Debounce coalesces bursts of file events.
	Debounce time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:   LogConfig{Level: "info"},
		Rules: RulesConfig{Language: "hlasm"},
		Watch: WatchConfig{Debounce: 100 * time.Millisecond},
	}
}

// LogLevel converts Log.Level to a zerolog level.
func (c Config) LogLevel() (zerolog.Level, error) {
	switch c.Log.Level {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("log.level %q: %w", c.Log.Level, ErrInvalidValue)
	}
}

// Options controls where Load reads from.
type Options struct {
	// Path is the configuration file; empty skips the file layer.
	Path string

	// FS is the file system to read from; nil uses the OS.
	FS loader.FileSystem

	// SkipEnv ignores environment variables.
	SkipEnv bool
}

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = loader.DefaultFS()
	}

	merged := make(map[string]any)
	if opts.Path != "" {
		l, err := loader.ForPath(fsys, opts.Path)
		if err != nil {
			return Config{}, err
		}
		fileCfg, err := l.Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, fileCfg)
	}
	if !opts.SkipEnv {
		envCfg, err := loader.NewEnvLoader(EnvPrefix).Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, envCfg)
	}

	cfg := Default()
	if err := cfg.apply(merged); err != nil {
		return Config{}, err
	}
	if _, err := cfg.LogLevel(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(m map[string]any) error {
	if err := setString(m, "log.level", &c.Log.Level); err != nil {
		return err
	}
	if err := setString(m, "rules.dir", &c.Rules.Dir); err != nil {
		return err
	}
	if err := setString(m, "rules.language", &c.Rules.Language); err != nil {
		return err
	}
	return setDuration(m, "watch.debounce", &c.Watch.Debounce)
}

func setString(m map[string]any, path string, dst *string) error {
	v, ok := loader.Lookup(m, path)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%s: expected string, got %T: %w", path, v, ErrInvalidValue)
	}
	*dst = s
	return nil
}

func setDuration(m map[string]any, path string, dst *time.Duration) error {
	v, ok := loader.Lookup(m, path)
	if !ok {
		return nil
	}
	switch d := v.(type) {
	case time.Duration:
		*dst = d
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return fmt.Errorf("%s: %w", path, errors.Join(ErrInvalidValue, err))
		}
		*dst = parsed
	case int64:
		// Bare integers are milliseconds.
		*dst = time.Duration(d) * time.Millisecond
	case int:
		*dst = time.Duration(d) * time.Millisecond
	default:
		return fmt.Errorf("%s: expected duration, got %T: %w", path, v, ErrInvalidValue)
	}
	return nil
}
