// Package config holds the settings of the room host.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	EnvAssetsDir   = "ROOM_ASSETS_DIR"
	EnvLogLevel    = "ROOM_LOG_LEVEL"
	EnvLoadTimeout = "ROOM_LOAD_TIMEOUT"
	EnvConcurrency = "ROOM_LOADER_CONCURRENCY"
)

var validate = validator.New()

type Config struct {
	Assets Assets `toml:"assets"`
	Loader Loader `toml:"loader"`
	World  World  `toml:"world"`
	Log    Log    `toml:"log"`
}

// Assets locates the manifest, the transform table and the model files.
// An empty Dir selects the resources embedded in the binary.
type Assets struct {
	Dir        string `toml:"dir"`
	Manifest   string `toml:"manifest" validate:"required"`
	Transforms string `toml:"transforms" validate:"required"`
}

type Loader struct {
	Concurrency int    `toml:"concurrency" validate:"min=1,max=64"`
	Timeout     string `toml:"timeout" validate:"required"`
}

type World struct {
	BaseGroup string `toml:"base_group" validate:"required"`
}

type Log struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

func Default() Config {
	return Config{
		Assets: Assets{
			Manifest:   "manifest.yaml",
			Transforms: "transforms.yaml",
		},
		Loader: Loader{
			Concurrency: 4,
			Timeout:     "30s",
		},
		World: World{
			BaseGroup: "base",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Parse reads a TOML document on top of the defaults. Keys that are absent
// keep their default value.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Load resolves the configuration: defaults, then the TOML file at path
// (skipped when path is empty or missing), then the .env files, then the
// process environment. The result is validated.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("Config file not found", slog.String("path", path))
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if cfg, err = Parse(data); err != nil {
				return Config{}, err
			}
		}
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	var present []string
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			present = append(present, file)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment. lookup has the
// signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(key string) (string, bool)) error {
	if value, ok := lookup(EnvAssetsDir); ok {
		c.Assets.Dir = value
	}
	if value, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = strings.ToLower(value)
	}
	if value, ok := lookup(EnvLoadTimeout); ok {
		c.Loader.Timeout = value
	}
	if value, ok := lookup(EnvConcurrency); ok {
		concurrency, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvConcurrency, err)
		}
		c.Loader.Concurrency = concurrency
	}
	return nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.LoadTimeout(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTimeout is the upper bound for loading the base group.
func (c Config) LoadTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Loader.Timeout)
	if err != nil {
		return 0, fmt.Errorf("loader timeout: %w", err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("loader timeout %q must be positive", c.Loader.Timeout)
	}
	return timeout, nil
}

func (c Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the handler selected by the log section.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	options := &slog.HandlerOptions{Level: c.LogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, options))
	}
	return slog.New(slog.NewTextHandler(w, options))
}
