package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/Protoscribe/pkg/consts"
	perrors "github.com/turtacn/Protoscribe/pkg/errors"
	"github.com/turtacn/Protoscribe/pkg/protocol"
)

// Config represents the root configuration of Protoscribe.
type Config struct {
	Version       string              `yaml:"version"`
	Server        ServerConfig        `yaml:"server"`
	Store         StoreConfig         `yaml:"store"`
	Compiler      CompilerConfig      `yaml:"compiler"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	ReadTimeout string `yaml:"read_timeout"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite
	Path   string `yaml:"path"`   // sqlite database file
}

type CompilerConfig struct {
	Nesting       string `yaml:"nesting"` // flat | recursive
	StrictFormats bool   `yaml:"strict_formats"`
}

type ObservabilityConfig struct {
	MetricsPath string `yaml:"metrics_path"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // json | text
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Version: "1",
		Server: ServerConfig{
			Addr:        consts.DefaultAddr,
			ReadTimeout: consts.DefaultReadTimeout.String(),
		},
		Store:    StoreConfig{Driver: "memory"},
		Compiler: CompilerConfig{Nesting: string(protocol.NestingFlat)},
		Observability: ObservabilityConfig{
			MetricsPath: consts.DefaultMetricsPath,
			LogLevel:    "info",
			LogFormat:   "text",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return Config{}, perrors.New(perrors.ErrCodeConfigInvalid, "LoadConfig", "cannot read "+path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, perrors.New(perrors.ErrCodeConfigInvalid, "LoadConfig", "cannot parse "+path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated fields and durations.
func (c Config) Validate() error {
	if _, ok := protocol.ParseNestingMode(c.Compiler.Nesting); !ok {
		return invalid(fmt.Sprintf("compiler.nesting %q must be flat or recursive", c.Compiler.Nesting))
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return invalid("store.path is required for the sqlite driver")
		}
	default:
		return invalid(fmt.Sprintf("store.driver %q must be memory or sqlite", c.Store.Driver))
	}
	if c.Server.ReadTimeout != "" {
		if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
			return perrors.New(perrors.ErrCodeConfigInvalid, "ValidateConfig", "server.read_timeout", err)
		}
	}
	return nil
}

// CompileOptions translates the compiler section into protocol options.
func (c Config) CompileOptions() []protocol.CompileOption {
	mode, _ := protocol.ParseNestingMode(c.Compiler.Nesting)
	opts := []protocol.CompileOption{protocol.WithNesting(mode)}
	if c.Compiler.StrictFormats {
		opts = append(opts, protocol.WithStrictFormats())
	}
	return opts
}

// ReadTimeout returns the parsed server read timeout.
func (c Config) ReadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadTimeout)
	if err != nil || d <= 0 {
		return consts.DefaultReadTimeout
	}
	return d
}

func invalid(msg string) error {
	return perrors.New(perrors.ErrCodeConfigInvalid, "ValidateConfig", msg, nil)
}

// Personal.AI order the ending
