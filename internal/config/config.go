// Package config loads gotui settings from .gotui.yaml files and GOTUI_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

const (
	// FileName is the config file looked up in each config location
	FileName = ".gotui.yaml"
	// EnvPrefix prefixes every environment override, e.g. GOTUI_CAPACITY
	EnvPrefix = "GOTUI"
	// EnvConfigPath points at an explicit config file
	EnvConfigPath = "GOTUI_CONFIG"

	DefaultCapacity     = 4096
	DefaultMaxFrameSize = 1 << 20

	// keyDelimiter separates nested viper keys. Component names such as
	// runner.pipe contain dots, so the default "." cannot be used.
	keyDelimiter = "::"
)

// XFailRule marks tests whose id matches Pattern as expected to fail
type XFailRule struct {
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
	Strict  bool   `mapstructure:"strict" yaml:"strict,omitempty"`
	Reason  string `mapstructure:"reason" yaml:"reason,omitempty"`
}

// GoConfig controls the go test invocation
type GoConfig struct {
	Binary  string        `mapstructure:"binary" yaml:"binary"`
	Flags   []string      `mapstructure:"flags" yaml:"flags,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// LogsConfig controls where and how much gotui logs
type LogsConfig struct {
	Dir        string            `mapstructure:"dir" yaml:"dir,omitempty"`
	Level      string            `mapstructure:"level" yaml:"level"`
	Components map[string]string `mapstructure:"components" yaml:"components,omitempty"`
}

// Config is the resolved configuration
type Config struct {
	Path         string      `mapstructure:"path" yaml:"path"`
	Capacity     int         `mapstructure:"capacity" yaml:"capacity"`
	MaxFrameSize int         `mapstructure:"max_frame_size" yaml:"max_frame_size"`
	Go           GoConfig    `mapstructure:"go" yaml:"go"`
	Logs         LogsConfig  `mapstructure:"logs" yaml:"logs"`
	XFail        []XFailRule `mapstructure:"xfail" yaml:"xfail,omitempty"`
	CacheDir     string      `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"`

	// Files are the config files merged, lowest priority first
	Files []string `mapstructure:"-" yaml:"-"`
}

// Default returns the configuration used when no file sets anything
func Default() *Config {
	return &Config{
		Path:         "./...",
		Capacity:     DefaultCapacity,
		MaxFrameSize: DefaultMaxFrameSize,
		Go: GoConfig{
			Binary: "go",
		},
		Logs: LogsConfig{
			Level: "debug",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("path", d.Path)
	v.SetDefault("capacity", d.Capacity)
	v.SetDefault("max_frame_size", d.MaxFrameSize)
	v.SetDefault("go::binary", d.Go.Binary)
	v.SetDefault("go::flags", []string{})
	v.SetDefault("go::timeout", time.Duration(0))
	v.SetDefault("logs::dir", "")
	v.SetDefault("logs::level", d.Logs.Level)
	v.SetDefault("cache_dir", "")
}

// Load merges, from lowest to highest priority: $HOME/.config/gotui,
// the working directory, $GOTUI_CONFIG, the explicit file (if any), and
// GOTUI_* environment variables.
func Load(explicit string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var files []string
	candidates := candidatePaths()
	if env := os.Getenv(EnvConfigPath); env != "" {
		candidates = append(candidates, env)
	}
	for _, path := range candidates {
		merged, err := mergeFile(v, path, false)
		if err != nil {
			return nil, err
		}
		if merged {
			files = append(files, path)
		}
	}
	if explicit != "" {
		if _, err := mergeFile(v, explicit, true); err != nil {
			return nil, err
		}
		files = append(files, explicit)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, domain.ErrConfig("decode config", err)
	}
	cfg.Files = files

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func candidatePaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "gotui", FileName))
	}
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, FileName))
	}
	return paths
}

// mergeFile merges one file into v. A missing file is only an error when
// required.
func mergeFile(v *viper.Viper, path string, required bool) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return false, nil
		}
		return false, domain.ErrConfig("config file "+path, err)
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return false, domain.ErrConfig("read config "+path, err)
	}
	return true, nil
}

// Validate checks value ranges and compiles the xfail patterns
func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return domain.ErrConfig("capacity must be positive", nil)
	}
	if c.MaxFrameSize < c.Capacity {
		return domain.ErrConfig("max_frame_size must be at least capacity", nil)
	}
	if c.Go.Binary == "" {
		return domain.ErrConfig("go.binary must not be empty", nil)
	}
	for i, rule := range c.XFail {
		if rule.Pattern == "" {
			return domain.ErrConfig(fmt.Sprintf("xfail[%d]: empty pattern", i), nil)
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return domain.ErrConfig("xfail pattern "+rule.Pattern, err)
		}
	}
	return nil
}

// LogFile returns the path of a named log file under the logs dir
func (c *Config) LogFile(name string) string {
	if c.Logs.Dir == "" {
		return name
	}
	return filepath.Join(c.Logs.Dir, name)
}

// Write saves cfg as YAML at path
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
