// Package config loads tasktree settings from an optional YAML file,
// TASKTREE_* environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "TASKTREE"

type Config struct {
	File    string        `mapstructure:"file"`
	Format  string        `mapstructure:"format"`
	Pretty  bool          `mapstructure:"pretty"`
	NoColor bool          `mapstructure:"no_color"`
	ASCII   bool          `mapstructure:"ascii"`
	Prompt  bool          `mapstructure:"prompt"`
	Log     LogConfig     `mapstructure:"log"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Journal JournalConfig `mapstructure:"journal"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console|json
}

type SyncConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	AutoCommit     bool          `mapstructure:"auto_commit"`
	AutoPush       bool          `mapstructure:"auto_push"`
	AutoPullRebase bool          `mapstructure:"auto_pull_rebase"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type JournalConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func Default() Config {
	return Config{
		Format: "json",
		Prompt: true,
		Log:    LogConfig{Level: "warn", Format: "console"},
		Sync: SyncConfig{
			Enabled:        true,
			AutoCommit:     true,
			AutoPush:       true,
			AutoPullRebase: true,
			Timeout:        30 * time.Second,
		},
		Journal: JournalConfig{Enabled: true},
	}
}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("file", d.File)
	v.SetDefault("format", d.Format)
	v.SetDefault("pretty", d.Pretty)
	v.SetDefault("no_color", d.NoColor)
	v.SetDefault("ascii", d.ASCII)
	v.SetDefault("prompt", d.Prompt)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("sync.enabled", d.Sync.Enabled)
	v.SetDefault("sync.auto_commit", d.Sync.AutoCommit)
	v.SetDefault("sync.auto_push", d.Sync.AutoPush)
	v.SetDefault("sync.auto_pull_rebase", d.Sync.AutoPullRebase)
	v.SetDefault("sync.timeout", d.Sync.Timeout)

	v.SetDefault("journal.enabled", d.Journal.Enabled)
}

// FlagKeys maps persistent flag names to config keys.
var FlagKeys = map[string]string{
	"file":       "file",
	"format":     "format",
	"pretty":     "pretty",
	"no-color":   "no_color",
	"ascii":      "ascii",
	"log-level":  "log.level",
	"log-format": "log.format",
	"no-sync":    "sync.enabled",
}

// New builds a viper instance wired to defaults, env, the config file and flags.
// A config file that does not exist is ignored unless it was named explicitly.
func New(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	// TASKTREE_SYNC_AUTO_PUSH for sync.auto_push.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil || name == "no-sync" {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
		// --no-sync inverts sync.enabled, so it only applies when set.
		if f := flags.Lookup("no-sync"); f != nil && f.Changed {
			v.Set("sync.enabled", f.Value.String() != "true")
		}
	}
	return v, nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	file, err := expandHome(strings.TrimSpace(cfg.File))
	if err != nil {
		return Config{}, err
	}
	if file == "" {
		if file, err = DefaultFile(); err != nil {
			return Config{}, err
		}
	}
	cfg.File = file
	return cfg, nil
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case "json", "edn", "yaml":
	default:
		errs = append(errs, fmt.Errorf("format: unsupported %q (want json, edn or yaml)", c.Format))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported %q (want console or json)", c.Log.Format))
	}
	if c.Sync.Timeout < 0 {
		errs = append(errs, errors.New("sync.timeout: must not be negative"))
	}
	return errors.Join(errs...)
}

func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tasktree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tasktree"
	}
	return filepath.Join(home, ".config", "tasktree")
}

// DefaultFile is ~/.tasktree/tasks.json.
func DefaultFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tasktree", "tasks.json"), nil
}
