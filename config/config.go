// Package config loads host configuration from defaults, an optional YAML
// file and NATIVEBRIDGE_ environment variables.
package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/protocol"
)

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "NATIVEBRIDGE_CONFIG"

// Config holds host configuration.
type Config struct {
	Program   ProgramConfig   `mapstructure:"program"`
	Bridge    BridgeConfig    `mapstructure:"bridge"`
	Reload    ReloadConfig    `mapstructure:"reload"`
	DevServer DevServerConfig `mapstructure:"devserver"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Log       LogConfig       `mapstructure:"log"`
}

// ProgramConfig selects the scripting program.
type ProgramConfig struct {
	Path     string        `mapstructure:"path"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// BridgeConfig tunes batch processing and event delivery.
type BridgeConfig struct {
	Format           string        `mapstructure:"format"`
	RootRetryDelay   time.Duration `mapstructure:"root_retry_delay"`
	ThrottleInterval time.Duration `mapstructure:"throttle_interval"`
	ThrottledEvents  []string      `mapstructure:"throttled_events"`
}

// ReloadConfig tunes program replacement.
type ReloadConfig struct {
	TeardownTimeout time.Duration `mapstructure:"teardown_timeout"`
}

// DevServerConfig points at an optional development server.
type DevServerConfig struct {
	URL                string `mapstructure:"url"`
	Namespace          string `mapstructure:"namespace"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

// StorageConfig locates the storage module database.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// RuntimeConfig limits guest resources.
type RuntimeConfig struct {
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages"`
}

// LogConfig selects the zap configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File receives logs instead of stderr. The terminal UI defaults it to
	// a file in the temp directory.
	File string `mapstructure:"file"`
}

// DefaultPath returns $HOME/.config/native-bridge/config.yaml.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "native-bridge", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("program.path", "")
	v.SetDefault("program.watch", false)
	v.SetDefault("program.debounce", 150*time.Millisecond)
	v.SetDefault("bridge.format", "json")
	v.SetDefault("bridge.root_retry_delay", 100*time.Millisecond)
	v.SetDefault("bridge.throttle_interval", 16*time.Millisecond)
	v.SetDefault("bridge.throttled_events", []string{"scroll", "resize"})
	v.SetDefault("reload.teardown_timeout", 2*time.Second)
	v.SetDefault("devserver.url", "")
	v.SetDefault("devserver.namespace", "/")
	v.SetDefault("devserver.insecure_skip_verify", false)
	v.SetDefault("storage.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "native-bridge", "storage.db"))
	v.SetDefault("runtime.memory_limit_pages", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
}

// Load reads configuration. path, when set, must exist; otherwise the file
// named by NATIVEBRIDGE_CONFIG or DefaultPath is read if present.
// Environment variables override file values, e.g. NATIVEBRIDGE_LOG_LEVEL.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	required := path != ""
	if path == "" {
		path = os.Getenv(EnvConfig)
		required = path != ""
	}
	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix("NATIVEBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := stderrors.As(err, &notFound) || stderrors.Is(err, os.ErrNotExist)
		if required || !missing {
			return Config{}, errors.Load("read config "+path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Load("decode config", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values viper cannot type-check.
func (c Config) Validate() error {
	if _, err := protocol.ParseFormat(c.Bridge.Format); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.InvalidInput(errors.PhaseLoad, "log.level: "+err.Error())
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.InvalidInput(errors.PhaseLoad, "log.format must be console or json, got "+c.Log.Format)
	}
	if c.Bridge.RootRetryDelay < 0 || c.Bridge.ThrottleInterval < 0 || c.Reload.TeardownTimeout < 0 {
		return errors.InvalidInput(errors.PhaseLoad, "durations must not be negative")
	}
	return nil
}
