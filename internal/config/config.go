package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PROPSYNC_THEME_NAME.
const EnvPrefix = "PROPSYNC"

// Config holds the propsync CLI configuration.
type Config struct {
	Schema SchemaConfig
	Theme  ThemeConfig
	Model  ModelConfig
	Output OutputConfig
	Log    LogConfig
}

// SchemaConfig points at the OpenAPI document declaring the classes. Path
// may be an http(s) URL; Timeout bounds the fetch.
type SchemaConfig struct {
	Path    string
	Timeout time.Duration
}

// ThemeConfig selects themed defaults. Path is a theme file or directory;
// Name and Variant select a go-theme manifest registered from Path.
type ThemeConfig struct {
	Path    string
	Name    string
	Variant string
}

// ModelConfig names the class instantiated by the CLI.
type ModelConfig struct {
	Class string
}

// OutputConfig controls the JSON written by the CLI.
type OutputConfig struct {
	Indent bool
}

// LogConfig controls CLI logging.
type LogConfig struct {
	Debug bool
}

// Load reads configuration from file and env. The file is taken from
// PROPSYNC_CONFIG when set, otherwise from ~/.config/propsync/config.yaml
// when present.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("schema.path", "")
	v.SetDefault("schema.timeout", "30s")
	v.SetDefault("theme.path", "")
	v.SetDefault("theme.name", "")
	v.SetDefault("theme.variant", "")
	v.SetDefault("model.class", "")
	v.SetDefault("output.indent", true)
	v.SetDefault("log.debug", false)

	v.SetConfigType("yaml")

	cfgPath := os.Getenv(EnvPrefix + "_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "propsync"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// an explicit file must exist; the default location is optional
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
