package cli

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

const envPrefix = "FRIENDAPI"

// Config holds CLI configuration
type Config struct {
	ServerURL string        `mapstructure:"server"`
	Output    string        `mapstructure:"output"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Verbose   bool          `mapstructure:"verbose"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Output:    "text",
		Timeout:   30 * time.Second,
		Verbose:   false,
	}
}

// LoadConfig resolves configuration from, in increasing precedence: defaults,
// the config file, FRIENDAPI_* environment variables and flags.
// An explicit configFile must exist; the default one is optional.
func LoadConfig(v *viper.Viper, flags *pflag.FlagSet, configFile string) (Config, error) {
	defaults := DefaultConfig()
	v.SetDefault("server", defaults.ServerURL)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"server", "output", "timeout", "verbose"} {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(name, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else if path := defaultConfigFile(); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	switch cfg.Output {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("invalid output format %q: must be text or json", cfg.Output)
	}
	return cfg, nil
}

func defaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".friendapi", "config.yaml")
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
