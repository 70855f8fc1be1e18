// Package config loads settings for the crypt command.
//
// Sources, highest precedence first: command-line flags, CRYPT_* environment
// variables (including those loaded from a dotenv file), an optional YAML/JSON/TOML
// config file, then defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "CRYPT"

// DefaultEnvFile is loaded when present and no env file is given explicitly.
const DefaultEnvFile = ".env"

// Config keys, also used as flag names with "_" and "." replaced by "-".
const (
	KeySecret     = "secret"
	KeyLenientHex = "lenient_hex"
	KeyLogLevel   = "log.level"
	KeyLogFormat  = "log.format"
)

// ErrMissingSecret is returned by Validate when no shared secret is configured.
var ErrMissingSecret = errors.New("config: shared secret is required (set --secret or CRYPT_SECRET)")

// Config is the crypt command configuration.
type Config struct {
	Secret     string    `mapstructure:"secret"`
	LenientHex bool      `mapstructure:"lenient_hex"`
	Log        LogConfig `mapstructure:"log"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks the configuration. Level and format names are case-insensitive.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return ErrMissingSecret
	}
	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("config: log.level must be one of %v (got: %s)", validLevels, c.Log.Level)
	}
	validFormats := []string{"json", "console"}
	if !slices.Contains(validFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("config: log.format must be one of %v (got: %s)", validFormats, c.Log.Format)
	}
	return nil
}

// FlagName returns the command-line flag name for a config key.
func FlagName(key string) string {
	return strings.NewReplacer("_", "-", ".", "-").Replace(key)
}

// RegisterFlags adds the config flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file")
	fs.String("env-file", "", "path to a dotenv file (default: "+DefaultEnvFile+" if present)")
	fs.String(FlagName(KeySecret), "", "shared secret (prefer "+EnvPrefix+"_SECRET)")
	fs.Bool(FlagName(KeyLenientHex), false, "accept malformed hex in encrypted input")
	fs.String(FlagName(KeyLogLevel), "", "log level: trace, debug, info, warn, error")
	fs.String(FlagName(KeyLogFormat), "", "log format: json, console")
}

// Load resolves the configuration from fs (registered with RegisterFlags),
// the environment, the dotenv file and the config file. The result has defaults
// applied but is not validated.
func Load(fs *pflag.FlagSet) (*Config, error) {
	if err := loadEnvFile(fs); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range []string{KeySecret, KeyLenientHex, KeyLogLevel, KeyLogFormat} {
		if err := v.BindPFlag(key, fs.Lookup(FlagName(key))); err != nil {
			return nil, fmt.Errorf("config: bind flag %s: %w", key, err)
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// loadEnvFile loads the dotenv file into the process environment. Variables
// already set in the environment are not overridden.
func loadEnvFile(fs *pflag.FlagSet) error {
	path, _ := fs.GetString("env-file")
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load env file %s: %w", path, err)
	}
	return nil
}
