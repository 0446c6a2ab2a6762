// Package config loads the server configuration.
//
// SOURCES, lowest to highest precedence:
//  1. defaults set in Load
//  2. an optional config file (YAML, TOML or JSON, picked by extension)
//  3. environment variables prefixed FLASHCARDS_, with "." replaced by "_"
//     (server.port → FLASHCARDS_SERVER_PORT)
//
// The decoded struct is checked with go-playground/validator before it is
// returned, so a bad value fails at startup instead of at first use.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FLASHCARDS"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Access   AccessConfig   `mapstructure:"access"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string        `mapstructure:"log_format" validate:"oneof=text json"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	// Path is a SQLite file path, or ":memory:".
	Path string `mapstructure:"path" validate:"required"`
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL     time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	BcryptCost   int           `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

type AccessConfig struct {
	// EnforceOwnership rejects reads and deletes of another user's deck.
	EnforceOwnership bool `mapstructure:"enforce_ownership"`
}

// SlogLevel maps LogLevel onto a slog.Level. Unknown values fall back to Info.
func (s ServerConfig) SlogLevel() slog.Level {
	switch s.LogLevel {
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "text")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/flashcards.db")

	// jwt_secret has no usable default; registering the key lets
	// AutomaticEnv pick up FLASHCARDS_AUTH_JWT_SECRET during Unmarshal.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.secure_cookie", false)

	v.SetDefault("access.enforce_ownership", true)
}

// Load builds a Config from defaults, the file at configPath (skipped when
// empty) and the environment, then validates it.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags and returns one error naming
// every failing field.
func Validate(cfg *Config) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: validating: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("config: invalid configuration: %s", strings.Join(msgs, "; "))
}
