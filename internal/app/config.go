package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration shared by the client and the sandbox backend.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Toast   ToastConfig   `mapstructure:"toast"`
	Push    PushConfig    `mapstructure:"push"`
	Logging LoggingConfig `mapstructure:"logging"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	PageSize  int           `mapstructure:"page_size"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
}

// AuthConfig controls on-device token storage.
type AuthConfig struct {
	StoragePath  string `mapstructure:"storage_path"`
	DeviceSecret string `mapstructure:"device_secret"`
	DeviceSalt   string `mapstructure:"device_salt"`
}

// ToastConfig controls feedback messages.
type ToastConfig struct {
	DefaultDuration time.Duration `mapstructure:"default_duration"`
}

// PushConfig controls device registration and the live notification stream.
type PushConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	StreamURL   string `mapstructure:"stream_url"`
	Platform    string `mapstructure:"platform"`
	DeviceToken string `mapstructure:"device_token"`
}

// LoggingConfig configures the global zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SandboxConfig configures the local backend used for development and end-to-end tests.
type SandboxConfig struct {
	Port         int           `mapstructure:"port"`
	DatabasePath string        `mapstructure:"database_path"`
	Seed         bool          `mapstructure:"seed"`
	JWT          JWTSettings   `mapstructure:"jwt"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateWindow   time.Duration `mapstructure:"rate_window"`
}

// JWTSettings configures sandbox access tokens.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// LoadConfig initialises configuration using Viper with sensible defaults. A .env file found in
// the working directory or any of paths is loaded first; it never overrides variables that are
// already set.
func LoadConfig(paths ...string) (*Config, error) {
	if err := loadDotEnv(paths); err != nil {
		return nil, err
	}

	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("STOREDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func loadDotEnv(paths []string) error {
	candidates := []string{".env"}
	for _, path := range paths {
		candidates = append(candidates, filepath.Join(path, ".env"))
	}

	for _, file := range candidates {
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: stat %s: %w", file, err)
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://127.0.0.1:8080/api")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.page_size", 10)
	v.SetDefault("api.rate_limit", 10)
	v.SetDefault("api.burst", 20)

	v.SetDefault("auth.storage_path", "./data/storedesk-device.sqlite")

	v.SetDefault("toast.default_duration", "3s")

	v.SetDefault("push.enabled", true)
	v.SetDefault("push.stream_url", "ws://127.0.0.1:8080/api/push")
	v.SetDefault("push.platform", "android")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("sandbox.port", 8080)
	v.SetDefault("sandbox.database_path", "./data/storedesk-sandbox.sqlite")
	v.SetDefault("sandbox.seed", true)
	v.SetDefault("sandbox.jwt.issuer", "storedesk-sandbox")
	v.SetDefault("sandbox.jwt.access_token_ttl", "12h")
	v.SetDefault("sandbox.rate_limit", 300)
	v.SetDefault("sandbox.rate_window", "1m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
