package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/felixbrock/okrs/internal/app"
	"github.com/spf13/viper"
)

const envPrefix = "OKRS"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "8000")
	v.SetDefault("base_url", "http://localhost:3000")
	v.SetDefault("generator_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("generator_rate", 1.0)
	v.SetDefault("generator_burst", 1)
	v.SetDefault("request_timeout", "0s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// readConfigFile loads path when given, otherwise okrs.yaml from the working
// directory or $HOME/.config/okrs. A missing default file is not an error.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("okrs")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/okrs")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func loadConfig(v *viper.Viper) (app.Config, error) {
	cfg := app.Config{
		Port:           v.GetString("port"),
		BaseUrl:        strings.TrimRight(v.GetString("base_url"), "/"),
		GeneratorUrl:   strings.TrimRight(v.GetString("generator_url"), "/"),
		ApiKey:         v.GetString("api_key"),
		GeneratorRate:  v.GetFloat64("generator_rate"),
		GeneratorBurst: v.GetInt("generator_burst"),
		RequestTimeout: v.GetDuration("request_timeout"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
	}

	if cfg.BaseUrl == "" {
		return cfg, fmt.Errorf("base_url must be set")
	}
	if cfg.GeneratorUrl == "" {
		cfg.GeneratorUrl = cfg.BaseUrl
	}
	if cfg.RequestTimeout < 0 {
		cfg.RequestTimeout = time.Duration(0)
	}
	if cfg.ApiKey == "" {
		slog.Warn("api_key not set, calling the OKR service without credentials")
	}

	return cfg, nil
}

func newLogger(w io.Writer, cfg app.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
