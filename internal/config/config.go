// Package config resolves the server configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/chinczyk/internal/models"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DefaultPort           = "8080"
	DefaultTimeoutSeconds = 15
	MinRoomCapacity       = 2
)

type Config struct {
	Port             string
	TurnTimeout      time.Duration
	RoomCapacity     int
	ExportResultsURL string

	RedisAddr    string
	RedisDB      int
	ResultsQueue string

	NATSURL string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("TIMEOUT_SECONDS", DefaultTimeoutSeconds)
	v.SetDefault("ROOM_CAPACITY", models.MaxSeats)
	v.SetDefault("EXPORT_RESULTS_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RESULTS_QUEUE", "chinczyk_results")
	v.SetDefault("NATS_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// FromViper builds a Config from v and validates it.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:             strings.TrimPrefix(v.GetString("PORT"), ":"),
		TurnTimeout:      turnTimeout(v.GetString("TIMEOUT_SECONDS")),
		RoomCapacity:     clampCapacity(v.GetInt("ROOM_CAPACITY")),
		ExportResultsURL: v.GetString("EXPORT_RESULTS_URL"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisDB:          v.GetInt("REDIS_DB"),
		ResultsQueue:     v.GetString("RESULTS_QUEUE"),
		NATSURL:          v.GetString("NATS_URL"),
		LogLevel:         strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:        strings.ToLower(v.GetString("LOG_FORMAT")),
	}
	return cfg, cfg.Validate()
}

// turnTimeout falls back to the default for empty, unparsable or non-positive
// values.
func turnTimeout(raw string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		secs = DefaultTimeoutSeconds
	}
	return time.Duration(secs * float64(time.Second))
}

func clampCapacity(n int) int {
	switch {
	case n < MinRoomCapacity:
		return MinRoomCapacity
	case n > models.MaxSeats:
		return models.MaxSeats
	default:
		return n
	}
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []string

	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be 1-65535, got %q", c.Port))
	}
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Sprintf("REDIS_DB must not be negative, got %d", c.RedisDB))
	}
	if c.RedisAddr != "" && c.ResultsQueue == "" {
		errs = append(errs, "RESULTS_QUEUE must not be empty when REDIS_ADDR is set")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL is invalid: %v", err))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be one of [text, json], got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NewLogger builds the process logger from the logging settings.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
