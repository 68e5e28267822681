// Package config loads server settings from flags, WORDDUEL_* environment
// variables and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "WORDDUEL"

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Log formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Flag names, which double as config file keys
const (
	KeyConfig          = "config"
	KeyHost            = "host"
	KeyPort            = "port"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyStorage         = "storage"
	KeyRedisURL        = "redis-url"
	KeyWordsFile       = "words-file"
	KeyStaticDir       = "static-dir"
	KeyPublicURL       = "public-url"
	KeyShortGrace      = "short-grace"
	KeyRoundGrace      = "round-grace"
	KeyMessageRate     = "message-rate"
	KeyMessageBurst    = "message-burst"
	KeyReadTimeout     = "read-timeout"
	KeyWriteTimeout    = "write-timeout"
	KeyShutdownTimeout = "shutdown-timeout"
)

// Config holds all server settings
type Config struct {
	Host      string
	Port      int
	LogLevel  string
	LogFormat string

	Storage  string
	RedisURL string

	WordsFile string
	StaticDir string
	PublicURL string

	ShortGrace time.Duration
	RoundGrace time.Duration

	MessageRate  float64
	MessageBurst int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RegisterFlags defines every setting on fs with its default
func RegisterFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	env := func(key string) string {
		return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	}

	fs.String(KeyConfig, "", "path to a YAML config file (env: "+env(KeyConfig)+")")
	fs.String(KeyHost, "", "address to bind to (env: "+env(KeyHost)+")")
	fs.IntP(KeyPort, "p", 8080, "port to listen on (env: "+env(KeyPort)+")")
	fs.String(KeyLogLevel, "info", "debug, info, warn or error (env: "+env(KeyLogLevel)+")")
	fs.String(KeyLogFormat, LogFormatText, "json or text (env: "+env(KeyLogFormat)+")")
	fs.String(KeyStorage, StorageMemory, "memory or redis (env: "+env(KeyStorage)+")")
	fs.String(KeyRedisURL, "", "redis connection URL (env: "+env(KeyRedisURL)+")")
	fs.String(KeyWordsFile, "", "file of secret words, one per line (env: "+env(KeyWordsFile)+")")
	fs.String(KeyStaticDir, "", "directory holding the browser client (env: "+env(KeyStaticDir)+")")
	fs.String(KeyPublicURL, "", "base URL used in room share links (env: "+env(KeyPublicURL)+")")
	fs.Duration(KeyShortGrace, 2*time.Second, "seat hold after a disconnect with no round running (env: "+env(KeyShortGrace)+")")
	fs.Duration(KeyRoundGrace, 30*time.Second, "seat hold after a disconnect during a round (env: "+env(KeyRoundGrace)+")")
	fs.Float64(KeyMessageRate, 20, "inbound websocket messages per second per connection, 0 for unlimited (env: "+env(KeyMessageRate)+")")
	fs.Int(KeyMessageBurst, 40, "inbound websocket message burst (env: "+env(KeyMessageBurst)+")")
	fs.Duration(KeyReadTimeout, 15*time.Second, "HTTP read timeout (env: "+env(KeyReadTimeout)+")")
	fs.Duration(KeyWriteTimeout, 15*time.Second, "HTTP write timeout (env: "+env(KeyWriteTimeout)+")")
	fs.Duration(KeyShutdownTimeout, 10*time.Second, "graceful shutdown timeout (env: "+env(KeyShutdownTimeout)+")")
}

// Load resolves every setting registered on fs and validates the result
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Host:            v.GetString(KeyHost),
		Port:            v.GetInt(KeyPort),
		LogLevel:        strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:       strings.ToLower(v.GetString(KeyLogFormat)),
		Storage:         strings.ToLower(v.GetString(KeyStorage)),
		RedisURL:        v.GetString(KeyRedisURL),
		WordsFile:       v.GetString(KeyWordsFile),
		StaticDir:       v.GetString(KeyStaticDir),
		PublicURL:       v.GetString(KeyPublicURL),
		ShortGrace:      v.GetDuration(KeyShortGrace),
		RoundGrace:      v.GetDuration(KeyRoundGrace),
		MessageRate:     v.GetFloat64(KeyMessageRate),
		MessageBurst:    v.GetInt(KeyMessageBurst),
		ReadTimeout:     v.GetDuration(KeyReadTimeout),
		WriteTimeout:    v.GetDuration(KeyWriteTimeout),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("invalid log format %q: must be json or text", c.LogFormat)
	}
	switch c.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("--redis-url is required when --storage is redis")
		}
	default:
		return fmt.Errorf("invalid storage %q: must be memory or redis", c.Storage)
	}
	if c.ShortGrace <= 0 || c.RoundGrace <= 0 {
		return errors.New("grace periods must be positive")
	}
	if c.MessageRate < 0 || c.MessageBurst < 0 {
		return errors.New("message rate and burst must not be negative")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// SlogLevel parses LogLevel
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// NewLogger builds the application logger described by the config
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
