// Package config loads server settings from the environment
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pion/webrtc/v4"

	"github.com/mcoot/liveclass/internal/evictbus"
	"github.com/mcoot/liveclass/internal/services/auth"
	"github.com/mcoot/liveclass/internal/session"
	"github.com/mcoot/liveclass/internal/transport/ws"
)

// Config is the complete server configuration
type Config struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT,default=3000" validate:"min=1,max=65535"`
	LogLevel string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`

	AdminSecret       string `env:"ADMIN_SECRET"`
	AdminSecretBcrypt string `env:"ADMIN_SECRET_BCRYPT"`

	ChatMinInterval time.Duration `env:"CHAT_MIN_INTERVAL,default=500ms" validate:"gt=0"`
	SupersedeGrace  time.Duration `env:"SUPERSEDE_GRACE,default=1s" validate:"gt=0"`
	EvictionGrace   time.Duration `env:"EVICTION_GRACE,default=2s" validate:"gt=0"`
	TimestampZone   string        `env:"TIMESTAMP_ZONE,default=Africa/Tunis" validate:"required"`
	InboxSize       int           `env:"INBOX_SIZE,default=1024" validate:"gt=0"`

	ICEServersJSON string `env:"ICE_SERVERS_JSON"`
	StunURLs       string `env:"STUN_URLS"`
	TurnURLs       string `env:"TURN_URLS"`
	TurnUsername   string `env:"TURN_USERNAME"`
	TurnCredential string `env:"TURN_CREDENTIAL"`

	RedisURL                string `env:"REDIS_URL"`
	RedisEvictChannel       string `env:"REDIS_EVICT_CHANNEL,default=liveclass:evict" validate:"required"`
	RedisEvictResultChannel string `env:"REDIS_EVICT_RESULT_CHANNEL,default=liveclass:evict:results"`

	WSMaxMessageBytes int    `env:"WS_MAX_MESSAGE_BYTES,default=65536" validate:"gt=0"`
	WSSendBuffer      int    `env:"WS_SEND_BUFFER,default=256" validate:"gt=0"`
	AllowedOrigins    string `env:"ALLOWED_ORIGINS"`
}

// Load reads an optional .env file, then the process environment
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return Parse(es)
}

// Parse builds and validates a Config from an explicit set of variables
func Parse(es env.EnvSet) (*Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.ICEServers(); err != nil {
		return nil, err
	}
	if _, err := auth.New(cfg.Auth()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SlogLevel maps LOG_LEVEL to a slog level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
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

// Location resolves TIMESTAMP_ZONE
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimestampZone)
	if err != nil {
		return nil, fmt.Errorf("TIMESTAMP_ZONE: %w", err)
	}
	return loc, nil
}

// ICEServers resolves the configured ICE servers. ICE_SERVERS_JSON wins over
// the STUN/TURN convenience variables.
func (c *Config) ICEServers() ([]webrtc.ICEServer, error) {
	return parseICEServers(c.ICEServersJSON, c.StunURLs, c.TurnURLs, c.TurnUsername, c.TurnCredential)
}

// Origins returns the websocket origin allow-list
func (c *Config) Origins() []string {
	return splitCommaSeparated(c.AllowedOrigins)
}

// Session returns the session tunables
func (c *Config) Session() session.Config {
	loc, err := c.Location()
	if err != nil {
		loc = time.UTC
	}
	return session.Config{
		ChatMinInterval: c.ChatMinInterval,
		SupersedeGrace:  c.SupersedeGrace,
		EvictionGrace:   c.EvictionGrace,
		Location:        loc,
		TimestampLayout: session.DefaultTimestampLayout,
	}
}

// WS returns the websocket transport settings
func (c *Config) WS() ws.Config {
	cfg := ws.DefaultConfig()
	cfg.MaxMessageBytes = int64(c.WSMaxMessageBytes)
	cfg.SendBuffer = c.WSSendBuffer
	cfg.AllowedOrigins = c.Origins()
	return cfg
}

// Auth returns the admin secret settings
func (c *Config) Auth() auth.Config {
	return auth.Config{Secret: c.AdminSecret, SecretBcrypt: c.AdminSecretBcrypt}
}

// EvictBus returns the Redis eviction channel settings, or nil when REDIS_URL is unset
func (c *Config) EvictBus() *evictbus.Config {
	if strings.TrimSpace(c.RedisURL) == "" {
		return nil
	}
	cfg := evictbus.DefaultConfig()
	cfg.URL = c.RedisURL
	cfg.Channel = c.RedisEvictChannel
	cfg.ResultChannel = c.RedisEvictResultChannel
	return &cfg
}

// Warnings lists settings that are legal but probably not intended
func (c *Config) Warnings() []string {
	var warnings []string
	if c.AdminSecret == "" && c.AdminSecretBcrypt == "" {
		warnings = append(warnings, "no admin secret configured: eviction requests will be refused")
	}
	if c.AdminSecret != "" && c.AdminSecretBcrypt != "" {
		warnings = append(warnings, "both ADMIN_SECRET and ADMIN_SECRET_BCRYPT set: using the bcrypt hash")
	}
	if len(c.Origins()) == 0 {
		warnings = append(warnings, "ALLOWED_ORIGINS is empty: websocket accepts any origin")
	}
	if servers, err := c.ICEServers(); err == nil && len(servers) == 0 {
		warnings = append(warnings, "no ICE servers configured: clients fall back to their own defaults")
	}
	return warnings
}
