// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the campus chat service.
package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/Tyrowin/campuschat/internal/chat"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreRedis  = "redis"
)

// DefaultBuildings are served when BUILDINGS is not set.
const DefaultBuildings = "TESTBLDG1:BLDG1,TESTBLDG2:BLDG2,TESTBLDG3:BLDG3,TESTBLDG4:BLDG4,TESTBLDG5:BLDG5"

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string        `env:"SERVER_PORT,default=:8080"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	MaxMessageSize  int           `env:"MAX_MESSAGE_SIZE,default=4096"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST,default=5"`
	RateLimitRefill time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=1s"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	SessionSecret   string        `env:"SESSION_SECRET"`
	SessionTTL      time.Duration `env:"SESSION_TTL,default=2h"`
	SessionStore    string        `env:"SESSION_STORE,default=memory"`
	SecureCookies   bool          `env:"SESSION_SECURE,default=false"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,default=./data/sessions"`
	RedisAddr       string        `env:"REDIS_ADDR,default=localhost:6379"`
	Buildings       string        `env:"BUILDINGS"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

func defaultConfig() Config {
	return Config{
		Port:            ":8080",
		AllowedOrigins:  "http://localhost:8080",
		MaxMessageSize:  4096,
		RateLimitBurst:  5,
		RateLimitRefill: time.Second,
		LogLevel:        "INFO",
		SessionTTL:      2 * time.Hour,
		SessionStore:    StoreMemory,
		BadgerFilepath:  "./data/sessions",
		RedisAddr:       "localhost:6379",
		Buildings:       DefaultBuildings,
		ShutdownTimeout: 10 * time.Second,
	}
}

func sanitizeConfig(cfg Config) Config {
	def := defaultConfig()

	if cfg.Port == "" {
		cfg.Port = def.Port
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = def.RateLimitBurst
	}
	if cfg.RateLimitRefill <= 0 {
		cfg.RateLimitRefill = def.RateLimitRefill
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))
	if cfg.SessionStore == "" {
		cfg.SessionStore = def.SessionStore
	}
	if strings.TrimSpace(cfg.Buildings) == "" {
		cfg.Buildings = def.Buildings
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// LoadConfig reads an optional .env file, then the environment. Unset or
// non-positive values fall back to defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	cfg = sanitizeConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.SessionStore {
	case StoreMemory, StoreBadger, StoreRedis:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET must be set")
	}
	_, err := c.BuildingList()
	return err
}

// RateLimit groups the rate limiting settings.
func (c *Config) RateLimit() RateLimitConfig {
	return RateLimitConfig{Burst: c.RateLimitBurst, RefillInterval: c.RateLimitRefill}
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	return splitAndTrim(c.AllowedOrigins)
}

// BuildingList parses BUILDINGS as comma separated id:name pairs. A pair
// without a name uses its id.
func (c *Config) BuildingList() ([]chat.Building, error) {
	raw := c.Buildings
	if strings.TrimSpace(raw) == "" {
		raw = DefaultBuildings
	}

	var out []chat.Building
	for _, pair := range splitAndTrim(raw) {
		id, name, _ := strings.Cut(pair, ":")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if id == "" {
			return nil, fmt.Errorf("invalid building %q in BUILDINGS", pair)
		}
		if name == "" {
			name = id
		}
		out = append(out, chat.Building{ID: id, Name: name})
	}
	return out, nil
}

func splitAndTrim(input string) []string {
	raw := strings.Split(input, ",")
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
