package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/campuschat/internal/chat"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := LoadConfig()
	req.NoError(err)

	req.Equal(":8080", cfg.Port)
	req.Equal([]string{"http://localhost:8080"}, cfg.Origins())
	req.Equal(4096, cfg.MaxMessageSize)
	req.Equal(RateLimitConfig{Burst: 5, RefillInterval: time.Second}, cfg.RateLimit())
	req.Equal(2*time.Hour, cfg.SessionTTL)
	req.Equal(StoreMemory, cfg.SessionStore)

	buildings, err := cfg.BuildingList()
	req.NoError(err)
	req.Len(buildings, 5)
	req.Equal(chat.Building{ID: "TESTBLDG1", Name: "BLDG1"}, buildings[0])
	req.Equal(chat.Building{ID: "TESTBLDG5", Name: "BLDG5"}, buildings[4])
}

func TestLoadConfig_Overrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", " https://campus.example , http://localhost:3000 ,")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "500ms")
	t.Setenv("SESSION_STORE", " Badger ")
	t.Setenv("BUILDINGS", "LIB:Library, ENG")

	cfg, err := LoadConfig()
	req.NoError(err)

	req.Equal(":9090", cfg.Port)
	req.Equal([]string{"https://campus.example", "http://localhost:3000"}, cfg.Origins())
	req.Equal(1024, cfg.MaxMessageSize)
	req.Equal(RateLimitConfig{Burst: 10, RefillInterval: 500 * time.Millisecond}, cfg.RateLimit())
	req.Equal(StoreBadger, cfg.SessionStore)

	buildings, err := cfg.BuildingList()
	req.NoError(err)
	req.Equal([]chat.Building{{ID: "LIB", Name: "Library"}, {ID: "ENG", Name: "ENG"}}, buildings)
}

func TestLoadConfig_Rejects(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "")
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "s3cret")
		t.Setenv("SESSION_STORE", "postgres")
		_, err := LoadConfig()
		require.ErrorContains(t, err, "postgres")
	})

	t.Run("building without id", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "s3cret")
		t.Setenv("BUILDINGS", "A:Alpha,:Nameless")
		_, err := LoadConfig()
		require.ErrorContains(t, err, "Nameless")
	})
}

func TestSanitizeConfig(t *testing.T) {
	req := require.New(t)

	cfg := sanitizeConfig(Config{
		MaxMessageSize:  -1,
		RateLimitBurst:  0,
		RateLimitRefill: -time.Second,
		SessionTTL:      0,
		Buildings:       "   ",
	})

	def := defaultConfig()
	req.Equal(def.Port, cfg.Port)
	req.Equal(def.MaxMessageSize, cfg.MaxMessageSize)
	req.Equal(def.RateLimitBurst, cfg.RateLimitBurst)
	req.Equal(def.RateLimitRefill, cfg.RateLimitRefill)
	req.Equal(def.SessionTTL, cfg.SessionTTL)
	req.Equal(def.SessionStore, cfg.SessionStore)
	req.Equal(DefaultBuildings, cfg.Buildings)
	req.Equal(def.ShutdownTimeout, cfg.ShutdownTimeout)
}
