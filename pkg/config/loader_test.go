package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camkit/hallbook/pkg/config"
)

type testConfig struct {
	HallURL string        `env:"TEST_HALL_URL" envDefault:"https://example.org/hall"`
	Timeout time.Duration `env:"TEST_TIMEOUT" envDefault:"30s"`
	Debug   bool          `env:"TEST_DEBUG" envDefault:"false"`
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		var cfg testConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "https://example.org/hall", cfg.HallURL)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.False(t, cfg.Debug)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("TEST_HALL_URL", "http://localhost:8080/hall")
		t.Setenv("TEST_TIMEOUT", "5s")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))

		assert.Equal(t, "http://localhost:8080/hall", cfg.HallURL)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("unparseable value is reported", func(t *testing.T) {
		t.Setenv("TEST_TIMEOUT", "not-a-duration")

		var cfg testConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer is rejected", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on failure", func(t *testing.T) {
		t.Setenv("TEST_TIMEOUT", "garbage")

		assert.Panics(t, func() {
			var cfg testConfig
			config.MustLoad(&cfg)
		})
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing explicit file is an error", func(t *testing.T) {
		err := config.LoadEnv("testdata/does-not-exist.env")
		assert.ErrorIs(t, err, config.ErrLoadingEnvFiles)
	})
}
