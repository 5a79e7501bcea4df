package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                     "development",
		Port:                    "8080",
		DBDriver:                "postgres",
		DBPassword:              "secure-password",
		JWTSecret:               "secure-secret-at-least-32-chars-long",
		JWTTTLHours:             24,
		MaxUploadMB:             10,
		ReportRateLimit:         10,
		ReportRateWindowSeconds: 600,
		TracingExporter:         "stdout",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown db driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"zero upload size", func(c *Config) { c.MaxUploadMB = 0 }, true},
		{"zero rate window", func(c *Config) { c.ReportRateWindowSeconds = 0 }, true},
		{"unknown exporter only matters when tracing", func(c *Config) { c.TracingExporter = "zipkin" }, false},
		{"unknown exporter with tracing", func(c *Config) {
			c.TracingEnabled = true
			c.TracingExporter = "zipkin"
		}, true},
		{"sample rate out of range with tracing", func(c *Config) {
			c.TracingEnabled = true
			c.TracingSampleRate = 1.5
		}, true},
		{"partial sample rate with tracing", func(c *Config) {
			c.TracingEnabled = true
			c.TracingSampleRate = 0.2
		}, false},
		{"production with default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production with short secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"production with weak db password", func(c *Config) {
			c.Env = "prod"
			c.DBPassword = "password"
		}, true},
		{"production sqlite ignores db password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "  Test ")
	t.Setenv("PORT", "9999")
	t.Setenv("DB_DRIVER", "SQLITE")
	t.Setenv("MAX_UPLOAD_MB", "3")
	t.Setenv("FEED_CACHE_TTL_SECONDS", "15")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, int64(3<<20), c.MaxUploadBytes())
	assert.Equal(t, 15*time.Second, c.FeedCacheTTL())
	assert.Equal(t, "storyboard", c.JWTIssuer)
	assert.Equal(t, 7*24*time.Hour, c.JWTTTL())
}

func TestLoadConfig_RejectsInvalidEnv(t *testing.T) {
	defer viper.Reset()

	t.Setenv("DB_DRIVER", "oracle")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "DB_DRIVER")
}
