package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"APP_ENV", "HTTP_ADDR", "PROD_ORIGINS", "DB_DSN", "JWT_ACCESS_TOKEN_TTL", "BCRYPT_COST",
	"LOG_LEVEL", "LOG_FORMAT", "LOCK_BACKEND", "LOCK_TTL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"AMQP_URL", "AMQP_EXCHANGE", "SWEEP_INTERVAL", "BOOKING_AUTO_CONFIRM",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "ADMIN_EMAIL", "ADMIN_PASSWORD",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.False(t, cfg.IsProduction)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.DBDSN)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, LockBackendLocal, cfg.LockBackend)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.False(t, cfg.BookingAutoConfirm)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, "booking.events", cfg.AMQPExchange)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DB_DSN", "postgres://localhost/booking")
	t.Setenv("LOCK_BACKEND", "Redis")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("BOOKING_AUTO_CONFIRM", "true")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, LockBackendRedis, cfg.LockBackend)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.True(t, cfg.BookingAutoConfirm)
	assert.Equal(t, 0.5, cfg.RateLimitRPS)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"prod without dsn", map[string]string{"APP_ENV": "prod"}},
		{"bad ttl", map[string]string{"JWT_ACCESS_TOKEN_TTL": "soon"}},
		{"bad bcrypt cost", map[string]string{"BCRYPT_COST": "high"}},
		{"bad lock backend", map[string]string{"LOCK_BACKEND": "etcd"}},
		{"bad auto confirm", map[string]string{"BOOKING_AUTO_CONFIRM": "maybe"}},
		{"bad rate", map[string]string{"RATE_LIMIT_RPS": "fast"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv("APP_ENV", "dev")
			t.Setenv("DB_DSN", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := fromEnv()
			assert.Error(t, err)
		})
	}
}
