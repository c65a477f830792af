package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 15*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, c.Server.AllowOrigins)
	assert.Equal(t, "clickhouse", c.Backend.Type)
	assert.Equal(t, 5, c.Pricing.LowStockThreshold)
	assert.Equal(t, 50, c.Pricing.HighStockThreshold)
	assert.Equal(t, 1.10, c.Pricing.LowStockMultiplier)
	assert.Equal(t, 0.75, c.Pricing.Competition)
	assert.Equal(t, 0.85, c.Pricing.Confidence)
	assert.Equal(t, 1.20, c.Pricing.Seasonality)
	assert.Equal(t, 30, c.Pricing.WindowDays)
	assert.Equal(t, "0 0 * * * *", c.Repricer.Cron)
	assert.Equal(t, "shoppulse.sales", c.Kafka.SalesTopic)
	assert.Equal(t, 100*time.Millisecond, c.Kafka.Consumer.BackoffMin)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, `
environment: production
server:
  port: 9090
pricing:
  competition: 0.5
  cache_ttl: 2m
metrics:
  enabled: false
`))
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 0.5, c.Pricing.Competition)
	assert.Equal(t, 2*time.Minute, c.Pricing.CacheTTL)
	assert.False(t, c.Metrics.Enabled)
	assert.Equal(t, 0.85, c.Pricing.Confidence)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATABASE_URL":          "postgres://u:p@db/shop?sslmode=disable",
		"STRIPE_SECRET_KEY":     "sk_test_x",
		"STRIPE_WEBHOOK_SECRET": "whsec_x",
		"KAFKA_BROKERS":         "k1:9092, k2:9092",
		"BACKEND":               "kafka",
		"REDIS_ADDR":            "redis:6379",
		"CLICKHOUSE_HOST":       "ch",
		"PORT":                  "7000",
	}
	c := &Config{}
	c.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "postgres://u:p@db/shop?sslmode=disable", c.Postgres.DSN)
	assert.Equal(t, "sk_test_x", c.Stripe.SecretKey)
	assert.Equal(t, "whsec_x", c.Stripe.WebhookSecret)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "kafka", c.Backend.Type)
	assert.Equal(t, "redis:6379", c.Redis.Addr)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "ch", c.ClickHouse.Host)
	assert.Equal(t, 7000, c.Server.Port)
}

func TestLoadWithEnvValidatesAfterOverrides(t *testing.T) {
	t.Setenv("BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	c, err := LoadWithEnv(writeConfig(t, "environment: test\nbackend:\n  type: bogus\n"))
	require.NoError(t, err)
	assert.Equal(t, "kafka", c.Backend.Type)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad backend", "environment: test\nbackend:\n  type: s3\n", "backend.type"},
		{"kafka without brokers", "environment: test\nbackend:\n  type: kafka\n", "kafka.brokers"},
		{"thresholds inverted", "environment: test\npricing:\n  low_stock_threshold: 60\n", "low_stock_threshold"},
		{"competition out of range", "environment: test\npricing:\n  competition: 1.5\n", "pricing.competition"},
		{"confidence out of range", "environment: test\npricing:\n  confidence: -0.1\n", "pricing.confidence"},
		{"seasonality not positive", "environment: test\npricing:\n  seasonality: -1\n", "seasonality"},
		{"window too small", "environment: test\npricing:\n  window_days: -3\n", "window_days"},
		{"redis cache without redis", "environment: test\ncache:\n  type: redis\n", "redis.enabled"},
		{"unknown cache", "environment: test\ncache:\n  type: disk\n", "cache.type"},
		{"queue without redis", "environment: test\nqueue:\n  enabled: true\n", "queue.enabled"},
		{"empty environment", "environment: \"\"\n", "environment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
