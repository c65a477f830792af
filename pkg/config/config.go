package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"ShopPulse/pkg/util"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	ServiceName string           `yaml:"service_name" default:"shoppulse"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Logging     LoggingConfig    `yaml:"logging"`
	Backend     BackendConfig    `yaml:"backend"`
	Postgres    PostgresConfig   `yaml:"postgres"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	Redis       RedisConfig      `yaml:"redis"`
	Cache       CacheConfig      `yaml:"cache"`
	Queue       QueueConfig      `yaml:"queue"`
	Pricing     PricingConfig    `yaml:"pricing"`
	Repricer    RepricerConfig   `yaml:"repricer"`
	Sales       SalesConfig      `yaml:"sales"`
	RateLimit   RateLimitConfig  `yaml:"rate_limit"`
	Stripe      StripeConfig     `yaml:"stripe"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	AllowOrigins    []string      `yaml:"allow_origins" default:"[\"*\"]"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type LoggingConfig struct {
	Level   string        `yaml:"level" default:"info"`
	Format  string        `yaml:"format" default:"json"`
	Output  string        `yaml:"output" default:"stdout"`
	Collect CollectConfig `yaml:"collect"`
}

type CollectConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval" default:"30s"`
	Threshold int           `yaml:"threshold" default:"100"`
	Warnings  bool          `yaml:"warnings"`
}

// BackendConfig selects where ingested sales go: "kafka" publishes, "clickhouse" inserts directly.
type BackendConfig struct {
	Type         string        `yaml:"type" default:"clickhouse"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
}

type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
	ProductsTable   string        `yaml:"products_table" default:"products"`
	PaymentsTable   string        `yaml:"payments_table" default:"payments"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"shoppulse"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	SalesTable       string        `yaml:"sales_table" default:"sales"`
}

type KafkaConfig struct {
	Brokers             []string      `yaml:"brokers"`
	SalesTopic          string        `yaml:"sales_topic" default:"shoppulse.sales"`
	RecommendationTopic string        `yaml:"recommendation_topic" default:"shoppulse.recommendations"`
	LogTopic            string        `yaml:"log_topic" default:"shoppulse.logs"`
	RequiredAcks        int           `yaml:"required_acks" default:"-1"`
	Compression         string        `yaml:"compression" default:"snappy"`
	Producer            KafkaProducer `yaml:"producer"`
	Consumer            KafkaConsumer `yaml:"consumer"`
}

type KafkaProducer struct {
	MaxAttempts  int           `yaml:"max_attempts" default:"5"`
	Linger       time.Duration `yaml:"linger" default:"10ms"`
	BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
	BatchSize    int           `yaml:"batch_size" default:"100"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	Async        bool          `yaml:"async"`
}

type KafkaConsumer struct {
	Enabled    bool          `yaml:"enabled"`
	GroupID    string        `yaml:"group_id" default:"shoppulse-sales"`
	Workers    int           `yaml:"workers" default:"4"`
	BufferSize int           `yaml:"buffer_size" default:"256"`
	RetryMax   int           `yaml:"retry_max" default:"3"`
	BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
	BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
	DLQTopic   string        `yaml:"dlq_topic" default:"shoppulse.sales.dlq"`
	MinBytes   int           `yaml:"min_bytes" default:"1"`
	MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	Type           string `yaml:"type" default:"memory"` // memory, redis or layered
	MemoryCapacity int    `yaml:"memory_capacity" default:"1000"`
	Prefix         string `yaml:"prefix" default:"shoppulse:"`
}

type QueueConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Name       string        `yaml:"name" default:"payments"`
	Workers    int           `yaml:"workers" default:"2"`
	MaxRetries int           `yaml:"max_retries" default:"3"`
	RetryDelay time.Duration `yaml:"retry_delay" default:"5s"`
}

type PricingConfig struct {
	LowStockThreshold   int           `yaml:"low_stock_threshold" default:"5"`
	HighStockThreshold  int           `yaml:"high_stock_threshold" default:"50"`
	LowStockMultiplier  float64       `yaml:"low_stock_multiplier" default:"1.10"`
	HighStockMultiplier float64       `yaml:"high_stock_multiplier" default:"0.90"`
	DemandCeiling       float64       `yaml:"demand_ceiling" default:"100"`
	OptimalStock        float64       `yaml:"optimal_stock" default:"25"`
	MaxStockDistance    float64       `yaml:"max_stock_distance" default:"50"`
	Competition         float64       `yaml:"competition" default:"0.75"`
	Confidence          float64       `yaml:"confidence" default:"0.85"`
	Seasonality         float64       `yaml:"seasonality" default:"1.20"`
	WindowDays          int           `yaml:"window_days" default:"30"`
	CacheTTL            time.Duration `yaml:"cache_ttl"`
	CompetitionURL      string        `yaml:"competition_url"`
	CompetitionTimeout  time.Duration `yaml:"competition_timeout" default:"2s"`
	SyntheticSeed       int64         `yaml:"synthetic_seed"`
}

type RepricerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Cron        string `yaml:"cron" default:"0 0 * * * *"`
	BatchSize   int    `yaml:"batch_size" default:"200"`
	Concurrency int    `yaml:"concurrency" default:"8"`
	RunOnStart  bool   `yaml:"run_on_start"`
}

type SalesConfig struct {
	MaxPerSecond int           `yaml:"max_per_second" default:"50"`
	BufferSize   int           `yaml:"buffer_size" default:"1000"`
	RetryBase    time.Duration `yaml:"retry_base" default:"200ms"`
	RetryMax     time.Duration `yaml:"retry_max" default:"5s"`
}

type RateLimitConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Capacity     float64 `yaml:"capacity" default:"20"`
	RefillPerSec float64 `yaml:"refill_per_sec" default:"10"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// Load reads a YAML file on top of the struct defaults and validates the result.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv is Load with environment variables applied before validation.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides secrets and endpoints from the environment. getenv is os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Postgres.DSN = v
	}
	if v := getenv("STRIPE_SECRET_KEY"); v != "" {
		c.Stripe.SecretKey = v
	}
	if v := getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
		c.Stripe.WebhookSecret = v
	}
	if v := getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required for the kafka backend")
	}
	switch c.Cache.Type {
	case "memory":
	case "redis", "layered":
		if !c.Redis.Enabled {
			return fmt.Errorf("cache.type %q requires redis.enabled", c.Cache.Type)
		}
	default:
		return fmt.Errorf("cache.type must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Type)
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue.enabled requires redis.enabled")
	}

	p := c.Pricing
	if p.LowStockThreshold >= p.HighStockThreshold {
		return fmt.Errorf("pricing.low_stock_threshold (%d) must be below high_stock_threshold (%d)", p.LowStockThreshold, p.HighStockThreshold)
	}
	if p.LowStockMultiplier <= 0 || p.HighStockMultiplier <= 0 {
		return fmt.Errorf("pricing multipliers must be positive")
	}
	if p.DemandCeiling <= 0 {
		return fmt.Errorf("pricing.demand_ceiling must be positive")
	}
	if p.MaxStockDistance <= 0 {
		return fmt.Errorf("pricing.max_stock_distance must be positive")
	}
	if p.WindowDays < 1 {
		return fmt.Errorf("pricing.window_days must be at least 1")
	}
	if !unit(p.Competition) {
		return fmt.Errorf("pricing.competition must be within [0,1], got %v", p.Competition)
	}
	if !unit(p.Confidence) {
		return fmt.Errorf("pricing.confidence must be within [0,1], got %v", p.Confidence)
	}
	if p.Seasonality <= 0 {
		return fmt.Errorf("pricing.seasonality must be positive")
	}

	if c.Repricer.Enabled {
		if c.Repricer.Cron == "" {
			return fmt.Errorf("repricer.cron is required when the repricer is enabled")
		}
		if c.Repricer.BatchSize < 1 || c.Repricer.Concurrency < 1 {
			return fmt.Errorf("repricer.batch_size and repricer.concurrency must be at least 1")
		}
	}
	return nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }
