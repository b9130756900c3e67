package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		// RunTimeout bounds one synchronous wallet analysis.
		RunTimeout time.Duration `yaml:"run_timeout"`
		RateLimit  struct {
			Capacity     int     `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		Digest struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic"`
			FlushInterval  time.Duration `yaml:"flush_interval"`
			CountThreshold int           `yaml:"count_threshold"`
		} `yaml:"digest"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	HTTPClient struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"http_client"`
	Providers struct {
		RetryDelay time.Duration `yaml:"retry_delay"`
		Helius     struct {
			APIKey    string        `yaml:"api_key"`
			BaseURL   string        `yaml:"base_url"`
			RPCURL    string        `yaml:"rpc_url"`
			MaxPages  int           `yaml:"max_pages"`
			PageSize  int           `yaml:"page_size"`
			PageDelay time.Duration `yaml:"page_delay"`
		} `yaml:"helius"`
		Cielo struct {
			APIKey    string        `yaml:"api_key"`
			BaseURL   string        `yaml:"base_url"`
			MaxPages  int           `yaml:"max_pages"`
			PageSize  int           `yaml:"page_size"`
			PageDelay time.Duration `yaml:"page_delay"`
		} `yaml:"cielo"`
		Covalent struct {
			APIKey    string        `yaml:"api_key"`
			BaseURL   string        `yaml:"base_url"`
			MaxPages  int           `yaml:"max_pages"`
			PageDelay time.Duration `yaml:"page_delay"`
		} `yaml:"covalent"`
	} `yaml:"providers"`
	Prices struct {
		CoinGecko struct {
			APIKey      string `yaml:"api_key"`
			BaseURL     string `yaml:"base_url"`
			WindowDays  int    `yaml:"window_days"`
			Concurrency int    `yaml:"concurrency"`
		} `yaml:"coingecko"`
	} `yaml:"prices"`
	Metadata struct {
		JupiterURL     string `yaml:"jupiter_url"`
		DexScreenerURL string `yaml:"dexscreener_url"`
		BatchSize      int    `yaml:"batch_size"`
		Concurrency    int    `yaml:"concurrency"`
	} `yaml:"metadata"`
	Cache struct {
		SummaryTTL time.Duration `yaml:"summary_ttl"`
		MemorySize int           `yaml:"memory_size"`
	} `yaml:"cache"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Name       string        `yaml:"name"`
		Workers    int           `yaml:"workers"`
		MaxRetries int           `yaml:"max_retries"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		ResultTTL  time.Duration `yaml:"result_ttl"`
	} `yaml:"queue"`
	Kafka struct {
		Enabled        bool     `yaml:"enabled"`
		Brokers        []string `yaml:"brokers"`
		RequestsTopic  string   `yaml:"requests_topic"`
		SummariesTopic string   `yaml:"summaries_topic"`
		RequiredAcks   int      `yaml:"required_acks"`
		Compression    string   `yaml:"compression"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchSize    int           `yaml:"batch_size"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port"`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		UseHTTP     bool          `yaml:"use_http"`
		AsyncInsert bool          `yaml:"async_insert"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"clickhouse"`
	Sink struct {
		BufferSize   int           `yaml:"buffer_size"`
		MaxRetries   int           `yaml:"max_retries"`
		RetryBackoff time.Duration `yaml:"retry_backoff"`
	} `yaml:"sink"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads a .env file when present, then the YAML config, then
// applies environment overrides. Provider credentials normally arrive this way.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Providers.Helius.APIKey, "HELIUS_API_KEY")
	setString(&c.Providers.Cielo.APIKey, "CIELO_API_KEY")
	setString(&c.Providers.Covalent.APIKey, "COVALENT_API_KEY")
	setString(&c.Prices.CoinGecko.APIKey, "COINGECKO_API_KEY")
	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.ClickHouse.Host, "CLICKHOUSE_HOST")
	setString(&c.ClickHouse.Password, "CLICKHOUSE_PASSWORD")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RunTimeout == 0 {
		c.Server.RunTimeout = 2 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 10
		c.Server.RateLimit.RefillPerSec = 0.2
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.HTTPClient.Timeout == 0 {
		c.HTTPClient.Timeout = 15 * time.Second
	}
	if c.Providers.RetryDelay == 0 {
		c.Providers.RetryDelay = 2 * time.Second
	}

	h := &c.Providers.Helius
	if h.BaseURL == "" {
		h.BaseURL = "https://api.helius.xyz"
	}
	if h.RPCURL == "" {
		h.RPCURL = "https://mainnet.helius-rpc.com"
	}
	if h.MaxPages == 0 {
		h.MaxPages = 50
	}
	if h.PageSize == 0 {
		h.PageSize = 100
	}
	if h.PageDelay == 0 {
		h.PageDelay = 500 * time.Millisecond
	}

	ci := &c.Providers.Cielo
	if ci.BaseURL == "" {
		ci.BaseURL = "https://feed-api.cielo.finance"
	}
	if ci.MaxPages == 0 {
		ci.MaxPages = 20
	}
	if ci.PageSize == 0 {
		ci.PageSize = 100
	}

	co := &c.Providers.Covalent
	if co.BaseURL == "" {
		co.BaseURL = "https://api.covalenthq.com"
	}
	if co.MaxPages == 0 {
		co.MaxPages = 20
	}

	cg := &c.Prices.CoinGecko
	if cg.BaseURL == "" {
		cg.BaseURL = "https://api.coingecko.com"
	}
	if cg.WindowDays == 0 {
		cg.WindowDays = 90
	}
	if cg.Concurrency == 0 {
		cg.Concurrency = 3
	}

	if c.Metadata.JupiterURL == "" {
		c.Metadata.JupiterURL = "https://lite-api.jup.ag/tokens/v1"
	}
	if c.Metadata.DexScreenerURL == "" {
		c.Metadata.DexScreenerURL = "https://api.dexscreener.com"
	}
	if c.Metadata.BatchSize == 0 {
		c.Metadata.BatchSize = 50
	}
	if c.Metadata.Concurrency == 0 {
		c.Metadata.Concurrency = 4
	}

	if c.Cache.SummaryTTL == 0 {
		c.Cache.SummaryTTL = 10 * time.Minute
	}
	if c.Cache.MemorySize == 0 {
		c.Cache.MemorySize = 1000
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "walletpnl"
	}
	if c.Queue.Name == "" {
		c.Queue.Name = "walletpnl:jobs"
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 2
	}
	if c.Queue.ResultTTL == 0 {
		c.Queue.ResultTTL = time.Hour
	}
	if c.Kafka.RequestsTopic == "" {
		c.Kafka.RequestsTopic = "walletpnl.requests"
	}
	if c.Kafka.SummariesTopic == "" {
		c.Kafka.SummariesTopic = "walletpnl.summaries"
	}
	if c.Log.Digest.Topic == "" {
		c.Log.Digest.Topic = "walletpnl.log_digests"
	}
	if c.Sink.BufferSize == 0 {
		c.Sink.BufferSize = 256
	}
	if c.Sink.MaxRetries == 0 {
		c.Sink.MaxRetries = 3
	}
	if c.Sink.RetryBackoff == 0 {
		c.Sink.RetryBackoff = 200 * time.Millisecond
	}
}

// Validate checks if the configuration is valid. Missing provider credentials
// are not a config error here: they surface per run as a ConfigurationError so
// that a deployment with only some providers still serves the chains it can.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue requires redis.enabled")
	}
	if c.Kafka.Consumer.Enabled && c.Kafka.Consumer.GroupID == "" {
		return fmt.Errorf("kafka.consumer.group_id is required")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Database == "" {
		return fmt.Errorf("clickhouse.database is required")
	}
	if c.Log.Digest.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.digest requires kafka.enabled")
	}
	return nil
}
