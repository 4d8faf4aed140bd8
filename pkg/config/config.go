package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"GeoPulse/pkg/util"

	"gopkg.in/yaml.v3"
)

// Instrument mirrors one financial instrument entry in YAML.
type Instrument struct {
	Ticker   string `yaml:"ticker"`
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Region   string `yaml:"region"`
	Inverted bool   `yaml:"inverted"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Backend struct {
		Type string `yaml:"type"` // "kafka" or "clickhouse"
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host              string        `yaml:"host"`
		Port              int           `yaml:"port"`
		Database          string        `yaml:"database"`
		User              string        `yaml:"user"`
		Password          string        `yaml:"password"`
		ObservationsTable string        `yaml:"observations_table"`
		ScoresTable       string        `yaml:"scores_table"`
		UseHTTP           bool          `yaml:"use_http"`
		AsyncInsert       bool          `yaml:"async_insert"`
		WaitForAsync      bool          `yaml:"wait_for_async_insert"`
		DialTimeout       time.Duration `yaml:"dial_timeout"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		MaxExecutionTime  time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	PredMarket struct {
		BaseURL        string        `yaml:"base_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		StreamEnabled  bool          `yaml:"stream_enabled"`
	} `yaml:"predmarket"`
	Quotes struct {
		BaseURL     string       `yaml:"base_url"`
		Instruments []Instrument `yaml:"instruments"`
	} `yaml:"quotes"`
	Trends struct {
		BaseURL  string        `yaml:"base_url"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"trends"`
	Radar struct {
		BaseURL  string        `yaml:"base_url"`
		Token    string        `yaml:"token"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"radar"`
	NewsTone struct {
		BaseURL  string        `yaml:"base_url"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"newstone"`
	Cast struct {
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"cast"`
	Scoring struct {
		SnapshotInterval time.Duration `yaml:"snapshot_interval"`
		WatchdogMaxAge   time.Duration `yaml:"watchdog_max_age"`
	} `yaml:"scoring"`
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

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("RADAR_TOKEN"); v != "" {
		c.Radar.Token = v
	}
	if v := os.Getenv("CAST_API_KEY"); v != "" {
		c.Cast.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Enabled = true
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.ClickHouse.ObservationsTable == "" {
		c.ClickHouse.ObservationsTable = c.ClickHouse.Database + ".observations"
	}
	if c.ClickHouse.ScoresTable == "" {
		c.ClickHouse.ScoresTable = c.ClickHouse.Database + ".scores"
	}
	if c.PredMarket.ReconnectDelay == 0 {
		c.PredMarket.ReconnectDelay = 5 * time.Second
	}
	if c.PredMarket.PingInterval == 0 {
		c.PredMarket.PingInterval = 30 * time.Second
	}
	if c.Trends.Interval == 0 {
		c.Trends.Interval = 2 * time.Hour
	}
	if c.Radar.Interval == 0 {
		c.Radar.Interval = time.Hour
	}
	if c.NewsTone.Interval == 0 {
		c.NewsTone.Interval = 2 * time.Hour
	}
	if c.Cast.Interval == 0 {
		c.Cast.Interval = 6 * time.Hour
	}
	if c.Scoring.SnapshotInterval == 0 {
		c.Scoring.SnapshotInterval = 3 * time.Minute
	}
	if c.Scoring.WatchdogMaxAge == 0 {
		c.Scoring.WatchdogMaxAge = 10 * time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty with the kafka backend")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.PredMarket.BaseURL == "" {
		return fmt.Errorf("predmarket.base_url is required")
	}
	if c.Quotes.BaseURL == "" {
		return fmt.Errorf("quotes.base_url is required")
	}
	for i, inst := range c.Quotes.Instruments {
		if inst.Ticker == "" || inst.Region == "" {
			return fmt.Errorf("quotes.instruments[%d]: ticker and region are required", i)
		}
	}
	return nil
}
