package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"StockScan/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
	} `yaml:"kafka"`
	Yahoo struct {
		BaseURL        string        `yaml:"base_url"`
		Range          string        `yaml:"range"`
		Interval       string        `yaml:"interval"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		MaxRPS         float64       `yaml:"max_rps"`
		Burst          int           `yaml:"burst"`
	} `yaml:"yahoo"`
	Scan ScanConfig `yaml:"scan"`
}

// ScanConfig holds every knob of the batch scan engine.
type ScanConfig struct {
	// UniverseCSV switches the universe source from the warehouse to a
	// local CSV file. Development and ad-hoc scans only.
	UniverseCSV   string `yaml:"universe_csv"`
	UniverseLimit int    `yaml:"universe_limit"`
	PoolSize      int    `yaml:"pool_size"`
	SegmentBudget int    `yaml:"segment_budget"` // 0 = no budget, run all remaining segments
	SegmentMode   string `yaml:"segment_mode"`   // by_market or fixed_chunk
	ChunkSize     int    `yaml:"chunk_size"`

	TopN     int     `yaml:"top_n"`
	MinScore float64 `yaml:"min_score"`

	PreferCache    bool `yaml:"prefer_cache"` // fresh cache suppresses the live fetch
	MinHistoryBars int  `yaml:"min_history_bars"`
	MaxCacheBars   int  `yaml:"max_cache_bars"`
	BaseFreshDays  int  `yaml:"base_fresh_days"`

	MinPrice       float64 `yaml:"min_price"`
	MinAvgVolume   float64 `yaml:"min_avg_volume"`
	MaxZeroVolDays int     `yaml:"max_zero_vol_days"`
	MaxFlatDays    int     `yaml:"max_flat_days"`
	LookbackDays   int     `yaml:"lookback_days"`

	RetryMax     int           `yaml:"retry_max"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	CheckpointKey    string        `yaml:"checkpoint_key"`
	ResumeEnabled    bool          `yaml:"resume_enabled"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	Timezone         string        `yaml:"timezone"`
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

	// Validate required fields
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

	// Override with environment variables
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Host = host
				c.Redis.Port = p
			}
		}
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if n := util.ParseIntDefault(os.Getenv("SCAN_POOL_SIZE"), 0); n > 0 {
		c.Scan.PoolSize = n
	}
	if n := util.ParseIntDefault(os.Getenv("SCAN_SEGMENT_BUDGET"), -1); n >= 0 {
		c.Scan.SegmentBudget = n
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	s := &c.Scan
	if s.PoolSize <= 0 {
		s.PoolSize = 8
	}
	if s.SegmentMode == "" {
		s.SegmentMode = "by_market"
	}
	if s.ChunkSize <= 0 {
		s.ChunkSize = 500
	}
	if s.TopN <= 0 {
		s.TopN = 20
	}
	if s.MinHistoryBars <= 0 {
		s.MinHistoryBars = 120
	}
	if s.MaxCacheBars <= 0 {
		s.MaxCacheBars = 400
	}
	if s.BaseFreshDays <= 0 {
		s.BaseFreshDays = 1
	}
	if s.LookbackDays <= 0 {
		s.LookbackDays = 20
	}
	if s.RetryMax < 0 {
		s.RetryMax = 0
	}
	if s.RetryBackoff <= 0 {
		s.RetryBackoff = 500 * time.Millisecond
	}
	if s.CheckpointKey == "" {
		s.CheckpointKey = "scan:batch:checkpoint"
	}
	if s.ProgressInterval <= 0 {
		s.ProgressInterval = 15 * time.Second
	}
	if s.Timezone == "" {
		s.Timezone = "Asia/Tokyo"
	}
	if c.Yahoo.Range == "" {
		c.Yahoo.Range = "1y"
	}
	if c.Yahoo.Interval == "" {
		c.Yahoo.Interval = "1d"
	}
	if c.Yahoo.RequestTimeout <= 0 {
		c.Yahoo.RequestTimeout = 10 * time.Second
	}
	if c.Yahoo.MaxRPS <= 0 {
		c.Yahoo.MaxRPS = 5
	}
	if c.Yahoo.Burst <= 0 {
		c.Yahoo.Burst = 5
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Scan.SegmentMode != "by_market" && c.Scan.SegmentMode != "fixed_chunk" {
		return fmt.Errorf("scan.segment_mode must be 'by_market' or 'fixed_chunk', got '%s'", c.Scan.SegmentMode)
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if _, err := time.LoadLocation(c.Scan.Timezone); err != nil {
		return fmt.Errorf("scan.timezone: %w", err)
	}
	return nil
}
