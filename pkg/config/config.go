package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"SweepSim/internal/services/detect"
	"SweepSim/internal/services/sim"
	"SweepSim/internal/services/strategy"
)

type Config struct {
	Environment string `yaml:"environment"`
	Mode        string `yaml:"mode" default:"replay"` // replay or live
	Logging     struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"sweepsim"`
		User             string        `yaml:"user" default:"default"`
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
		Topic        string   `yaml:"topic" default:"candles.1m"`
		EventsTopic  string   `yaml:"events_topic" default:"sweepsim.events"`
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
			GroupID    string        `yaml:"group_id" default:"sweepsim"`
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
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Cache struct {
		Enabled    bool `yaml:"enabled"`
		MemorySize int  `yaml:"memory_size" default:"1000"`
	} `yaml:"cache"`
	Stream struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxRPS         float64       `yaml:"max_rps"`
	} `yaml:"stream"`
	Replay struct {
		CSVPath string `yaml:"csv_path"`
		Symbol  string `yaml:"symbol"`
	} `yaml:"replay"`
	Levels struct {
		Path        string        `yaml:"path"`
		URL         string        `yaml:"url"`
		HTTPTimeout time.Duration `yaml:"http_timeout"`
	} `yaml:"levels"`
	Detectors struct {
		Sweep detect.SweepConfig `yaml:"sweep"`
		Burst detect.BurstConfig `yaml:"burst"`
	} `yaml:"detectors"`
	Strategy  strategy.RecoilConfig `yaml:"strategy"`
	Simulator sim.ExecConfig        `yaml:"simulator"`
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

	// Fill zero-valued fields from struct tags
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

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

	if v := os.Getenv("MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("STREAM_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Stream.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Mode != "replay" && c.Mode != "live" {
		return fmt.Errorf("mode must be 'replay' or 'live', got '%s'", c.Mode)
	}
	if c.Mode == "replay" {
		if c.Replay.CSVPath == "" && !c.ClickHouse.Enabled {
			return fmt.Errorf("replay mode needs replay.csv_path or clickhouse enabled")
		}
		if c.Replay.CSVPath != "" && c.Replay.Symbol == "" {
			return fmt.Errorf("replay.symbol is required with replay.csv_path")
		}
	}
	if c.Mode == "live" {
		if c.Stream.WebSocketURL == "" && !c.Kafka.Enabled {
			return fmt.Errorf("live mode needs stream.websocket_url or kafka enabled")
		}
		if c.Stream.WebSocketURL != "" && len(c.Stream.Symbols) == 0 {
			return fmt.Errorf("stream.symbols cannot be empty")
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Levels.Path != "" && c.Levels.URL != "" {
		return fmt.Errorf("levels.path and levels.url are mutually exclusive")
	}
	if err := c.Detectors.Sweep.Validate(); err != nil {
		return fmt.Errorf("detectors.sweep: %w", err)
	}
	if err := c.Detectors.Burst.Validate(); err != nil {
		return fmt.Errorf("detectors.burst: %w", err)
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if err := c.Simulator.Validate(); err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	return nil
}
