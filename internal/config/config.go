package config

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the server configuration. Every key can be set in redline.yaml
// or through a REDLINE_ environment variable, e.g. REDLINE_DATABASE_DSN.
type Config struct {
	HTTPPort string         `mapstructure:"http_port"`
	LogLevel string         `mapstructure:"log_level"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Session  SessionConfig  `mapstructure:"session"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	// Compression is the codec new content is stored with.
	Compression string `mapstructure:"compression"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RedisConfig enables the document cache when Address is set.
type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	Database int           `mapstructure:"database"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// KafkaConfig enables document events when Brokers is set.
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

type SessionConfig struct {
	SaveDelay   time.Duration `mapstructure:"save_delay"`
	CacheSize   int           `mapstructure:"cache_size"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Reanchor    bool          `mapstructure:"reanchor"`
}

type JobsConfig struct {
	SweepSchedule  string        `mapstructure:"sweep_schedule"`
	BackupSchedule string        `mapstructure:"backup_schedule"`
	BackupWindow   time.Duration `mapstructure:"backup_window"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "8030")
	v.SetDefault("log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "redline.db")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.ttl", "1h")

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "document.events")

	v.SetDefault("session.save_delay", "1s")
	v.SetDefault("session.cache_size", 128)
	v.SetDefault("session.idle_timeout", "15m")
	v.SetDefault("session.reanchor", false)

	v.SetDefault("jobs.sweep_schedule", "@every 1m")
	v.SetDefault("jobs.backup_schedule", "@every 5m")
	v.SetDefault("jobs.backup_window", "10m")

	v.SetDefault("compression", "gzip")
}

// Load reads the configuration from the defaults, an optional config file
// and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("redline")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.redline")

	setDefaults(v)
	v.SetEnvPrefix("redline")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadConfig loads the configuration and applies the log level. It exits
// when the configuration is invalid.
func LoadConfig() *Config {
	config, err := Load()
	if err != nil {
		logrus.Fatalf("error loading config: %v", err)
	}

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", config.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	return config
}
