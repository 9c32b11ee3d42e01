package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	libconfig "chargeinsight/backend/libs/config"
	libdb "chargeinsight/backend/libs/db"
)

// DefaultInputPath is the export file name the charging backend produces.
const DefaultInputPath = "Charging_events_data - charging_events_meter_reading.csv"

// Config defines eda-service configuration.
type Config struct {
	Input struct {
		Path string `yaml:"path" env:"EDA_INPUT_PATH"`
	} `yaml:"input"`
	Output struct {
		Dir         string `yaml:"dir" env:"EDA_OUTPUT_DIR"`
		CleanedFile string `yaml:"cleanedFile" env:"EDA_CLEANED_FILE"`
		PlotsDir    string `yaml:"plotsDir" env:"EDA_PLOTS_DIR"`
	} `yaml:"output"`
	Analysis struct {
		OutlierQuantile float64 `yaml:"outlierQuantile" env:"EDA_OUTLIER_QUANTILE"`
		HeadRows        int     `yaml:"headRows" env:"EDA_HEAD_ROWS"`
	} `yaml:"analysis"`
	Log struct {
		Level      string `yaml:"level" env:"LOG_LEVEL"`
		File       string `yaml:"file" env:"EDA_LOG_FILE"`
		MaxSizeMB  int    `yaml:"maxSizeMB" env:"EDA_LOG_MAX_SIZE_MB"`
		MaxBackups int    `yaml:"maxBackups" env:"EDA_LOG_MAX_BACKUPS"`
	} `yaml:"log"`
	Database struct {
		Driver string `yaml:"driver" env:"EDA_DB_DRIVER"`
		DSN    string `yaml:"dsn" env:"EDA_DB_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string        `yaml:"addr" env:"EDA_REDIS_ADDR"`
		Password string        `yaml:"password" env:"EDA_REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"EDA_REDIS_DB"`
		TTL      time.Duration `yaml:"ttl" env:"EDA_REDIS_TTL"`
	} `yaml:"redis"`
	MQTT struct {
		URL      string `yaml:"url" env:"EDA_MQTT_URL"`
		Topic    string `yaml:"topic" env:"EDA_MQTT_TOPIC"`
		ClientID string `yaml:"clientId" env:"EDA_MQTT_CLIENT_ID"`
	} `yaml:"mqtt"`
}

// Default returns configuration with every optional sink disabled.
func Default() *Config {
	cfg := &Config{}
	cfg.Input.Path = DefaultInputPath
	cfg.Output.Dir = "."
	cfg.Output.CleanedFile = "EDA.csv"
	cfg.Output.PlotsDir = "Plots"
	cfg.Analysis.OutlierQuantile = 0.95
	cfg.Analysis.HeadRows = 5
	cfg.Database.Driver = libdb.DriverPostgres
	cfg.Redis.TTL = 24 * time.Hour
	cfg.MQTT.Topic = "chargeinsight/eda"
	cfg.MQTT.ClientID = "eda-service"
	return cfg
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input.Path) == "" {
		return errors.New("config: input path required")
	}
	if strings.TrimSpace(c.Output.CleanedFile) == "" {
		return errors.New("config: cleaned file name required")
	}
	if strings.TrimSpace(c.Output.PlotsDir) == "" {
		return errors.New("config: plots dir required")
	}
	if q := c.Analysis.OutlierQuantile; !(q > 0 && q < 1) {
		return fmt.Errorf("config: outlier quantile %v must be in (0, 1)", q)
	}
	if c.Analysis.HeadRows < 0 {
		return errors.New("config: head rows must not be negative")
	}
	if c.DatabaseEnabled() {
		switch c.Database.Driver {
		case libdb.DriverPostgres, libdb.DriverSQLite:
		default:
			return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
		}
	}
	if c.Redis.TTL < 0 {
		return errors.New("config: redis ttl must not be negative")
	}
	return nil
}

// CleanedPath returns where the cleaned dataset is written.
func (c *Config) CleanedPath() string {
	return filepath.Join(c.Output.Dir, c.Output.CleanedFile)
}

// PlotsPath returns the directory figures are written to.
func (c *Config) PlotsPath() string {
	return filepath.Join(c.Output.Dir, c.Output.PlotsDir)
}

// DatabaseEnabled reports whether cleaned events are exported to SQL.
func (c *Config) DatabaseEnabled() bool {
	return strings.TrimSpace(c.Database.DSN) != ""
}

// RedisEnabled reports whether summaries are cached in redis.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// MQTTEnabled reports whether summaries are published over MQTT.
func (c *Config) MQTTEnabled() bool {
	return strings.TrimSpace(c.MQTT.URL) != ""
}
