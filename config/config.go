// Package config loads anomalyctl settings.
//
// Sources, highest priority first:
//  1. CLI flags bound with BindFlags
//  2. Environment variables (ANOMALYCTL_* prefix, "." replaced by "_")
//  3. A YAML file passed with --config
//  4. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rkarmaka98/anomalyctl/anomaly"
)

const envPrefix = "ANOMALYCTL"

// Config is the full anomalyctl configuration.
type Config struct {
	Detector DetectorConfig `mapstructure:"detector"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

type DetectorConfig struct {
	Strategy  string  `mapstructure:"strategy"`
	Capacity  int     `mapstructure:"capacity"`
	Threshold float64 `mapstructure:"threshold"`
}

// MonitorConfig describes the Azure streams polled by the monitor command.
type MonitorConfig struct {
	SubscriptionID string        `mapstructure:"subscription_id"`
	Interval       time.Duration `mapstructure:"interval"`
	Metric         string        `mapstructure:"metric"`
	Aggregation    string        `mapstructure:"aggregation"`
	// Shares are "name:resourceID" pairs watched through Azure Monitor.
	Shares []string `mapstructure:"shares"`
	// UsageShares are share names whose usage bytes are read from the storage account.
	UsageShares    []string `mapstructure:"usage_shares"`
	StorageAccount string   `mapstructure:"storage_account"`
	StorageKey     string   `mapstructure:"storage_key"`
}

type MetricsConfig struct {
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Detector: DetectorConfig{
			Strategy:  "zscore",
			Capacity:  20,
			Threshold: 3,
		},
		Monitor: MonitorConfig{
			Interval:    time.Minute,
			Metric:      "FileServerIOPS",
			Aggregation: "Average",
		},
		Metrics: MetricsConfig{
			Addr:      ":9464",
			Namespace: "anomalyctl",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// Loader reads configuration through viper.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())
	return &Loader{v: v}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("detector.strategy", d.Detector.Strategy)
	v.SetDefault("detector.capacity", d.Detector.Capacity)
	v.SetDefault("detector.threshold", d.Detector.Threshold)

	v.SetDefault("monitor.subscription_id", d.Monitor.SubscriptionID)
	v.SetDefault("monitor.interval", d.Monitor.Interval)
	v.SetDefault("monitor.metric", d.Monitor.Metric)
	v.SetDefault("monitor.aggregation", d.Monitor.Aggregation)
	v.SetDefault("monitor.shares", []string{})
	v.SetDefault("monitor.usage_shares", []string{})
	v.SetDefault("monitor.storage_account", "")
	v.SetDefault("monitor.storage_key", "")

	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)
}

// BindFlags binds command-line flags to configuration keys. Only flags the
// user actually set override lower priority sources.
func (l *Loader) BindFlags(bindings map[string]*pflag.Flag) error {
	for key, flag := range bindings {
		if flag == nil {
			return fmt.Errorf("bind %s: flag not defined", key)
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the optional YAML file at path and returns the merged config.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if _, err := anomaly.ParseStrategy(c.Detector.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("detector.strategy: %w", err))
	}
	if c.Detector.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("detector.capacity must be > 0, got %d", c.Detector.Capacity))
	}
	if c.Detector.Threshold < 0 {
		errs = append(errs, fmt.Errorf("detector.threshold must be >= 0, got %g", c.Detector.Threshold))
	}
	if c.Monitor.Interval <= 0 {
		errs = append(errs, fmt.Errorf("monitor.interval must be positive, got %s", c.Monitor.Interval))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Strategy parses the configured detector strategy.
func (c *Config) Strategy() (anomaly.Strategy, error) {
	return anomaly.ParseStrategy(c.Detector.Strategy)
}

// NewDetector builds a detector from the detector section.
func (c *Config) NewDetector(opts ...anomaly.Option) (*anomaly.Detector, error) {
	s, err := c.Strategy()
	if err != nil {
		return nil, err
	}
	opts = append([]anomaly.Option{anomaly.WithStrategy(s)}, opts...)
	return anomaly.New(c.Detector.Capacity, c.Detector.Threshold, opts...)
}
