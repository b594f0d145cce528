// Package config loads the hrmon configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/siiimooon/go-hrm/internal/logging"
	"github.com/siiimooon/go-hrm/pkg/monitor"
	"github.com/siiimooon/go-hrm/pkg/sensor"
)

// Config holds the hrmon configuration.
type Config struct {
	Sensor  SensorConfig  `yaml:"sensor"`
	Monitor MonitorConfig `yaml:"monitor"`
	Log     LogConfig     `yaml:"log"`
}

// SensorConfig selects the sensor to connect to.
type SensorConfig struct {
	Name        string        `yaml:"name"`
	Address     string        `yaml:"address"`
	ScanTimeout time.Duration `yaml:"scan_timeout"`
	// IdleTimeout treats a silent sensor as disconnected. Negative disables.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// MonitorConfig tunes the connection controller.
type MonitorConfig struct {
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	QueueSize      int           `yaml:"queue_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sensor: SensorConfig{
			ScanTimeout: sensor.DefaultScanTimeout,
			IdleTimeout: sensor.DefaultIdleTimeout,
		},
		Monitor: MonitorConfig{
			ReconnectDelay: monitor.DefaultReconnectDelay,
			QueueSize:      monitor.DefaultQueueSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file at path on top of the defaults. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed at reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed at parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and the log settings. The log rules are the
// ones logging.New applies, so a valid Config always yields a logger.
func (c Config) Validate() error {
	var errs []error
	if c.Sensor.ScanTimeout <= 0 {
		errs = append(errs, errors.New("sensor.scan_timeout must be positive"))
	}
	if c.Monitor.ReconnectDelay <= 0 {
		errs = append(errs, errors.New("monitor.reconnect_delay must be positive"))
	}
	if c.Monitor.QueueSize <= 0 {
		errs = append(errs, errors.New("monitor.queue_size must be positive"))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	return errors.Join(errs...)
}
