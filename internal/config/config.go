// Package config provides configuration structures and defaults for Acoustic Collector
package config

import (
	"fmt"
	"math"
	"time"
)

// Collection modes
const (
	ModeCapture   = "capture"   // Binary PCM frames ("DUMP" marker)
	ModeTelemetry = "telemetry" // ASCII STATS/PATTERN/DATA lines
)

// Config represents the complete application configuration
type Config struct {
	Mode      string          `yaml:"mode" mapstructure:"mode"`           // Collection mode: "capture" or "telemetry"
	Serial    SerialConfig    `yaml:"serial" mapstructure:"serial"`       // Serial link settings
	Capture   CaptureConfig   `yaml:"capture" mapstructure:"capture"`     // PCM capture settings
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"` // Telemetry session settings
	Features  FeaturesConfig  `yaml:"features" mapstructure:"features"`   // Window feature extraction
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`     // Prometheus endpoint
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`     // Logging configuration
}

// SerialConfig contains serial link parameters
type SerialConfig struct {
	Port         string        `yaml:"port" mapstructure:"port"`                   // Serial port device path
	BaudRate     int           `yaml:"baud_rate" mapstructure:"baud_rate"`         // Serial communication baud rate
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`   // Per-read timeout
	StartupDelay time.Duration `yaml:"startup_delay" mapstructure:"startup_delay"` // Wait after open (device resets on open)
	ReplayFile   string        `yaml:"replay_file" mapstructure:"replay_file"`     // Raw byte dump read instead of the port
}

// CaptureConfig contains PCM capture parameters
type CaptureConfig struct {
	SampleRate int    `yaml:"sample_rate" mapstructure:"sample_rate"` // Device sample rate in Hz
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir"`   // Directory for <n>.csv captures
	MaxSamples uint32 `yaml:"max_samples" mapstructure:"max_samples"` // Largest accepted frame (0 = unlimited)
	WriteWAV   bool   `yaml:"write_wav" mapstructure:"write_wav"`     // Also write <n>.wav next to each capture
}

// TelemetryConfig contains telemetry session parameters
type TelemetryConfig struct {
	OutputDir   string `yaml:"output_dir" mapstructure:"output_dir"`     // Directory for <n>.csv session logs
	LogToFile   bool   `yaml:"log_to_file" mapstructure:"log_to_file"`   // Persist decoded records
	PrintStatus bool   `yaml:"print_status" mapstructure:"print_status"` // Live console status
}

// FeaturesConfig contains window feature extraction parameters
type FeaturesConfig struct {
	WindowMs float64 `yaml:"window_ms" mapstructure:"window_ms"` // Window duration in milliseconds
}

// MetricsConfig contains Prometheus endpoint parameters
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"` // e.g. ":9110"; empty disables the endpoint
}

// LoggingConfig contains logging configuration parameters
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // Log level (debug, info, warn, error)
	File  string `yaml:"file" mapstructure:"file"`   // Log file path (empty = stderr)
}

// DefaultConfig returns a configuration with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Mode: ModeTelemetry,
		Serial: SerialConfig{
			Port:         "/dev/ttyUSB0",  // Common USB serial adapter path
			BaudRate:     921600,          // Device firmware rate
			ReadTimeout:  time.Second,     // Yield to the read loop once per second
			StartupDelay: 2 * time.Second, // Boards reset when the port opens
			ReplayFile:   "",
		},
		Capture: CaptureConfig{
			SampleRate: 16000,
			OutputDir:  "captures",
			MaxSamples: 16000 * 600, // 10 minutes at 16 kHz
			WriteWAV:   false,
		},
		Telemetry: TelemetryConfig{
			OutputDir:   "telemetry_logs",
			LogToFile:   true,
			PrintStatus: true,
		},
		Features: FeaturesConfig{
			WindowMs: 10,
		},
		Metrics: MetricsConfig{
			ListenAddr: "",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Validate checks the configuration for values the collector cannot run with
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeCapture, ModeTelemetry:
	default:
		return fmt.Errorf("invalid mode: %s (must be '%s' or '%s')", c.Mode, ModeCapture, ModeTelemetry)
	}

	if c.Serial.ReplayFile == "" {
		if c.Serial.Port == "" {
			return fmt.Errorf("serial port not specified")
		}
		if c.Serial.BaudRate <= 0 {
			return fmt.Errorf("invalid baud rate: %d", c.Serial.BaudRate)
		}
	}
	if c.Serial.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be positive)", c.Serial.ReadTimeout)
	}

	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.Capture.SampleRate)
	}

	// Same rounding rule as the feature extractor
	if math.IsNaN(c.Features.WindowMs) || math.Round(c.Features.WindowMs/1000*float64(c.Capture.SampleRate)) < 1 {
		return fmt.Errorf("invalid window: %.3f ms is less than one sample at %d Hz", c.Features.WindowMs, c.Capture.SampleRate)
	}

	switch c.Mode {
	case ModeCapture:
		if c.Capture.OutputDir == "" {
			return fmt.Errorf("capture output directory not specified")
		}
	case ModeTelemetry:
		if c.Telemetry.LogToFile && c.Telemetry.OutputDir == "" {
			return fmt.Errorf("telemetry output directory not specified")
		}
	}

	return nil
}
