package telemetry

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config is the telemetry configuration for an embedding program.
type Config struct {
	// ServiceName identifies the service in traces and metrics.
	ServiceName string `validate:"required"`

	// ServiceVersion is the version reported with traces.
	ServiceVersion string

	// Logging configures structured logging.
	Logging LoggingConfig

	// Metrics configures Prometheus collection.
	Metrics MetricsConfig

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	Level string `validate:"omitempty,oneof=trace debug info warn error"`

	// Format specifies the log format (console, json).
	Format string `validate:"omitempty,oneof=console json"`

	// Output specifies where logs are written (stdout, stderr, file path).
	Output string
}

// MetricsConfig configures Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool

	// Namespace prefixes every metric name.
	Namespace string
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled turns span export on.
	Enabled bool

	// Exporter selects the span exporter (stdout, none).
	Exporter string `validate:"omitempty,oneof=stdout none"`

	// SamplingRate is the head-based sampling ratio in [0, 1].
	SamplingRate float64 `validate:"gte=0,lte=1"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}
	return nil
}
