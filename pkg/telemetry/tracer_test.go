package telemetry

import (
	"context"
	"testing"
)

func TestNewTracer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracingConfig
		wantErr bool
	}{
		{"disabled", TracingConfig{}, false},
		{"enabled without exporter", TracingConfig{Enabled: true, SamplingRate: 1}, false},
		{"enabled with none exporter", TracingConfig{Enabled: true, Exporter: "none", SamplingRate: 0.5}, false},
		{"enabled with stdout exporter", TracingConfig{Enabled: true, Exporter: "stdout", SamplingRate: 1}, false},
		{"unsupported exporter", TracingConfig{Enabled: true, Exporter: "jaeger"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := NewTracer(tt.cfg, "nmstate", "2.2.0")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTracer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tracer.Tracer() == nil {
				t.Fatal("NewTracer() returned no tracer")
			}

			// Spans must be usable whether or not export is on.
			_, span := tracer.Tracer().Start(context.Background(), "apply")
			span.End()

			if err := tracer.Shutdown(context.Background()); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}
