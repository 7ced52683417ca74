package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitTracer(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		endpoint    string
	}{
		{name: "host and port", serviceName: "life-os-server", endpoint: "localhost:4318"},
		{name: "full url", serviceName: "life-os-worker", endpoint: "http://localhost:4318"},
		{name: "empty service name", serviceName: "", endpoint: "localhost:4318"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tp, err := InitTracer(ctx, tt.serviceName, tt.endpoint)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tp == nil {
				t.Fatal("Expected tracer provider")
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			// Nothing listens on the endpoint, so the flush may fail; only a
			// hang would be a bug here.
			_ = Shutdown(shutdownCtx, tp)
		})
	}
}

func TestExporterOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		endpoint string
		want     int
	}{
		{endpoint: "", want: 0},
		{endpoint: "collector:4318", want: 2},
		{endpoint: "http://collector:4318", want: 2},
		{endpoint: "https://collector.example.com", want: 1},
	}

	for _, tt := range tests {
		if got := len(exporterOptions(tt.endpoint)); got != tt.want {
			t.Errorf("Expected %d options for %q, got %d", tt.want, tt.endpoint, got)
		}
	}
}

func TestShutdown_Nil(t *testing.T) {
	t.Parallel()

	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}
