package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is the tracer name used when none is configured.
const DefaultTracerName = "blueprint"

// Tracer resolves a tracer from the global OpenTelemetry provider. An empty
// name yields DefaultTracerName. The provider is configured by the
// application; without one, spans are no-ops.
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = DefaultTracerName
	}
	return otel.Tracer(name)
}
