// Package telemetry implements the observability hooks with OpenTelemetry.
//
// [Hooks] turns format passes, renders and API requests into spans and
// metrics. [Setup] installs a tracer provider that writes spans to a writer,
// which is what the CLI's --trace flag uses:
//
//	shutdown, err := telemetry.Setup(os.Stderr, buildinfo.Version)
//	if err != nil {
//	    return err
//	}
//	defer shutdown(context.Background())
//
//	hooks, err := telemetry.New(otel.GetTracerProvider(), otel.GetMeterProvider())
//	if err != nil {
//	    return err
//	}
//	hooks.Install()
package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName identifies this program in traces.
const ServiceName = "nodeformat"

// Setup installs a global tracer provider that pretty-prints every span to w
// as it ends. The returned function flushes and stops it.
func Setup(w io.Writer, version string) (shutdown func(context.Context) error, err error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
