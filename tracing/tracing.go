/*
   Copyright The hoprd-config-generator Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package tracing configures OpenTelemetry export for generation runs.
// Tracing is off unless an OTLP endpoint is set in the environment.
package tracing

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	sdkDisabledEnv        = "OTEL_SDK_DISABLED"
	otlpEndpointEnv       = "OTEL_EXPORTER_OTLP_ENDPOINT"
	otlpTracesEndpointEnv = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	otlpProtocolEnv       = "OTEL_EXPORTER_OTLP_PROTOCOL"
	otlpTracesProtocolEnv = "OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"
	otelTracesExporterEnv = "OTEL_TRACES_EXPORTER"
	otelServiceNameEnv    = "OTEL_SERVICE_NAME"
	defaultServiceName    = "hoprd-config-generator"

	instrumentationName = "github.com/hoprnet/hoprd-config-generator"
	exportTimeout       = 5 * time.Second
)

// Init installs a global tracer provider exporting over OTLP and returns its
// shutdown function, which flushes pending spans. serviceVersion is reported
// as the service.version resource attribute.
func Init(ctx context.Context, serviceVersion string) (func(context.Context) error, error) {
	exp, err := newExporter(ctx)
	if err != nil {
		return nil, err
	}
	return setupTracer(exp, newResource(serviceVersion)), nil
}

// IsDisabled reports whether the environment leaves tracing off.
func IsDisabled() (bool, error) {
	if v := os.Getenv(sdkDisabledEnv); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return true, fmt.Errorf("invalid value for env %s: %w", sdkDisabledEnv, err)
		}
		if disabled {
			return true, nil
		}
	}
	if os.Getenv(otlpEndpointEnv) == "" && os.Getenv(otlpTracesEndpointEnv) == "" {
		return true, nil
	}
	return false, nil
}

// Start starts a span on the global tracer provider. Without Init the span
// is a no-op.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type exporterFactory func(context.Context) (*otlptrace.Exporter, error)

// exporters are keyed by OTLP protocol. "http/json" is not supported.
var exporters = map[string]exporterFactory{
	"":              newHTTPExporter,
	"http/protobuf": newHTTPExporter,
	"grpc":          newGRPCExporter,
}

func newHTTPExporter(ctx context.Context) (*otlptrace.Exporter, error) {
	return otlptracehttp.New(ctx)
}

func newGRPCExporter(ctx context.Context) (*otlptrace.Exporter, error) {
	return otlptracegrpc.New(ctx)
}

func newExporter(ctx context.Context) (*otlptrace.Exporter, error) {
	if v := os.Getenv(otelTracesExporterEnv); v != "" && v != "otlp" {
		return nil, fmt.Errorf("unsupported traces exporter %q", v)
	}

	protocol := cmp.Or(os.Getenv(otlpTracesProtocolEnv), os.Getenv(otlpProtocolEnv))
	factory, ok := exporters[protocol]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenTelemetry protocol %q", protocol)
	}

	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()
	return factory(ctx)
}

func newResource(serviceVersion string) *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", cmp.Or(os.Getenv(otelServiceNameEnv), defaultServiceName)),
		attribute.String("service.version", serviceVersion),
	)
}

func setupTracer(exp *otlptrace.Exporter, res *resource.Resource) func(context.Context) error {
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, exportTimeout)
		defer cancel()

		if err := provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown trace provider: %w", err)
		}
		return nil
	}
}
