package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/perfgraph/perfgraph/storage"
)

// OTelConfig configures the trace exporter.
type OTelConfig struct {
	// ServiceName is reported in the trace resource.
	ServiceName string
	// Exporter selects the backend: "stdout", "otlp", or "none".
	Exporter string
	// Endpoint is the OTLP gRPC target, host:port.
	Endpoint string
	// Writer overrides the stdout exporter's destination.
	Writer io.Writer
	// Breaker optionally guards flushes to a flaky backend.
	Breaker CircuitConfig
}

// OTelExporter replays a merged call graph as a span tree. Measurements
// are accumulated durations rather than live timestamps, so span times are
// synthesized: siblings are laid out back to back inside their parent,
// ending at the moment of export.
type OTelExporter struct {
	tp          *sdktrace.TracerProvider
	tracer      trace.Tracer
	nodeCounter metric.Int64Counter
	breaker     *CircuitBreaker
}

// NewOTelExporter builds the provider for the configured backend. With
// Exporter "none" it returns a no-op exporter.
func NewOTelExporter(ctx context.Context, cfg OTelConfig) (*OTelExporter, error) {
	o := &OTelExporter{breaker: NewCircuitBreaker(cfg.Breaker)}
	meter := otel.Meter("perfgraph")
	counter, err := meter.Int64Counter("perfgraph.nodes.exported",
		metric.WithDescription("Call-graph nodes replayed as spans"))
	if err != nil {
		return nil, err
	}
	o.nodeCounter = counter

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "none", "":
		return o, nil
	case "stdout":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
	case "otlp":
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("export: unknown trace exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("export: create trace exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "perfgraph"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(name),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("export: create resource: %w", err)
	}

	o.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	o.tracer = o.tp.Tracer("perfgraph")
	return o, nil
}

// spanFrame tracks one open synthesized span: cursor is where the next
// child starts, end is the span's own finish time.
type spanFrame struct {
	ctx    context.Context
	span   trace.Span
	cursor time.Time
	end    time.Time
}

// Export replays the graph as one trace per top-level node and flushes the
// batcher. When the circuit breaker is open the call is a silent no-op.
func (o *OTelExporter) Export(ctx context.Context, g *storage.Global) error {
	if o.tp == nil {
		return nil
	}
	if !o.breaker.Allow() {
		return nil
	}

	// Anchor the synthesized timeline so the last span ends now.
	var total int64
	g.Walk(func(n storage.NodeView) bool {
		if n.Depth == 0 {
			total += n.Accum
		}
		return true
	})
	base := time.Now().Add(-time.Duration(total))

	kind := g.Kind().String()
	stack := []spanFrame{{ctx: ctx, cursor: base}}
	endTo := func(depth int) {
		for len(stack) > depth {
			top := stack[len(stack)-1]
			top.span.End(trace.WithTimestamp(top.end))
			stack = stack[:len(stack)-1]
		}
	}
	g.Walk(func(n storage.NodeView) bool {
		endTo(int(n.Depth) + 1)
		parent := &stack[len(stack)-1]
		start := parent.cursor
		end := start.Add(time.Duration(n.Accum))
		parent.cursor = end

		attrs := []attribute.KeyValue{
			attribute.String("perfgraph.kind", kind),
			attribute.Int64("perfgraph.laps", int64(n.Laps)),
			attribute.Int64("perfgraph.accum", n.Accum),
			attribute.Int("perfgraph.sources", int(n.Sources)),
		}
		if n.Origin != "" {
			attrs = append(attrs, attribute.String("perfgraph.origin", n.Origin))
		}
		spanCtx, span := o.tracer.Start(parent.ctx, n.Name,
			trace.WithTimestamp(start),
			trace.WithAttributes(attrs...),
		)
		o.nodeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
		stack = append(stack, spanFrame{ctx: spanCtx, span: span, cursor: start, end: end})
		return true
	})
	endTo(1)

	if err := o.tp.ForceFlush(ctx); err != nil {
		o.breaker.RecordFailure()
		return fmt.Errorf("export: flush traces: %w", err)
	}
	o.breaker.RecordSuccess()
	return nil
}

// Shutdown flushes and stops the provider.
func (o *OTelExporter) Shutdown(ctx context.Context) error {
	if o.tp == nil {
		return nil
	}
	return o.tp.Shutdown(ctx)
}
