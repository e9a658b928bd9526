package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/nodeformat/pkg/observability"
)

const instrumentation = "nodeformat.layout"

// Hooks implements [observability.FormatHooks], [observability.RenderHooks]
// and [observability.HTTPHooks].
//
// A format span opens in OnFormatStart and closes in OnFormatComplete for the
// same root; the events fired in between are recorded on it. Skipped and
// deferred requests never start a pass and only count.
type Hooks struct {
	tracer trace.Tracer

	formatDuration metric.Float64Histogram
	formatTotal    metric.Int64Counter
	skippedTotal   metric.Int64Counter
	deferredTotal  metric.Int64Counter
	ignoredTotal   metric.Int64Counter
	incomplete     metric.Int64Counter
	knotsAdded     metric.Int64Counter
	renderDuration metric.Float64Histogram
	httpTotal      metric.Int64Counter
	httpDuration   metric.Float64Histogram

	mu    sync.Mutex
	spans map[string]trace.Span
}

var (
	_ observability.FormatHooks = (*Hooks)(nil)
	_ observability.RenderHooks = (*Hooks)(nil)
	_ observability.HTTPHooks   = (*Hooks)(nil)
)

// New creates hooks that report to the given providers.
func New(tp trace.TracerProvider, mp metric.MeterProvider) (*Hooks, error) {
	meter := mp.Meter(instrumentation)
	h := &Hooks{
		tracer: tp.Tracer(instrumentation),
		spans:  make(map[string]trace.Span),
	}

	var err error
	if h.formatDuration, err = meter.Float64Histogram("format_duration_seconds",
		metric.WithDescription("Duration of format passes"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if h.formatTotal, err = meter.Int64Counter("format_total",
		metric.WithDescription("Format passes run")); err != nil {
		return nil, err
	}
	if h.skippedTotal, err = meter.Int64Counter("format_skipped_total",
		metric.WithDescription("Format requests skipped because nothing changed")); err != nil {
		return nil, err
	}
	if h.deferredTotal, err = meter.Int64Counter("format_deferred_total",
		metric.WithDescription("Format requests waiting for node sizes")); err != nil {
		return nil, err
	}
	if h.ignoredTotal, err = meter.Int64Counter("groups_ignored_total",
		metric.WithDescription("Groups left out of a format pass")); err != nil {
		return nil, err
	}
	if h.incomplete, err = meter.Int64Counter("format_incomplete_total",
		metric.WithDescription("Format passes that left overlaps")); err != nil {
		return nil, err
	}
	if h.knotsAdded, err = meter.Int64Counter("knots_added_total",
		metric.WithDescription("Reroute knots created")); err != nil {
		return nil, err
	}
	if h.renderDuration, err = meter.Float64Histogram("render_duration_seconds",
		metric.WithDescription("Duration of renders"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if h.httpTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("HTTP requests served")); err != nil {
		return nil, err
	}
	if h.httpDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return h, nil
}

// Install registers h for format, render and HTTP events.
func (h *Hooks) Install() {
	observability.SetFormatHooks(h)
	observability.SetRenderHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *Hooks) OnFormatStart(ctx context.Context, root string, nodeCount int) {
	_, span := h.tracer.Start(ctx, "layout.Format", trace.WithAttributes(
		attribute.String("root", root),
		attribute.Int("nodes", nodeCount),
	))
	h.mu.Lock()
	if old, ok := h.spans[root]; ok {
		old.End()
	}
	h.spans[root] = span
	h.mu.Unlock()
}

func (h *Hooks) OnFormatComplete(ctx context.Context, root string, stats observability.FormatStats, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("formatter", stats.Formatter),
		attribute.Bool("success", err == nil),
	}
	h.formatTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err == nil {
		h.formatDuration.Record(ctx, stats.Duration.Seconds(), metric.WithAttributes(attrs...))
		h.knotsAdded.Add(ctx, int64(stats.KnotsAdded))
	}

	span := h.take(root)
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.String("formatter", stats.Formatter),
		attribute.Int("knots_added", stats.KnotsAdded),
		attribute.Int("passes", stats.Passes),
		attribute.Int("groups_moved", stats.GroupsMoved),
		attribute.Bool("incomplete", stats.Incomplete),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (h *Hooks) OnFormatSkipped(ctx context.Context, root string) {
	h.skippedTotal.Add(ctx, 1)
}

func (h *Hooks) OnFormatDeferred(ctx context.Context, root string, missing int) {
	h.deferredTotal.Add(ctx, 1)
}

func (h *Hooks) OnGroupIgnored(ctx context.Context, group, reason string) {
	h.ignoredTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	h.event("group ignored", attribute.String("group", group), attribute.String("reason", reason))
}

func (h *Hooks) OnIncomplete(ctx context.Context, root string, overlaps int) {
	h.incomplete.Add(ctx, 1)
	h.mu.Lock()
	span := h.spans[root]
	h.mu.Unlock()
	if span != nil {
		span.AddEvent("overlaps remain", trace.WithAttributes(attribute.Int("overlaps", overlaps)))
	}
}

func (h *Hooks) OnRenderStart(ctx context.Context, format string) {}

func (h *Hooks) OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error) {
	h.renderDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("format", format),
		attribute.Bool("success", err == nil),
	))
}

func (h *Hooks) OnRequest(ctx context.Context, method, path string) {}

func (h *Hooks) OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", statusCode),
	)
	h.httpTotal.Add(ctx, 1, attrs)
	h.httpDuration.Record(ctx, duration.Seconds(), attrs)
}

func (h *Hooks) take(root string) trace.Span {
	h.mu.Lock()
	defer h.mu.Unlock()
	span := h.spans[root]
	delete(h.spans, root)
	return span
}

// event adds an event to every open format span; group events carry no root.
func (h *Hooks) event(name string, attrs ...attribute.KeyValue) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, span := range h.spans {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}
