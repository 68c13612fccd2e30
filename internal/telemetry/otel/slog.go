package otel

import (
	"context"
	"log/slog"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// NewSlogHandler returns a slog.Handler that forwards records to the given
// LoggerProvider as OTel log records, so application logs reach the collector
// alongside traces and metrics. If provider is nil, records are dropped.
func NewSlogHandler(provider *sdklog.LoggerProvider, scope string) slog.Handler {
	if provider == nil {
		return discardHandler{}
	}
	return &otelSlogHandler{logger: provider.Logger(scope)}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

type otelSlogHandler struct {
	logger otellog.Logger
	attrs  []otellog.KeyValue
}

func (h *otelSlogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *otelSlogHandler) Handle(ctx context.Context, r slog.Record) error {
	rec := otellog.Record{}
	rec.SetTimestamp(r.Time)
	rec.SetBody(otellog.StringValue(r.Message))
	rec.SetSeverity(severity(r.Level))
	rec.SetSeverityText(r.Level.String())
	rec.AddAttributes(h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		rec.AddAttributes(convertAttr(a))
		return true
	})
	h.logger.Emit(ctx, rec)
	return nil
}

func (h *otelSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &otelSlogHandler{logger: h.logger, attrs: append([]otellog.KeyValue{}, h.attrs...)}
	for _, a := range attrs {
		next.attrs = append(next.attrs, convertAttr(a))
	}
	return next
}

func (h *otelSlogHandler) WithGroup(string) slog.Handler { return h }

func severity(l slog.Level) otellog.Severity {
	switch {
	case l >= slog.LevelError:
		return otellog.SeverityError
	case l >= slog.LevelWarn:
		return otellog.SeverityWarn
	case l >= slog.LevelInfo:
		return otellog.SeverityInfo
	default:
		return otellog.SeverityDebug
	}
}

func convertAttr(a slog.Attr) otellog.KeyValue {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return otellog.Bool(a.Key, v.Bool())
	case slog.KindInt64:
		return otellog.Int64(a.Key, v.Int64())
	case slog.KindFloat64:
		return otellog.Float64(a.Key, v.Float64())
	default:
		return otellog.String(a.Key, v.String())
	}
}
