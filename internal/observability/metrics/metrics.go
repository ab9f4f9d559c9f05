package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	oauthCallbacks       metric.Int64Counter
	sessionWriteTimeouts metric.Int64Counter
	accountingRequests   metric.Int64Counter
	receiptsRendered     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName(cfg))

	oauthCallbacks, err := meter.Int64Counter("invoicedesk_oauth_callbacks_total")
	if err != nil {
		return nil, err
	}
	sessionWriteTimeouts, err := meter.Int64Counter("invoicedesk_session_write_timeouts_total")
	if err != nil {
		return nil, err
	}
	accountingRequests, err := meter.Int64Counter("invoicedesk_accounting_requests_total")
	if err != nil {
		return nil, err
	}
	receiptsRendered, err := meter.Int64Counter("invoicedesk_receipts_rendered_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		oauthCallbacks:       oauthCallbacks,
		sessionWriteTimeouts: sessionWriteTimeouts,
		accountingRequests:   accountingRequests,
		receiptsRendered:     receiptsRendered,
	}, nil
}

// RecordOAuthCallback counts callbacks by outcome (authenticated, csrf_mismatch, ...).
func (m *Metrics) RecordOAuthCallback(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.oauthCallbacks.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("result", strings.TrimSpace(result)))...))
}

func (m *Metrics) RecordSessionWriteTimeout(ctx context.Context, backend string) {
	if m == nil {
		return
	}
	m.sessionWriteTimeouts.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("backend", strings.TrimSpace(backend)))...))
}

// RecordAccountingRequest counts outbound accounting calls; status is bucketed to its class.
func (m *Metrics) RecordAccountingRequest(ctx context.Context, operation string, status int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.String("status_class", StatusClass(status)),
	)
	m.accountingRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordReceiptRendered(ctx context.Context, format string) {
	if m == nil {
		return
	}
	m.receiptsRendered.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("format", strings.TrimSpace(format)))...))
}

func meterName(cfg Config) string {
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		return name
	}
	return "invoicedesk"
}

// StatusClass maps an HTTP status to "2xx".."5xx"; zero means the request never completed.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "error"
	}
	return fmt.Sprintf("%dxx", status/100)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":     {},
	"route_group":  {},
	"status_class": {},
	"operation":    {},
	"result":       {},
	"backend":      {},
	"format":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
// Realm ids and session ids are deliberately absent from the allow list.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
