package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider registers a Prometheus-backed MeterProvider and returns the
// /metrics handler together with its shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// ShopMetrics are the business counters of the commerce flow.
type ShopMetrics struct {
	CheckoutSessions  metric.Int64Counter
	CheckoutFailures  metric.Int64Counter
	OrdersPlaced      metric.Int64Counter
	OrphanedOrders    metric.Int64Counter
	InvoicesGenerated metric.Int64Counter
	InvoiceSinkErrors metric.Int64Counter
}

// NewShopMetrics creates the counters on the global MeterProvider. Without an
// installed provider the counters are no-ops.
func NewShopMetrics() (*ShopMetrics, error) {
	meter := otel.Meter("storefront/shop")

	var (
		m   ShopMetrics
		err error
	)

	if m.CheckoutSessions, err = meter.Int64Counter("shop.checkout.sessions",
		metric.WithDescription("Payment sessions created")); err != nil {
		return nil, err
	}
	if m.CheckoutFailures, err = meter.Int64Counter("shop.checkout.failures",
		metric.WithDescription("Payment session requests rejected or failed")); err != nil {
		return nil, err
	}
	if m.OrdersPlaced, err = meter.Int64Counter("shop.orders.placed",
		metric.WithDescription("Orders persisted at checkout success")); err != nil {
		return nil, err
	}
	if m.OrphanedOrders, err = meter.Int64Counter("shop.orders.orphaned",
		metric.WithDescription("Orders persisted whose cart could not be cleared")); err != nil {
		return nil, err
	}
	if m.InvoicesGenerated, err = meter.Int64Counter("shop.invoices.generated",
		metric.WithDescription("Invoices streamed to a requester")); err != nil {
		return nil, err
	}
	if m.InvoiceSinkErrors, err = meter.Int64Counter("shop.invoices.file_errors",
		metric.WithDescription("Invoice files that could not be written")); err != nil {
		return nil, err
	}

	return &m, nil
}
