package server

import (
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"connectrpc.com/otelconnect"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/otterscale/otterscale-gateway/internal/handler"
)

// MetricsPath serves the Prometheus scrape endpoint.
const MetricsPath = "/metrics"

type Handler struct {
	proxy *handler.Proxy
}

func NewHandler(proxy *handler.Proxy) *Handler {
	return &Handler{
		proxy: proxy,
	}
}

// Mount registers the operational endpoints and the upstream routes.
func (h *Handler) Mount(mux *http.ServeMux) error {
	otelInterceptor, err := otelconnect.NewInterceptor()
	if err != nil {
		return err
	}

	if err := h.registerOpsHandlers(mux, connect.WithInterceptors(otelInterceptor)); err != nil {
		return err
	}

	return h.proxy.Mount(mux)
}

// registerOpsHandlers sets up Reflection, Health Check, and Metrics.
func (h *Handler) registerOpsHandlers(mux *http.ServeMux, opts ...connect.HandlerOption) error {
	// gRPC Reflection
	reflector := grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName)
	mux.Handle(grpcreflect.NewHandlerV1(reflector, opts...))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector, opts...))

	// gRPC Health Check
	checker := grpchealth.NewStaticChecker()
	mux.Handle(grpchealth.NewHandler(checker, opts...))

	// Prometheus Metrics
	exporter, err := prometheus.New()
	if err != nil {
		return err
	}
	otel.SetMeterProvider(metric.NewMeterProvider(metric.WithReader(exporter)))
	mux.Handle(MetricsPath, promhttp.Handler())

	return nil
}
