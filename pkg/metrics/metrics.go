package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests       *prometheus.CounterVec
	LatencyMS      *prometheus.HistogramVec
	OrdersPlaced   prometheus.Counter
	OrdersRejected *prometheus.CounterVec
	BreakerState   *prometheus.GaugeVec
}

func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: service,
		Name:      "orders_placed_total",
		Help:      "Orders placed successfully.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: service,
		Name:      "orders_rejected_total",
		Help:      "Order placements rejected, by reason.",
	}, []string{"reason"})
	breakerState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: service,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	}, []string{"name"})

	prometheus.MustRegister(requests, latency, placed, rejected, breakerState)
	return &ServerMetrics{
		Requests:       requests,
		LatencyMS:      latency,
		OrdersPlaced:   placed,
		OrdersRejected: rejected,
		BreakerState:   breakerState,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
