package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP, cache and booking instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec

	bookingsCreated       prometheus.Counter
	bookingSessions       prometheus.Counter
	slotsGenerated        prometheus.Counter
	slotGeneration        prometheus.Observer
	paymentProviderErrors *prometheus.CounterVec
	refundJobs            *prometheus.CounterVec
	outboxPublished       prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	bookingsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Trial bookings persisted",
	})

	bookingSessions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "booking_sessions_created_total",
		Help: "Teaching sessions generated by bookings",
	})

	slotsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slots_generated_total",
		Help: "Bookable slots returned by availability queries",
	})

	slotGeneration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "slot_generation_duration_seconds",
		Help:    "Time spent computing a course availability horizon",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
	})

	paymentProviderErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_provider_errors_total",
		Help: "Failed calls to the payment provider",
	}, []string{"operation"})

	refundJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "refund_jobs_total",
		Help: "Refund jobs finished by outcome",
	}, []string{"status"})

	outboxPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events delivered to the broker",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		bookingsCreated, bookingSessions, slotsGenerated, slotGeneration, paymentProviderErrors, refundJobs, outboxPublished, goroutines)

	return &MetricsService{
		registry:              registry,
		handler:               promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:       requestDuration,
		requestTotal:          requestTotal,
		cacheLatency:          cacheLatency,
		cacheWrite:            cacheWrite,
		cacheLookups:          cacheLookups,
		bookingsCreated:       bookingsCreated,
		bookingSessions:       bookingSessions,
		slotsGenerated:        slotsGenerated,
		slotGeneration:        slotGeneration,
		paymentProviderErrors: paymentProviderErrors,
		refundJobs:            refundJobs,
		outboxPublished:       outboxPublished,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request latency and count.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordBooking counts a persisted booking and its sessions.
func (m *MetricsService) RecordBooking(sessions int) {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
	m.bookingSessions.Add(float64(sessions))
}

// RecordSlotGeneration counts slots offered by one availability computation.
func (m *MetricsService) RecordSlotGeneration(slots int, duration time.Duration) {
	if m == nil {
		return
	}
	m.slotsGenerated.Add(float64(slots))
	m.slotGeneration.Observe(duration.Seconds())
}

// RecordPaymentProviderError counts a failed provider call.
func (m *MetricsService) RecordPaymentProviderError(operation string) {
	if m == nil {
		return
	}
	m.paymentProviderErrors.WithLabelValues(operation).Inc()
}

// RecordRefundJob counts a finished refund job by final status.
func (m *MetricsService) RecordRefundJob(status string) {
	if m == nil {
		return
	}
	m.refundJobs.WithLabelValues(status).Inc()
}

// RecordOutboxPublished counts events handed to the broker.
func (m *MetricsService) RecordOutboxPublished(n int) {
	if m == nil {
		return
	}
	m.outboxPublished.Add(float64(n))
}
