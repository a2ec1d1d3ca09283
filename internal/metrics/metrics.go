package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	service string

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	verifications *prometheus.CounterVec
	redemptions   prometheus.Counter
	codesIssued   prometheus.Counter
	rewardGrants  *prometheus.CounterVec
}

func New(reg prometheus.Registerer, service string) *Metrics {
	m := &Metrics{
		service: service,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pickup_verifications_total",
			Help: "Pickup code verification attempts by outcome",
		}, []string{"outcome"}),
		redemptions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pickup_redemptions_total",
			Help: "Pickup orders completed by merchant confirmation",
		}),
		codesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pickup_codes_issued_total",
			Help: "Pickup codes generated for new or regenerated orders",
		}),
		rewardGrants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "merchant_reward_grants_total",
			Help: "Milestone rewards granted to merchants by reward type",
		}, []string{"reward_type"}),
	}
	reg.MustRegister(m.requests, m.duration, m.verifications, m.redemptions, m.codesIssued, m.rewardGrants)
	return m
}

func (m *Metrics) Verification(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Redeemed() {
	if m == nil {
		return
	}
	m.redemptions.Inc()
}

func (m *Metrics) CodeIssued() {
	if m == nil {
		return
	}
	m.codesIssued.Inc()
}

func (m *Metrics) RewardGranted(rewardType string) {
	if m == nil {
		return
	}
	m.rewardGrants.WithLabelValues(rewardType).Inc()
}

// Middleware records request counts and latency labelled by the matched chi
// route pattern, which keeps label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(m.service, r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(m.service, r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
