package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/userdesk/userdesk/pkg/store"
)

const namespace = "userdesk"

// Registry holds the userdesk collectors. A registry carries either the store
// collectors or the users API collectors; the other set is nil.
type Registry struct {
	reg     *prometheus.Registry
	factory promauto.Factory

	StoreTransitions *prometheus.CounterVec
	StoreDuration    *prometheus.HistogramVec
	StoreUsers       prometheus.Gauge

	APIRequests *prometheus.CounterVec
	APIDuration *prometheus.HistogramVec
	APIUsers    prometheus.Gauge
}

func newRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{reg: reg, factory: promauto.With(reg)}
}

// NewStoreRegistry creates a registry for a client-side store: transition
// counts and durations, the held user count, and the Go runtime and process
// collectors. Use StoreObserver to feed it.
func NewStoreRegistry() *Registry {
	r := newRegistry()
	r.StoreTransitions = r.factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "transitions_total",
		Help:      "Applied store transitions.",
	}, []string{"op", "phase"})
	r.StoreDuration = r.factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Time from pending to settled for store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "phase"})
	r.StoreUsers = r.factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "users",
		Help:      "Users held by the store after the last transition.",
	})
	return r
}

// NewAPIRegistry creates a registry for the users API: request counts and
// latency by route, the held user count, and the Go runtime and process
// collectors. Use Middleware to feed it.
func NewAPIRegistry() *Registry {
	r := newRegistry()
	r.APIRequests = r.factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Requests served by the users API.",
	}, []string{"method", "route", "status"})
	r.APIDuration = r.factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Users API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	r.APIUsers = r.factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "users",
		Help:      "Users held by the users API.",
	})
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// StoreObserver returns a store.Observer that records transitions.
// r must come from NewStoreRegistry.
func (r *Registry) StoreObserver() store.Observer {
	return storeObserver{r}
}

type storeObserver struct {
	r *Registry
}

func (o storeObserver) OnTransition(t store.Transition) {
	op, phase := string(t.Op), string(t.Phase)
	o.r.StoreTransitions.WithLabelValues(op, phase).Inc()
	o.r.StoreUsers.Set(float64(t.Users))
	if t.Phase != store.PhasePending {
		o.r.StoreDuration.WithLabelValues(op, phase).Observe(t.Duration.Seconds())
	}
}

// Middleware records request counts and latency by chi route pattern.
// r must come from NewAPIRegistry.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.APIRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		r.APIDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}
