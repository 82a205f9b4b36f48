package telemetry

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interceptor_decisions_total",
			Help: "Interception decisions by outcome and reason",
		},
		[]string{"decision", "reason"},
	)
	editCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interceptor_edit_commands_total",
			Help: "Edit commands processed by command and outcome",
		},
		[]string{"command", "outcome"},
	)
	activeSessions = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "interceptor_edit_sessions_active",
			Help: "Number of edit sessions whose lease has not elapsed",
		},
		func() float64 {
			if fn := sessionSource.Load(); fn != nil {
				return float64((*fn)())
			}
			return 0
		},
	)

	sessionSource atomic.Pointer[func() int]
	initOnce      sync.Once
)

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpReqs, httpDur, decisions, editCommands, activeSessions)
	})
}

// RecordDecision counts one interception decision.
func RecordDecision(allowed bool, reason string) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	decisions.WithLabelValues(decision, reason).Inc()
}

// RecordEditCommand counts one processed edit or console command.
func RecordEditCommand(command, outcome string) {
	editCommands.WithLabelValues(command, outcome).Inc()
}

// SetActiveSessionsSource installs the function sampled by the active
// sessions gauge.
func SetActiveSessionsSource(fn func() int) {
	if fn == nil {
		sessionSource.Store(nil)
		return
	}
	sessionSource.Store(&fn)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		// route pattern is only resolved once chi has routed the request
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
