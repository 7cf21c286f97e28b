package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// API metrics. Labels are bounded: route patterns, never raw paths or
// client addresses.
var (
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_connection_rejected_total",
		Help: "Requests and connections rejected by limits or origin checks",
	}, []string{"reason"}) // rate_limit, origin, ws_total_limit, ws_ip_limit

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arena_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_websocket_connections_active",
		Help: "Currently open WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_websocket_messages_total",
		Help: "WebSocket frames broadcast",
	}, []string{"kind"}) // state, effects

	commandsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_commands_submitted_total",
		Help: "Control commands received over HTTP or WebSocket",
	}, []string{"transport", "result"}) // accepted, invalid, rate_limited, queue_full
)

// RecordConnectionRejected increments the rejection counter.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, route string, status int, d time.Duration) {
	requestLatency.WithLabelValues(method, route).Observe(d.Seconds())
	requestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// metricsMiddleware records latency per chi route pattern. Unmatched paths
// share one label.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, route, status, time.Since(start))
	})
}

// DebugConfig configures the internal observability server.
type DebugConfig struct {
	Enabled    bool
	ListenAddr string // pprof exposes internals; keep it on loopback
}

// DebugHandler serves pprof, Prometheus metrics and a health check.
func DebugHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// RunDebugServer serves DebugHandler until ctx is done. Non-loopback
// addresses are rebound to 127.0.0.1 on the same port.
func RunDebugServer(ctx context.Context, cfg DebugConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled {
		logger.Info("📊 debug server disabled")
		return nil
	}

	addr := loopbackOnly(cfg.ListenAddr)
	if addr != cfg.ListenAddr {
		logger.Warn("⚠️ debug server forced to localhost", "requested", cfg.ListenAddr, "addr", addr)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           DebugHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("📊 debug server starting", "addr", addr,
		"pprof", "http://"+addr+"/debug/pprof/", "metrics", "http://"+addr+"/metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loopbackOnly(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "127.0.0.1:6060"
	}
	if host == "localhost" {
		return addr
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return addr
	}
	return net.JoinHostPort("127.0.0.1", port)
}
