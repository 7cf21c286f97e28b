package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"arena/internal/debugview"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ServerEngine is the engine surface the full server needs: the router's
// read side plus the effect outbox for the broadcast loop.
type ServerEngine interface {
	EngineInterface
	StreamSource
}

// ServerConfig assembles a Server.
type ServerConfig struct {
	Engine       ServerEngine
	Commands     CommandSink
	World        WorldInterface
	Minimap      *debugview.Renderer
	CORSOrigins  []string
	RateLimit    RateLimitConfig
	BroadcastFPS int
	Tracer       trace.Tracer
	Logger       *slog.Logger
}

// Server is the HTTP API with WebSocket streaming.
type Server struct {
	engine      ServerEngine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	fps         int
	log         *slog.Logger
}

// NewServer builds the server.
//
// IMPORTANT: Background workers do NOT start until Start is called, so
// tests can construct the server and use Router without them.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := cfg.CORSOrigins
	if origins == nil {
		origins = DefaultCORSOrigins
	}

	s := &Server{
		engine:      cfg.Engine,
		wsHub:       NewWebSocketHub(NewOriginPolicy(origins), cfg.Commands, cfg.Tracer, logger),
		rateLimiter: NewIPRateLimiter(cfg.RateLimit),
		fps:         cfg.BroadcastFPS,
		log:         logger,
	}
	s.router = NewRouter(RouterConfig{
		Engine:      cfg.Engine,
		Commands:    cfg.Commands,
		World:       cfg.World,
		Minimap:     cfg.Minimap,
		RateLimiter: s.rateLimiter,
		CORSOrigins: origins,
		Tracer:      cfg.Tracer,
		Logger:      logger,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)
	return s
}

// Start runs the hub, the broadcast loop and the HTTP listener until ctx
// is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error { return s.wsHub.Run(ctx) })
	g.Go(func() error { return s.wsHub.RunBroadcastLoop(ctx, s.engine, s.fps) })
	g.Go(func() error {
		s.log.Info("🌐 API server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Stop()
		return err
	})
	return g.Wait()
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop releases background resources not tied to Start's context.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
