package api

import (
	"log/slog"
	"net/http"

	"arena/internal/debugview"
	"arena/internal/game"
	"arena/internal/game/ability"
	"arena/internal/game/chain"
	"arena/internal/game/eventlog"
	"arena/internal/game/spatial"
	"arena/internal/game/summon"
	"arena/internal/input"
	"arena/internal/sandbox"
	"arena/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"
)

// EngineInterface is the read side of the combat engine used by the API.
// Keep this minimal so tests can stub it without a running tick loop.
type EngineInterface interface {
	// Snapshot returns the latest published tick.
	Snapshot() *game.Snapshot
	Abilities() []ability.Definition
	SummonTypes() []summon.Type
	Meter() *game.DamageMeter
	ChainStats() chain.Stats
	GridStats() spatial.GridStats
	EventLogStats() eventlog.Stats
	RecentEvents(n int) []eventlog.Event
}

// CommandSink accepts control commands for the next tick.
type CommandSink interface {
	Submit(cmd input.Command) error
	Stats() input.QueueStats
}

// WorldInterface reports scene layer progress. Optional.
type WorldInterface interface {
	Stats() sandbox.Stats
}

// RouterConfig contains the dependencies of the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Engine:   engine,
//	    Commands: queue,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000,
//	        Burst:             1000,
//	    },
//	    DisableLogging: true,
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the combat engine (required).
	Engine EngineInterface

	// Commands receives POST /api/command. Nil answers 503.
	Commands CommandSink

	// World adds wave progress to /api/stats when set.
	World WorldInterface

	// Minimap renders /api/minimap.png. Nil uses the default arena bounds.
	Minimap *debugview.Renderer

	// RateLimiter is an optional pre-configured limiter. If nil, one is
	// created from RateLimitConfig, or DefaultRateLimitConfig.
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// CORSOrigins lists allowed origins. Nil allows localhost on any port.
	CORSOrigins []string

	// Tracer traces command submission. Nil uses the global provider.
	Tracer trace.Tracer

	Logger *slog.Logger

	// DisableLogging drops the request logger middleware.
	DisableLogging bool
}

// routerHandlers holds the handler dependencies.
type routerHandlers struct {
	engine   EngineInterface
	commands CommandSink
	world    WorldInterface
	minimap  *debugview.Renderer
	limiter  *IPRateLimiter
	tracer   trace.Tracer
	log      *slog.Logger
}

// DefaultCORSOrigins allow a local dashboard on any port.
var DefaultCORSOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: NewRouter has no side effects beyond the rate limiter's
// cleanup goroutine: no listeners are opened and no broadcast loops start.
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - order matters
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultCORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Traceparent"},
		MaxAge:         300,
	}))

	h := &routerHandlers{
		engine:   cfg.Engine,
		commands: cfg.Commands,
		world:    cfg.World,
		minimap:  cfg.Minimap,
		limiter:  rateLimiter,
		tracer:   cfg.Tracer,
		log:      cfg.Logger,
	}
	if h.minimap == nil {
		h.minimap = debugview.NewRenderer(game.DefaultConfig().Bounds, debugview.DefaultSize)
	}
	if h.tracer == nil {
		h.tracer = telemetry.Tracer("api")
	}
	if h.log == nil {
		h.log = slog.Default()
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Combat state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/minimap.png", h.handleMinimap)

		// Catalog
		r.Get("/abilities", h.handleGetAbilities)
		r.Get("/summons", h.handleGetSummons)

		// Combat analysis
		r.Get("/meter", h.handleGetMeter)
		r.Get("/chain", h.handleGetChain)
		r.Get("/events", h.handleGetEvents)

		// Control
		r.Post("/command", h.handlePostCommand)
	})

	return r
}
