package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arena/internal/game"
	"arena/internal/game/ability"
	"arena/internal/game/world"
	"arena/internal/input"
	"arena/internal/netsync"
	"arena/internal/telemetry"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine *game.Engine
	queue  *input.Queue
	router http.Handler
}

func newFixture(t *testing.T, queueCfg input.QueueConfig) *fixture {
	t.Helper()
	src := &world.StaticSource{List: []world.Enemy{
		{ID: "e1", Position: world.V(4, 0), Health: 300, MaxHealth: 300},
		{ID: "boss_1", Position: world.V(-6, 2), Health: 2500, MaxHealth: 2500, IsBoss: true},
	}}
	e, err := game.NewEngine(game.DefaultConfig(), src, nil)
	require.NoError(t, err)
	q := input.NewQueue(queueCfg, nil)
	e.SetInput(q)
	e.Tick(0)

	limiter := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000})
	t.Cleanup(limiter.Stop)

	return &fixture{
		engine: e,
		queue:  q,
		router: NewRouter(RouterConfig{
			Engine:         e,
			Commands:       q,
			RateLimiter:    limiter,
			Tracer:         telemetry.NoopTracer(),
			DisableLogging: true,
		}),
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestGetState(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	rec := f.do(t, "GET", "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap struct {
		Caster  game.CasterSnapshot `json:"caster"`
		Enemies []world.Enemy       `json:"enemies"`
		Alive   int                 `json:"aliveCount"`
	}
	decode(t, rec, &snap)
	assert.Equal(t, "hero", snap.Caster.ID)
	assert.Len(t, snap.Enemies, 2)
	assert.Equal(t, 2, snap.Alive)
}

func TestGetAbilitiesSortedWithState(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	rec := f.do(t, "GET", "/api/abilities", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []struct {
		ID    string         `json:"id"`
		Kind  ability.Kind   `json:"kind"`
		State *ability.State `json:"state"`
	}
	decode(t, rec, &views)
	require.Len(t, views, len(ability.DefaultCatalog()))
	for i := 1; i < len(views); i++ {
		assert.Less(t, views[i-1].ID, views[i].ID)
	}
	for _, v := range views {
		require.NotNil(t, v.State, v.ID)
		assert.Equal(t, v.ID, v.State.ID)
		assert.Equal(t, v.State.Size, v.State.Available, v.ID)
	}
}

func TestGetStats(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	rec := f.do(t, "GET", "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats StatsResponse
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.AliveCount)
	require.NotNil(t, stats.Commands)
	assert.Nil(t, stats.World, "no world configured")
	assert.NotZero(t, stats.RateLimit.Allowed)
}

func TestPostCommandQueuesForNextTick(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())

	rec := f.do(t, "POST", "/api/command", `{"action":"move","position":{"x":1,"y":0,"z":2}}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, 1, f.queue.Stats().Pending)

	f.engine.Tick(time.Second / 30)
	assert.Equal(t, world.V(1, 2), f.engine.Caster().Position)
	assert.EqualValues(t, 1, f.queue.Stats().Drained)
}

func TestPostCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"action":`, http.StatusBadRequest},
		{"unknown action", `{"action":"dance"}`, http.StatusBadRequest},
		{"missing ability", `{"action":"cast"}`, http.StatusBadRequest},
		{"unknown field", `{"action":"reset","power":9000}`, http.StatusBadRequest},
		{"too large", `{"action":"reset","target":"` + strings.Repeat("x", input.MaxCommandSize) + `"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, input.DefaultQueueConfig())
			rec := f.do(t, "POST", "/api/command", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Zero(t, f.queue.Stats().Pending)
		})
	}
}

func TestPostCommandRateLimitedPerSource(t *testing.T) {
	cfg := input.DefaultQueueConfig()
	cfg.RateLimit = input.RateLimitConfig{PerSecond: 0.001, Burst: 1}
	f := newFixture(t, cfg)

	body := `{"action":"cast","ability":"frost_nova"}`
	assert.Equal(t, http.StatusAccepted, f.do(t, "POST", "/api/command", body).Code)
	rec := f.do(t, "POST", "/api/command", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestPostCommandQueueFull(t *testing.T) {
	cfg := input.DefaultQueueConfig()
	cfg.BufferSize = 2
	f := newFixture(t, cfg)

	assert.Equal(t, http.StatusAccepted, f.do(t, "POST", "/api/command", `{"action":"reset"}`).Code)
	assert.Equal(t, http.StatusAccepted, f.do(t, "POST", "/api/command", `{"action":"reset"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, "POST", "/api/command", `{"action":"reset"}`).Code)
}

func TestPostCommandWithoutSink(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	router := NewRouter(RouterConfig{Engine: f.engine, DisableLogging: true})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/command", strings.NewReader(`{"action":"reset"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMeterEndpoints(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	m := f.engine.Meter()
	m.Record("hero", 300)
	m.Record("wraith_1", 120)
	m.Record("totem_1", 40)

	var top struct {
		Sources int               `json:"sources"`
		Entries []game.MeterEntry `json:"entries"`
	}
	decode(t, f.do(t, "GET", "/api/meter?top=2", ""), &top)
	assert.Equal(t, 3, top.Sources)
	require.Len(t, top.Entries, 2)
	assert.Equal(t, "hero", top.Entries[0].SourceID)
	assert.Equal(t, "wraith_1", top.Entries[1].SourceID)

	var around struct {
		Rank    int               `json:"rank"`
		Entries []game.MeterEntry `json:"entries"`
	}
	decode(t, f.do(t, "GET", "/api/meter?source=totem_1&above=1&below=0", ""), &around)
	assert.Equal(t, 3, around.Rank)
	require.Len(t, around.Entries, 2)
	assert.Equal(t, 2, around.Entries[0].Rank)

	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/api/meter?source=nobody", "").Code)
}

func TestChainSummonsEventsEndpoints(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	for _, path := range []string{"/api/chain", "/api/summons", "/api/events?limit=5", "/health"} {
		rec := f.do(t, "GET", path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.True(t, json.Valid(rec.Body.Bytes()), path)
	}
}

func TestMinimapPNG(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	rec := f.do(t, "GET", "/api/minimap.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	assert.NoError(t, err)
}

func TestRouterRateLimit(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	limiter := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	defer limiter.Stop()
	router := NewRouter(RouterConfig{Engine: f.engine, RateLimiter: limiter, DisableLogging: true})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.EqualValues(t, 1, limiter.Stats().Rejected)
}

func TestWebSocketStreamsStateAndEffects(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	srv := NewServer(ServerConfig{
		Engine:    f.engine,
		Commands:  f.queue,
		RateLimit: RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		Tracer:    telemetry.NoopTracer(),
	})
	defer srv.Stop()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := srv.Hub()
	go hub.Run(ctx)
	go hub.RunBroadcastLoop(ctx, f.engine, 50)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.True(t, f.engine.StartCharging("longbow"))
	f.engine.Tick(time.Second / 30)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"dance"}`)))

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var sawState, sawEffect, sawError bool
	for !(sawState && sawEffect && sawError) {
		msgType, data, err := conn.ReadMessage()
		require.NoError(t, err)

		if msgType == websocket.BinaryMessage {
			batch, err := netsync.Decode(data)
			require.NoError(t, err)
			require.NotEmpty(t, batch.Effects)
			assert.Equal(t, netsync.KindChargeStart, batch.Effects[0].Kind)
			assert.Equal(t, "longbow", batch.Effects[0].AbilityID)
			sawEffect = true
			continue
		}

		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		switch msg.Event {
		case EventState:
			sawState = true
		case EventCommandError:
			assert.Contains(t, string(msg.Data), "unknown action")
			sawError = true
		}
	}
}

func TestWebSocketCommandReachesQueue(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	srv := NewServer(ServerConfig{Engine: f.engine, Commands: f.queue, Tracer: telemetry.NoopTracer()})
	defer srv.Stop()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub().Run(ctx)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"level","level":4}`)))
	require.Eventually(t, func() bool { return f.queue.Stats().Pending == 1 }, 2*time.Second, 10*time.Millisecond)

	f.engine.Tick(time.Second / 30)
	assert.Equal(t, 4, f.engine.Caster().Level)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	f := newFixture(t, input.DefaultQueueConfig())
	srv := NewServer(ServerConfig{Engine: f.engine, CORSOrigins: []string{"https://arena.example"}})
	defer srv.Stop()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub().Run(ctx)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
