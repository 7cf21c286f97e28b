package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"arena/internal/game"
	"arena/internal/game/ability"
	"arena/internal/game/chain"
	"arena/internal/game/eventlog"
	"arena/internal/game/spatial"
	"arena/internal/input"
	"arena/internal/sandbox"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMeterTop    = 10
	maxMeterEntries    = 100
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Snapshot())
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Tick        uint64            `json:"tick"`
	GameTimeMs  int64             `json:"gameTimeMs"`
	AliveCount  int               `json:"aliveCount"`
	TotalKills  int               `json:"totalKills"`
	TotalDamage int64             `json:"totalDamage"`
	Projectiles int               `json:"projectiles"`
	Summons     int               `json:"summons"`
	Chain       chain.Stats       `json:"chain"`
	Grid        spatial.GridStats `json:"grid"`
	EventLog    eventlog.Stats    `json:"eventLog"`
	Commands    *input.QueueStats `json:"commands,omitempty"`
	World       *sandbox.Stats    `json:"world,omitempty"`
	RateLimit   RateLimitStats    `json:"rateLimit"`
	Meter       []game.MeterEntry `json:"meter"`
	Abilities   []ability.State   `json:"abilities"`
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	resp := StatsResponse{
		Tick:        snap.Tick,
		GameTimeMs:  snap.GameTime.Milliseconds(),
		AliveCount:  snap.AliveCount,
		TotalKills:  snap.TotalKills,
		TotalDamage: snap.TotalDamage,
		Projectiles: len(snap.Projectiles),
		Summons:     len(snap.Summons),
		Chain:       h.engine.ChainStats(),
		Grid:        h.engine.GridStats(),
		EventLog:    h.engine.EventLogStats(),
		RateLimit:   h.limiter.Stats(),
		Meter:       h.engine.Meter().Top(3),
		Abilities:   snap.Abilities,
	}
	if h.commands != nil {
		qs := h.commands.Stats()
		resp.Commands = &qs
	}
	if h.world != nil {
		ws := h.world.Stats()
		resp.World = &ws
	}
	writeJSON(w, resp)
}

// AbilityView pairs a definition with its live resource state.
type AbilityView struct {
	ability.Definition
	State *ability.State `json:"state,omitempty"`
}

func (h *routerHandlers) handleGetAbilities(w http.ResponseWriter, r *http.Request) {
	states := make(map[string]ability.State)
	for _, st := range h.engine.Snapshot().Abilities {
		states[st.ID] = st
	}
	defs := h.engine.Abilities()
	out := make([]AbilityView, 0, len(defs))
	for _, d := range defs {
		v := AbilityView{Definition: d}
		if st, ok := states[d.ID]; ok {
			v.State = &st
		}
		out = append(out, v)
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleGetSummons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"types":  h.engine.SummonTypes(),
		"active": h.engine.Snapshot().Summons,
	})
}

// handleGetMeter returns the top sources, or with ?source= the entries
// around that source.
func (h *routerHandlers) handleGetMeter(w http.ResponseWriter, r *http.Request) {
	meter := h.engine.Meter()
	q := r.URL.Query()

	if src := q.Get("source"); src != "" {
		above := queryInt(q.Get("above"), 2, 0, maxMeterEntries)
		below := queryInt(q.Get("below"), 2, 0, maxMeterEntries)
		entries := meter.Around(src, above, below)
		if len(entries) == 0 {
			writeError(w, "unknown source", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{
			"source":  src,
			"rank":    meter.Rank(src),
			"entries": entries,
		})
		return
	}

	n := queryInt(q.Get("top"), defaultMeterTop, 1, maxMeterEntries)
	writeJSON(w, map[string]any{
		"sources": meter.Len(),
		"entries": meter.Top(n),
	})
}

func (h *routerHandlers) handleGetChain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"stats":   h.engine.ChainStats(),
		"targets": h.engine.Snapshot().ChainTargets,
	})
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r.URL.Query().Get("limit"), defaultEventsLimit, 1, maxEventsLimit)
	writeJSON(w, map[string]any{
		"stats":  h.engine.EventLogStats(),
		"events": h.engine.RecentEvents(n),
	})
}

func (h *routerHandlers) handleMinimap(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.minimap.WritePNG(&buf, h.engine.Snapshot()); err != nil {
		h.log.Error("minimap render failed", "error", err)
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handlePostCommand(w http.ResponseWriter, r *http.Request) {
	if h.commands == nil {
		writeError(w, "commands disabled", http.StatusServiceUnavailable)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, input.MaxCommandSize+1))
	if err != nil {
		writeError(w, "read body", http.StatusBadRequest)
		return
	}

	cmd, status, err := submitCommand(r.Context(), h.tracer, h.commands, "http", GetClientIP(r), body)
	if err != nil {
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "1")
		}
		writeError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"accepted": true,
		"action":   cmd.Action,
		"ability":  cmd.AbilityID,
	})
}

// submitCommand parses data from source and queues it. The returned
// status is the HTTP code for the outcome.
func submitCommand(ctx context.Context, tracer trace.Tracer, sink CommandSink, transport, source string, data []byte) (input.Command, int, error) {
	_, span := tracer.Start(ctx, "command.submit",
		trace.WithAttributes(attribute.String("transport", transport)))
	defer span.End()

	cmd, err := input.Parse(source, data)
	if err != nil {
		commandsSubmitted.WithLabelValues(transport, "invalid").Inc()
		span.SetStatus(codes.Error, err.Error())
		return input.Command{}, http.StatusBadRequest, err
	}
	span.SetAttributes(
		attribute.String("action", string(cmd.Action)),
		attribute.String("ability", cmd.AbilityID),
	)
	cmd.ReceivedAt = time.Now()

	if err := sink.Submit(cmd); err != nil {
		status := http.StatusBadRequest
		result := "invalid"
		switch {
		case errors.Is(err, input.ErrRateLimited):
			status, result = http.StatusTooManyRequests, "rate_limited"
		case errors.Is(err, input.ErrQueueFull):
			status, result = http.StatusServiceUnavailable, "queue_full"
		}
		commandsSubmitted.WithLabelValues(transport, result).Inc()
		span.SetStatus(codes.Error, err.Error())
		return cmd, status, err
	}
	commandsSubmitted.WithLabelValues(transport, "accepted").Inc()
	return cmd, http.StatusAccepted, nil
}

func queryInt(s string, def, lo, hi int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return max(lo, min(hi, n))
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
