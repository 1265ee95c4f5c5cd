// Package net exposes the game over HTTP and websocket. All game mutations go
// through the game facade; handlers only translate between the wire format
// and facade calls.
package net

import (
	"encoding/json"
	"errors"
	"log"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"lost-and-found/server/internal/game"
	"lost-and-found/server/internal/records"
	"lost-and-found/server/internal/session"
	"lost-and-found/server/internal/world"
)

const (
	codeInvalidMethod   = "invalidMethod"
	codeInvalidToken    = "invalidToken"
	codeUnknownToken    = "unknownToken"
	codeInvalidArgument = "invalidArgument"
	codeMapNotFound     = "mapNotFound"
	codeBadRequest      = "badRequest"
)

// maxRecordsPage caps the maxItems query parameter of the records endpoint.
const maxRecordsPage = 100

type HTTPHandlerConfig struct {
	// Records serves the leaderboard endpoint and must be set.
	Records records.Store
	// Stream handles /ws when set.
	Stream *Stream
	// AllowTick exposes the manual tick endpoint. Leave false when the
	// server runs its own ticker.
	AllowTick bool
	Logger    *log.Logger
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type joinRequest struct {
	UserName string `json:"userName"`
	MapID    string `json:"mapId"`
}

type joinResponse struct {
	AuthToken string `json:"authToken"`
	PlayerID  uint64 `json:"playerId"`
}

type actionRequest struct {
	Move *string `json:"move"`
}

type tickRequest struct {
	TimeDelta *int64 `json:"timeDelta"`
}

type playerEntry struct {
	Name string `json:"name"`
}

type bagEntry struct {
	ID   uint64 `json:"id"`
	Type int    `json:"type"`
}

type dogEntry struct {
	Pos   [2]float64 `json:"pos"`
	Speed [2]float64 `json:"speed"`
	Dir   string     `json:"dir"`
	Bag   []bagEntry `json:"bag"`
	Score int        `json:"score"`
}

type lootEntry struct {
	Type int        `json:"type"`
	Pos  [2]float64 `json:"pos"`
}

type stateResponse struct {
	Players     map[string]dogEntry  `json:"players"`
	LostObjects map[string]lootEntry `json:"lostObjects"`
}

type mapListEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type recordEntry struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	PlayTime float64 `json:"playTime"`
}

// NewHTTPHandler wires the REST API and the websocket stream over g.
func NewHTTPHandler(g *game.Game, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		diag := g.Diagnostics()
		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Tick       uint64 `json:"tick"`
			Players    int    `json:"players"`
			Maps       int    `json:"maps"`
			Loot       int    `json:"loot"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Tick:       diag.Tick,
			Players:    diag.Players,
			Maps:       diag.Maps,
			Loot:       diag.Loot,
		}
		writeJSON(w, nethttp.StatusOK, payload)
	})

	mux.HandleFunc("/api/v1/maps", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !allowMethods(w, r, nethttp.MethodGet, nethttp.MethodHead) {
			return
		}
		maps := g.World().Maps()
		out := make([]mapListEntry, 0, len(maps))
		for _, m := range maps {
			out = append(out, mapListEntry{ID: string(m.ID()), Name: m.Name()})
		}
		writeJSON(w, nethttp.StatusOK, out)
	})

	mux.HandleFunc("/api/v1/maps/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !allowMethods(w, r, nethttp.MethodGet, nethttp.MethodHead) {
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/maps/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, nethttp.StatusBadRequest, codeBadRequest, "Invalid endpoint")
			return
		}
		m := g.World().FindMap(world.MapID(id))
		if m == nil {
			writeError(w, nethttp.StatusNotFound, codeMapNotFound, "Map not found")
			return
		}
		writeJSON(w, nethttp.StatusOK, m.Document())
	})

	mux.HandleFunc("/api/v1/game/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !allowMethods(w, r, nethttp.MethodPost) {
			return
		}
		var req joinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, nethttp.StatusBadRequest, codeInvalidArgument, "Join game request parse error")
			return
		}
		res, err := g.Join(req.UserName, world.MapID(req.MapID))
		switch {
		case errors.Is(err, game.ErrEmptyName):
			writeError(w, nethttp.StatusBadRequest, codeInvalidArgument, "Invalid name")
		case errors.Is(err, world.ErrUnknownMap):
			writeError(w, nethttp.StatusNotFound, codeMapNotFound, "Map not found")
		case err != nil:
			logger.Printf("join failed: %v", err)
			writeError(w, nethttp.StatusInternalServerError, codeBadRequest, "Join failed")
		default:
			writeJSON(w, nethttp.StatusOK, joinResponse{
				AuthToken: string(res.Token),
				PlayerID:  uint64(res.PlayerID),
			})
		}
	})

	mux.HandleFunc("/api/v1/game/players", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !allowMethods(w, r, nethttp.MethodGet, nethttp.MethodHead) {
			return
		}
		token, ok := bearerToken(w, r)
		if !ok {
			return
		}
		players, err := g.Players(token)
		if err != nil {
			writeError(w, nethttp.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
			return
		}
		out := make(map[string]playerEntry, len(players))
		for _, p := range players {
			out[strconv.FormatUint(uint64(p.ID), 10)] = playerEntry{Name: p.Name}
		}
		writeJSON(w, nethttp.StatusOK, out)
	})

	mux.HandleFunc("/api/v1/game/state", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !allowMethods(w, r, nethttp.MethodGet, nethttp.MethodHead) {
			return
		}
		token, ok := bearerToken(w, r)
		if !ok {
			return
		}
		snap, err := g.State(token)
		if err != nil {
			writeError(w, nethttp.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
			return
		}
		writeJSON(w, nethttp.StatusOK, stateWire(snap))
	})

	mux.HandleFunc("/api/v1/game/player/action", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !allowMethods(w, r, nethttp.MethodPost) {
			return
		}
		token, ok := bearerToken(w, r)
		if !ok {
			return
		}
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Move == nil {
			writeError(w, nethttp.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
			return
		}
		switch err := g.SetAction(token, *req.Move); {
		case errors.Is(err, game.ErrUnknownToken):
			writeError(w, nethttp.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
		case errors.Is(err, game.ErrInvalidMove):
			writeError(w, nethttp.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
		default:
			writeJSON(w, nethttp.StatusOK, struct{}{})
		}
	})

	mux.HandleFunc("/api/v1/game/tick", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !cfg.AllowTick {
			writeError(w, nethttp.StatusBadRequest, codeBadRequest, "Invalid endpoint")
			return
		}
		if !allowMethods(w, r, nethttp.MethodPost) {
			return
		}
		var req tickRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TimeDelta == nil || *req.TimeDelta <= 0 {
			writeError(w, nethttp.StatusBadRequest, codeInvalidArgument, "Failed to parse tick request JSON")
			return
		}
		if err := g.Tick(time.Duration(*req.TimeDelta) * time.Millisecond); err != nil {
			logger.Printf("tick failed: %v", err)
			writeError(w, nethttp.StatusInternalServerError, codeBadRequest, "Tick failed")
			return
		}
		if cfg.Stream != nil {
			cfg.Stream.Broadcast()
		}
		writeJSON(w, nethttp.StatusOK, struct{}{})
	})

	mux.HandleFunc("/api/v1/game/records", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !allowMethods(w, r, nethttp.MethodGet, nethttp.MethodHead) {
			return
		}
		start, limit, ok := recordsPage(w, r)
		if !ok {
			return
		}
		rows, err := cfg.Records.List(r.Context(), start, limit)
		if err != nil {
			logger.Printf("records query failed: %v", err)
			writeError(w, nethttp.StatusInternalServerError, codeBadRequest, "Records unavailable")
			return
		}
		out := make([]recordEntry, 0, len(rows))
		for _, rec := range rows {
			out = append(out, recordEntry{Name: rec.Name, Score: rec.Score, PlayTime: rec.PlayTime})
		}
		writeJSON(w, nethttp.StatusOK, out)
	})

	mux.HandleFunc("/api/v1/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeError(w, nethttp.StatusBadRequest, codeBadRequest, "Invalid endpoint")
	})

	if cfg.Stream != nil {
		mux.HandleFunc("/ws", cfg.Stream.HandleWS)
	}

	return mux
}

// bearerToken extracts and validates the Authorization header. It writes the
// 401 response itself so handlers can simply return.
func bearerToken(w nethttp.ResponseWriter, r *nethttp.Request) (session.Token, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		writeError(w, nethttp.StatusUnauthorized, codeInvalidToken, "Authorization header is missing")
		return "", false
	}
	token := header[len(prefix):]
	if !session.ValidTokenFormat(token) {
		writeError(w, nethttp.StatusUnauthorized, codeInvalidToken, "Invalid token")
		return "", false
	}
	return session.Token(token), true
}

func recordsPage(w nethttp.ResponseWriter, r *nethttp.Request) (start, limit int, ok bool) {
	start, limit = 0, maxRecordsPage
	query := r.URL.Query()
	if raw := query.Get("start"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, nethttp.StatusBadRequest, codeInvalidArgument, "Invalid start parameter")
			return 0, 0, false
		}
		start = v
	}
	if raw := query.Get("maxItems"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxRecordsPage {
			writeError(w, nethttp.StatusBadRequest, codeInvalidArgument, "Invalid maxItems parameter")
			return 0, 0, false
		}
		limit = v
	}
	return start, limit, true
}

func stateWire(snap game.StateSnapshot) stateResponse {
	players := make(map[string]dogEntry, len(snap.Players))
	for _, dog := range snap.Players {
		bag := make([]bagEntry, 0, len(dog.Bag))
		for _, item := range dog.Bag {
			bag = append(bag, bagEntry{ID: uint64(item.ID), Type: item.Type})
		}
		players[strconv.FormatUint(uint64(dog.PlayerID), 10)] = dogEntry{
			Pos:   [2]float64{dog.Pos.X, dog.Pos.Y},
			Speed: [2]float64{dog.Velocity.X, dog.Velocity.Y},
			Dir:   string(dog.Direction),
			Bag:   bag,
			Score: dog.Score,
		}
	}
	loot := make(map[string]lootEntry, len(snap.Loot))
	for _, item := range snap.Loot {
		loot[strconv.FormatUint(uint64(item.ID), 10)] = lootEntry{
			Type: item.Type,
			Pos:  [2]float64{item.Pos.X, item.Pos.Y},
		}
	}
	return stateResponse{Players: players, LostObjects: loot}
}

func allowMethods(w nethttp.ResponseWriter, r *nethttp.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, nethttp.StatusMethodNotAllowed, codeInvalidMethod, "Invalid method")
	return false
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w nethttp.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
