package net

import (
	"encoding/json"
	"errors"
	"log"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lost-and-found/server/internal/game"
	"lost-and-found/server/internal/session"
)

// writeWait bounds how long a state push may block on a slow client.
const writeWait = 5 * time.Second

type clientMessage struct {
	Type string `json:"type"`
	Move string `json:"move"`
}

type stateMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	stateResponse
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (sub *subscriber) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sub.conn.WriteMessage(websocket.TextMessage, data)
}

// Stream pushes a state snapshot to every connected client after each tick.
// Clients may also send action messages over the socket; they apply exactly
// like the REST action endpoint.
type Stream struct {
	game     *game.Game
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[session.Token]*subscriber
}

// NewStream builds a stream over g. logger may be nil.
func NewStream(g *game.Game, logger *log.Logger) *Stream {
	if logger == nil {
		logger = log.Default()
	}
	return &Stream{
		game:   g,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*nethttp.Request) bool { return true },
		},
		subs: make(map[session.Token]*subscriber),
	}
}

// HandleWS upgrades the connection for an authorized player and sends the
// first state snapshot straight away. The token travels in the authToken
// query parameter because browsers cannot set headers on websocket dials.
func (s *Stream) HandleWS(w nethttp.ResponseWriter, r *nethttp.Request) {
	raw := r.URL.Query().Get("authToken")
	if !session.ValidTokenFormat(raw) {
		writeError(w, nethttp.StatusUnauthorized, codeInvalidToken, "Invalid token")
		return
	}
	token := session.Token(raw)
	snap, err := s.game.State(token)
	if err != nil {
		writeError(w, nethttp.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade failed: %v", err)
		return
	}

	sub := s.register(token, conn)
	if err := sub.send(stateMessage{Type: "state", ServerTime: time.Now().UnixMilli(), stateResponse: stateWire(snap)}); err != nil {
		s.drop(token, sub)
		return
	}
	s.readLoop(token, sub)
}

// Broadcast sends every subscriber a fresh snapshot of their map. Players
// that retired since the last broadcast are disconnected.
func (s *Stream) Broadcast() {
	s.mu.Lock()
	subs := make(map[session.Token]*subscriber, len(s.subs))
	for token, sub := range s.subs {
		subs[token] = sub
	}
	s.mu.Unlock()

	now := time.Now().UnixMilli()
	for token, sub := range subs {
		snap, err := s.game.State(token)
		if err != nil {
			s.drop(token, sub)
			continue
		}
		msg := stateMessage{Type: "state", ServerTime: now, stateResponse: stateWire(snap)}
		if err := sub.send(msg); err != nil {
			s.logger.Printf("failed to push state: %v", err)
			s.drop(token, sub)
		}
	}
}

// CloseAll disconnects every subscriber. Used on shutdown.
func (s *Stream) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sub := range s.subs {
		sub.conn.Close()
		delete(s.subs, token)
	}
}

func (s *Stream) register(token session.Token, conn *websocket.Conn) *subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.subs[token]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	s.subs[token] = sub
	return sub
}

func (s *Stream) drop(token session.Token, sub *subscriber) {
	s.mu.Lock()
	if current, ok := s.subs[token]; ok && current == sub {
		delete(s.subs, token)
	}
	s.mu.Unlock()
	sub.conn.Close()
}

func (s *Stream) readLoop(token session.Token, sub *subscriber) {
	defer s.drop(token, sub)
	for {
		_, payload, err := sub.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Printf("discarding malformed websocket message: %v", err)
			continue
		}
		switch msg.Type {
		case "action":
			if err := s.game.SetAction(token, msg.Move); err != nil {
				if errors.Is(err, game.ErrUnknownToken) {
					return
				}
				s.logger.Printf("websocket action rejected: %v", err)
			}
		}
	}
}
