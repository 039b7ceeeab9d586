package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mayssameid/Clash-of-Digits/internal/app"
	"github.com/mayssameid/Clash-of-Digits/internal/arena"
	"github.com/mayssameid/Clash-of-Digits/internal/domain"
	"go.uber.org/zap"
)

const closeWriteWait = time.Second

type WSHandler struct {
	service  *app.ArenaService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(service *app.ArenaService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Choice int `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type arenaPayload struct {
	ArenaID    string            `json:"arenaId"`
	Player1    string            `json:"player1"`
	Player2    string            `json:"player2"`
	Mode       domain.GameMode   `json:"mode"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Total      int               `json:"totalQuestions"`
	SessionID  int64             `json:"sessionId,omitempty"`
	Saving     bool              `json:"saving"`
}

// outbox serializes writes to one connection. Messages emitted after close are dropped.
type outbox struct {
	send   chan outboundMessage[any]
	closed chan struct{}
}

func newOutbox() *outbox {
	return &outbox{send: make(chan outboundMessage[any], 32), closed: make(chan struct{})}
}

func (o *outbox) emit(typ string, payload any) {
	select {
	case o.send <- outboundMessage[any]{Type: typ, Payload: payload}:
	case <-o.closed:
	}
}

// run writes until close is signalled, then flushes what is already queued.
func (o *outbox) run(conn *websocket.Conn, log *zap.Logger) {
	for {
		select {
		case msg := <-o.send:
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		case <-o.closed:
			for {
				select {
				case msg := <-o.send:
					if err := conn.WriteJSON(msg); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// wsRenderer pushes arena events to the client as typed envelopes.
type wsRenderer struct {
	out *outbox
}

func (r wsRenderer) Question(v arena.QuestionView) { r.out.emit("question", v) }
func (r wsRenderer) Tick(t arena.Tick)             { r.out.emit("tick", t) }
func (r wsRenderer) Reveal(v arena.RevealView)     { r.out.emit("reveal", v) }
func (r wsRenderer) Feedback(correct bool) {
	r.out.emit("feedback", map[string]bool{"correct": correct})
}
func (r wsRenderer) Next(v arena.NextView)    { r.out.emit("next", v) }
func (r wsRenderer) Summary(s arena.Summary) { r.out.emit("summary", s) }

// ServeArena upgrades the request and plays one arena game over the connection.
//
// Query: player1, player2, mode, difficulty, and either register=true (players
// are registered and a session opened) or player1_id/player2_id/session_id.
func (h *WSHandler) ServeArena(w http.ResponseWriter, r *http.Request) {
	cfg := arenaConfigFromQuery(r)
	saving := true
	if register, _ := strconv.ParseBool(r.URL.Query().Get("register")); register {
		prepared, err := app.PrepareArena(r.Context(), h.service, cfg)
		if err != nil {
			h.log.Warn("arena setup failed, scores will not be saved", zap.Error(err))
			saving = false
		}
		cfg = prepared
	}
	cfg = cfg.Normalize()
	if cfg.SessionID <= 0 || cfg.Player1ID <= 0 {
		saving = false
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	out := newOutbox()
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		out.run(conn, h.log)
	}()

	id, loop := h.service.OpenArena(cfg, wsRenderer{out: out})
	defer h.service.CloseArena(id)
	out.emit("arena", arenaPayload{
		ArenaID:    id,
		Player1:    cfg.Player1,
		Player2:    cfg.Player2,
		Mode:       cfg.Mode,
		Difficulty: cfg.Difficulty,
		Total:      cfg.TotalQuestions,
		SessionID:  cfg.SessionID,
		Saving:     saving,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- loop.Run(ctx) }()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		h.readArenaInput(conn, loop, out)
		cancel()
	}()

	if err := <-runDone; err != nil {
		h.log.Debug("arena ended early", zap.String("arena_id", id), zap.Error(err))
	}

	close(out.closed)
	<-writerDone
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"),
		time.Now().Add(closeWriteWait))
	_ = conn.Close()
	<-readerDone
}

func (h *WSHandler) readArenaInput(conn *websocket.Conn, loop *arena.Loop, out *outbox) {
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				out.emit("error", errorPayload{Message: "invalid select payload"})
				continue
			}
			if err := loop.Select(payload.Choice); err != nil {
				out.emit("error", errorPayload{Message: err.Error()})
			}
		case "advance":
			if err := loop.Advance(); err != nil {
				out.emit("error", errorPayload{Message: err.Error()})
			}
		case "state":
			st, err := loop.Snapshot()
			if err != nil {
				out.emit("error", errorPayload{Message: err.Error()})
				continue
			}
			out.emit("state", st)
		default:
			out.emit("error", errorPayload{Message: "unsupported message type"})
		}
	}
}

// ServeLeaderboard streams leaderboard snapshots whenever a score is recorded.
func (h *WSHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	updates, cancel, err := h.service.SubscribeLeaderboard(r.Context())
	if err != nil {
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case top, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[[]domain.PlayerStats]{Type: "leaderboard", Payload: top}); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}

func arenaConfigFromQuery(r *http.Request) arena.Config {
	q := r.URL.Query()
	parseID := func(key string) int64 {
		id, err := strconv.ParseInt(q.Get(key), 10, 64)
		if err != nil || id < 0 {
			return 0
		}
		return id
	}
	return arena.Config{
		Player1:    q.Get("player1"),
		Player2:    q.Get("player2"),
		Mode:       domain.GameMode(q.Get("mode")),
		Difficulty: domain.Difficulty(q.Get("difficulty")),
		Player1ID:  parseID("player1_id"),
		Player2ID:  parseID("player2_id"),
		SessionID:  parseID("session_id"),
	}
}
