package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kingdomapps/concierge/internal/config"
	"github.com/kingdomapps/concierge/internal/memory"
	"github.com/kingdomapps/concierge/internal/observability"
	"github.com/kingdomapps/concierge/internal/protocol"
	"github.com/kingdomapps/concierge/internal/respond"
)

// Server exposes the concierge over HTTP and WebSocket for the chat widget.
type Server struct {
	cfg       config.Config
	store     *memory.Store
	generator *respond.Generator
	metrics   *observability.Metrics
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, store *memory.Store, generator *respond.Generator, metrics *observability.Metrics, log zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		generator: generator,
		metrics:   metrics,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections by default, so a
				// third-party page cannot drive a visitor's chat session.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/session", s.handleCreateSession)
	r.Post("/v1/chat/message", s.handleMessage)
	r.Get("/v1/chat/session/{id}/context", s.handleContext)
	r.Get("/v1/chat/session/{id}/summary", s.handleSummary)
	r.Delete("/v1/chat/session/{id}", s.handleClearSession)
	r.Get("/v1/chat/ws", s.handleWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "backend_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
	Page      string `json:"page"`
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	Page      string    `json:"page"`
	CreatedAt time.Time `json:"created_at"`
	TTLMS     int64     `json:"ttl_ms"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = uuid.NewString()
	}

	created := s.store.Create(r.Context(), req.SessionID, req.Page)
	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: created.SessionID,
		Page:      created.CurrentPage,
		CreatedAt: created.CreatedAt,
		TTLMS:     s.cfg.SessionTTL.Milliseconds(),
	})
}

type messageRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Page      string `json:"page"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session_id is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "missing_text", "text is required")
		return
	}

	reply := s.generator.Reply(r.Context(), req.SessionID, req.Page, req.Text)
	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respondJSON(w, http.StatusOK, s.store.Context(r.Context(), id))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respondJSON(w, http.StatusOK, s.store.Summary(r.Context(), id))
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.Clear(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
		defer s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
	}

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	// Replies are generated synchronously per frame, so one read loop can
	// own both directions of the connection.
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.writeWS(conn, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Detail:    err.Error(),
			}, string(protocol.TypeErrorEvent))
			continue
		}

		msg, ok := parsed.(protocol.UserMessage)
		if !ok {
			continue
		}
		if msg.SessionID != sessionID {
			s.writeWS(conn, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "session_mismatch",
				Detail:    "message session_id does not match the connection",
			}, string(protocol.TypeErrorEvent))
			continue
		}
		if s.metrics != nil {
			s.metrics.WSMessages.WithLabelValues("inbound", string(protocol.TypeUserMessage)).Inc()
		}

		reply := s.generator.Reply(r.Context(), sessionID, msg.Page, msg.Text)
		s.writeWS(conn, protocol.AssistantMessage{
			Type:      protocol.TypeAssistantMessage,
			SessionID: sessionID,
			Text:      reply.Text,
			Intent:    string(reply.Intent),
			FollowUp:  reply.FollowUp,
		}, string(protocol.TypeAssistantMessage))
	}
}

func (s *Server) writeWS(conn *websocket.Conn, msg any, msgType string) {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Debug().Err(err).Msg("websocket write failed")
		return
	}
	if s.metrics != nil {
		s.metrics.WSMessages.WithLabelValues("outbound", msgType).Inc()
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
