// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/danielhkuo/livepoll/actor"
	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Largest inbound frame accepted.
	maxMessageSize = 4096
)

// Error frame texts specific to the socket endpoint
const (
	msgInvalidPollID        = "Invalid poll identifier"
	msgInvalidPayloadPollID = "Invalid poll identifier for payload"
	closeSetupFailed        = "Uncaught exception during session setup"
)

type SocketHandler struct {
	registry *actor.Registry
	cfg      cliparse.Config
	upgrader websocket.Upgrader
}

func NewSocketHandler(registry *actor.Registry, cfg cliparse.Config) *SocketHandler {
	h := &SocketHandler{registry: registry, cfg: cfg}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts same-host requests, requests without an Origin header
// and, when configured, the client origin.
func (h *SocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.cfg.ClientOrigin == "" || origin == h.cfg.ClientOrigin {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// Connect handles GET /api/socket/{id}
func (h *SocketHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		middleware.ErrorResponse(w, http.StatusUpgradeRequired, "expected websocket")
		return
	}

	voter, err := auth.VoterIdentity(middleware.GetClientIP(r, h.cfg.TrustedProxyHeader), h.cfg.IdentitySalt)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "could not determine client address")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	session := newWSSession(conn, voter)
	pollID := r.PathValue("id")

	if err := auth.ValidatePollID(pollID); err != nil {
		_ = session.Send(r.Context(), models.ErrorFrame{Error: msgInvalidPollID})
		_ = session.Close("invalid poll identifier")
		return
	}

	h.serve(r.Context(), session, pollID)
}

func (h *SocketHandler) serve(ctx context.Context, session *wsSession, pollID string) {
	logger := slog.With("poll_id", pollID, "session_id", session.ID())

	defer func() {
		h.registry.Detach(pollID, session.ID())
		_ = session.Close("")
	}()

	if err := h.attach(ctx, logger, session, pollID); err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)
	go session.keepalive(done)

	for {
		_, data, err := session.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("session read failed", "error", err)
			}
			return
		}

		msg, err := models.DecodeInbound(data)
		if err != nil {
			logger.Debug("closing session after undecodable frame", "error", err)
			return
		}

		switch m := msg.(type) {
		case models.Identify:
			if m.ID != pollID {
				if err := session.Send(ctx, models.ErrorFrame{Error: msgInvalidPayloadPollID}); err != nil {
					return
				}
				continue
			}
			if err := h.attach(ctx, logger, session, pollID); err != nil {
				return
			}

		case models.Vote:
			err := h.registry.Submit(ctx, pollID, session.Identity(), m.Answers)
			if err == nil {
				continue
			}
			if errors.Is(err, models.ErrStorage) || errors.Is(err, actor.ErrClosed) {
				logger.Error("vote submission failed", "error", err)
			}
			if err := session.Send(ctx, models.NewErrorFrame(err)); err != nil {
				return
			}
		}
	}
}

// attach registers the session with the poll. A missing poll is reported
// to the client but keeps the connection open; any returned error means
// the session is finished.
func (h *SocketHandler) attach(ctx context.Context, logger *slog.Logger, session *wsSession, pollID string) error {
	err := h.registry.Attach(ctx, pollID, session)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrPollNotFound):
		return session.Send(ctx, models.NewErrorFrame(err))
	case errors.Is(err, models.ErrTransport):
		return err
	}

	logger.Error("session setup failed", "error", err)
	_ = session.Send(ctx, models.NewErrorFrame(err))
	_ = session.closeWith(websocket.CloseInternalServerErr, closeSetupFailed)
	return err
}

// wsSession adapts a websocket connection to actor.Session. Writes are
// serialized; reads happen only on the handler goroutine.
type wsSession struct {
	id       string
	identity string
	conn     *websocket.Conn

	mu        sync.Mutex
	closeOnce sync.Once
}

func newWSSession(conn *websocket.Conn, identity string) *wsSession {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return &wsSession{
		id:       uuid.NewString(),
		identity: identity,
		conn:     conn,
	}
}

func (s *wsSession) ID() string       { return s.id }
func (s *wsSession) Identity() string { return s.identity }

// Send writes frame as JSON, giving up at ctx's deadline or after writeWait.
func (s *wsSession) Send(ctx context.Context, frame models.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return s.conn.WriteJSON(frame)
}

// Close sends a normal close frame and closes the connection. Only the
// first call has an effect.
func (s *wsSession) Close(reason string) error {
	return s.closeWith(websocket.CloseNormalClosure, reason)
}

func (s *wsSession) closeWith(code int, reason string) error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		s.mu.Unlock()
		err = s.conn.Close()
	})
	return err
}

func (s *wsSession) keepalive(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
