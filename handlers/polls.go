// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/livepoll/actor"
	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
)

type PollHandler struct {
	registry *actor.Registry
	index    *db.MetaIndex
	cfg      cliparse.Config
}

func NewPollHandler(registry *actor.Registry, index *db.MetaIndex, cfg cliparse.Config) *PollHandler {
	return &PollHandler{registry: registry, index: index, cfg: cfg}
}

// CreatePoll handles POST /api/poll
// Responds with the new poll id as plain text.
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	def, err := req.Definition().Normalize()
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	pollID, err := auth.GeneratePollID()
	if err != nil {
		slog.Error("failed to generate poll ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	// The index row goes first so the sweeper can reclaim a half-created poll.
	err = h.index.Put(r.Context(), models.IndexEntry{
		PollID:     pollID,
		CreatedAt:  time.Now(),
		Definition: def,
	})
	if err != nil {
		slog.Error("failed to index poll", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	if _, err := h.registry.Create(r.Context(), pollID, def); err != nil {
		if errors.Is(err, models.ErrInvalidDefinition) {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to create poll", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	if h.cfg.ClientOrigin != "" {
		w.Header().Set("Access-Control-Allow-Origin", h.cfg.ClientOrigin)
	}
	middleware.TextResponse(w, http.StatusOK, pollID)
}
