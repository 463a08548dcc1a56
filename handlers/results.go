// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/livepoll/actor"
	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
)

type ResultsHandler struct {
	registry *actor.Registry
}

func NewResultsHandler(registry *actor.Registry) *ResultsHandler {
	return &ResultsHandler{registry: registry}
}

// GetPoll handles GET /api/poll/{id}
// Returns the definition and current counts, the same payload a socket
// receives on attach.
func (h *ResultsHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if err := auth.ValidatePollID(pollID); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid poll identifier")
		return
	}

	state, err := h.registry.Snapshot(r.Context(), pollID)
	if errors.Is(err, models.ErrPollNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to load poll", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, state)
}
