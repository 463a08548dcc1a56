// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs method, path, status and duration_ms once the handler returns. The
wrapped writer still implements http.Hijacker, so websocket upgrades pass
through; an upgraded request logs status 101 with upgraded=true.

# CORS Middleware

Enable cross-origin requests from the poll frontend:

	server := http.Server{
		Handler: middleware.CORS(cfg.ClientOrigin)(mux),
	}

The configured origin is sent on every response; when it is empty the
request's Origin is reflected. Allows GET, POST, OPTIONS with Content-Type.

# Response Helpers

	middleware.JSONResponse(w, http.StatusOK, state)
	middleware.TextResponse(w, http.StatusOK, pollID)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies:

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the client IP voter identities are derived from:

	ip := middleware.GetClientIP(r, cfg.TrustedProxyHeader)

With an empty header name the peer address from RemoteAddr is used and
forwarding headers are ignored. Configure the header (CF-Connecting-IP,
X-Forwarded-For) only when a proxy in front of the server sets it.
*/
package middleware
