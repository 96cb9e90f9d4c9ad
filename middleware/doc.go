// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("POST /allocations", middleware.WithLogging(handler))

Each request gets a request_id (a UUID, or the client's X-Request-ID),
echoed in the response header and available to handlers through
RequestID(r.Context()). Completion logs carry status and duration_ms.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows headers Content-Type, Authorization, X-Admin-Key,
X-Participant-Token and X-Request-ID.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody decodes at most 1 MiB of request body.
*/
package middleware
