package http

import (
	"net/http"
)

func SetupRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/mkdir", h.Mkdir)
	mux.HandleFunc("POST /api/v1/create", h.Create)
	mux.HandleFunc("POST /api/v1/attach", h.Attach)
	mux.HandleFunc("POST /api/v1/append", h.Append)
	mux.HandleFunc("POST /api/v1/read", h.Read)
	mux.HandleFunc("POST /api/v1/list", h.List)
	mux.HandleFunc("POST /api/v1/check", h.Check)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /health", h.Health)

	return RequestIDMiddleware(LoggingMiddleware(mux))
}
