package http

import (
	"context"
	"net/http"
	"time"

	"github.com/arenafs/arenafs/internal/logger"
)

type Server struct {
	server *http.Server
}

func NewServer(addr string, h *Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      SetupRouter(h),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	logger.Info("HTTP server listening on %s", s.server.Addr)
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error: %v", err)
		}
	}()
	return nil
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.server.Close()
	}
}
