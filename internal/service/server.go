package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server http.Server with logged start/stop
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer write timeout leaves room for a slow Daraja STK push behind a request
func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      45 * time.Second,
			IdleTimeout:       2 * time.Minute,
			ErrorLog:          zap.NewStdLog(logger.Named("http")),
		},
		logger: logger,
	}
}

// Start blocks until the server stops; a graceful Stop is not an error
func (s *Server) Start() error {
	s.logger.Info("Starting AfyaLink HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping AfyaLink HTTP server")
	return s.httpServer.Shutdown(ctx)
}
