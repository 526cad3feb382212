package storefront

import (
	"context"
	"log"
	"net/http"
	"time"
)

// Server wraps the storefront HTTP server setup.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// NewServer builds the storefront HTTP server over a session registry.
func NewServer(addr string, reg *Registry, logger *log.Logger) *Server {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           buildRouter(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: httpSrv, logger: logger}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
