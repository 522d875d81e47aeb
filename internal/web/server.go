package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/alexandria/alexandria/internal/config"
	"github.com/alexandria/alexandria/internal/database"
	"github.com/alexandria/alexandria/internal/orchestrator"
)

// Server exposes a read-only HTTP API over the memory store. It never
// writes: the capture loop stays the single writer while API clients
// query concurrently.
type Server struct {
	handler *Handler
	server  *http.Server
}

func NewServer(cfg *config.Config, repo *database.Repository, svc *orchestrator.Service) *Server {
	handler := NewHandler(repo, svc)
	mux := http.NewServeMux()
	handler.SetupRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		handler: handler,
		server:  httpServer,
	}
}

func (s *Server) Start() error {
	log.Printf("Starting web server on http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return s.server.Addr
}
