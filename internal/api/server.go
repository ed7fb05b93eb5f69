// Package api exposes the tank, reading, analysis, disease and assistant
// operations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aquasense/backend/internal/analysis"
	"github.com/aquasense/backend/internal/assistant"
	"github.com/aquasense/backend/internal/quality"
	"github.com/aquasense/backend/internal/store"
)

type Server struct {
	store      *store.Store
	analysis   *analysis.Service
	classifier *quality.Classifier
	assistant  *assistant.Assistant // nil when chat is unavailable
	port       string
}

// NewServer wires the HTTP surface. assistant may be nil; the chat endpoint
// then answers 503.
func NewServer(st *store.Store, svc *analysis.Service, classifier *quality.Classifier, asst *assistant.Assistant, port string) *Server {
	return &Server{
		store:      st,
		analysis:   svc,
		classifier: classifier,
		assistant:  asst,
		port:       port,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/tanks", s.handleListTanks)
	mux.HandleFunc("POST /api/tanks", s.handleCreateTank)
	mux.HandleFunc("GET /api/tanks/{id}", s.handleGetTank)
	mux.HandleFunc("PUT /api/tanks/{id}", s.handleUpdateTank)
	mux.HandleFunc("DELETE /api/tanks/{id}", s.handleDeleteTank)

	mux.HandleFunc("GET /api/tanks/{id}/readings", s.handleListReadings)
	mux.HandleFunc("POST /api/tanks/{id}/readings", s.handleCreateReading)
	mux.HandleFunc("GET /api/tanks/{id}/predictions", s.handleListPredictions)
	mux.HandleFunc("GET /api/tanks/{id}/lab-results", s.handleListLabResults)
	mux.HandleFunc("GET /api/tanks/{id}/analysis", s.handleAnalyzeTank)

	mux.HandleFunc("POST /api/analysis/disease", s.handleDetectDisease)
	mux.HandleFunc("POST /api/assistant/chat", s.handleAssistantChat)

	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
