// Package web serves the rebuild analysis as a JSON API with an SSE
// stream for live updates in watch mode.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/wvhulle/cargo-dirty/pkg/logging"
	"github.com/wvhulle/cargo-dirty/pkg/output"
	"github.com/wvhulle/cargo-dirty/pkg/pubsub"
)

// Topic names for the SSE stream.
const (
	TopicAnalysis = "analysis"
	TopicStatus   = "status"
)

// Server exposes analysis results over HTTP.
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu     sync.RWMutex
	report *output.Report
}

// NewServer creates a server with no report yet.
func NewServer() *Server {
	s := &Server{
		router:    mux.NewRouter(),
		publisher: pubsub.NewSSEPublisher(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/report", s.handleReport).Methods("GET")
	s.router.HandleFunc("/api/chains", s.handleChains).Methods("GET")
	s.router.HandleFunc("/api/summary", s.handleSummary).Methods("GET")
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")
	s.router.Use(logging.RequestIDMiddleware)
}

// SetReport stores a fresh analysis result and pushes it to subscribers.
func (s *Server) SetReport(r *output.Report) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()

	if err := s.publisher.Publish(TopicAnalysis, "report", r); err != nil {
		logging.Warn("failed to publish report", "error", err)
	}
}

// PublishStatus reports run progress on the status topic.
func (s *Server) PublishStatus(state, message string) {
	err := s.publisher.Publish(TopicStatus, state, pubsub.RunStatus{State: state, Message: message})
	if err != nil {
		logging.Warn("failed to publish status", "error", err)
	}
}

func (s *Server) currentReport() *output.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.currentReport()
	if report == nil {
		http.Error(w, "analysis not available yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleChains(w http.ResponseWriter, r *http.Request) {
	report := s.currentReport()
	if report == nil {
		http.Error(w, "analysis not available yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, report.RootCauseChains)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	report := s.currentReport()
	if report == nil {
		http.Error(w, "analysis not available yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, report.Summary)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != TopicAnalysis && topic != TopicStatus {
		http.Error(w, "unknown topic", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Establish the stream before any event arrives.
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.Debug("SSE write failed, dropping client", "error", err)
			return
		}
		flush(w)
	}
}

// Start serves on the given port until the listener fails.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logging.Info("web server listening", "addr", addr)
	return srv.ListenAndServe()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
