// Package web serves the bridge status page and its JSON view.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/sweeney/rf433/internal/status"
)

// Server serves the state of a running bridge.
type Server struct {
	srv     *http.Server
	tracker *status.Tracker
}

// New creates a Server reading from tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}

	mux := http.NewServeMux()
	mux.Handle("/", s.view(s.page))
	mux.Handle("/index.html", s.view(s.page))
	mux.Handle("/index.json", s.view(s.json))

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type viewFunc func(w http.ResponseWriter, r *http.Request, snap status.Snapshot)

// view wraps a read-only page: GET and HEAD only, never cached.
func (s *Server) view(fn viewFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		fn(w, r, s.tracker.Snapshot())
	})
}

func (s *Server) page(w http.ResponseWriter, r *http.Request, snap status.Snapshot) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) json(w http.ResponseWriter, _ *http.Request, snap status.Snapshot) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
