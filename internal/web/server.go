// Package web provides an HTTP status server for the ph-doser daemon.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/ph-doser/internal/journal"
	"github.com/sweeney/ph-doser/internal/status"
)

// defaultHistoryLimit is how many records /history.json returns when the
// client does not ask for a specific count.
const defaultHistoryLimit = 50

// maxHistoryLimit caps the per-request record count.
const maxHistoryLimit = 500

// History is the subset of the journal the server reads from.
type History interface {
	RecentReadings(n int) ([]journal.ReadingRecord, error)
	RecentDoses(n int) ([]journal.DoseRecord, error)
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	history    History
}

// New creates a Server that reads state from the given tracker. history may
// be nil, in which case /history.json reports 404.
func New(addr string, tracker *status.Tracker, history History) *Server {
	s := &Server{tracker: tracker, history: history}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/history.json", s.handleHistory)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// HistoryJSON is the envelope for the /history.json endpoint.
type HistoryJSON struct {
	History HistoryInner `json:"history"`
}

// HistoryInner contains the recent records.
type HistoryInner struct {
	Readings []journal.ReadingRecord `json:"readings"`
	Doses    []journal.DoseRecord    `json:"doses"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.NotFound(w, r)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid n", http.StatusBadRequest)
			return
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		limit = n
	}

	readings, err := s.history.RecentReadings(limit)
	if err != nil {
		logrus.WithError(err).Error("history: read readings")
		http.Error(w, "journal read failed", http.StatusInternalServerError)
		return
	}
	doses, err := s.history.RecentDoses(limit)
	if err != nil {
		logrus.WithError(err).Error("history: read doses")
		http.Error(w, "journal read failed", http.StatusInternalServerError)
		return
	}

	// Empty slices rather than null keeps clients simple.
	if readings == nil {
		readings = []journal.ReadingRecord{}
	}
	if doses == nil {
		doses = []journal.DoseRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	data, _ := json.MarshalIndent(HistoryJSON{History: HistoryInner{Readings: readings, Doses: doses}}, "", "  ")
	w.Write(data)
}
