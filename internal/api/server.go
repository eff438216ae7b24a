// Package api serves stored metric runs over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/banshee-data/lu-metrics/internal/chart"
	"github.com/banshee-data/lu-metrics/internal/db"
	"github.com/banshee-data/lu-metrics/internal/httputil"
	"github.com/banshee-data/lu-metrics/internal/stats"
)

// RunStore is the read side of the results store.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, id string) (*db.Run, error)
	LabelStats(ctx context.Context, id string) ([]db.LabelRow, error)
	Totals(ctx context.Context, id string) (*stats.Totals, error)
	Stat(ctx context.Context, id string) (*stats.AggregateStat, []string, error)
}

// DefaultListLimit caps /api/runs when no limit is given.
const DefaultListLimit = 50

type Server struct {
	store RunStore
}

func NewServer(store RunStore) *Server {
	return &Server{store: store}
}

// RunDetail is a stored run with its labels in display order.
type RunDetail struct {
	db.Run
	Labels []db.LabelRow `json:"labels"`
	Totals *stats.Totals `json:"totals,omitempty"`
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

var (
	pathColor = color.New(color.FgCyan).SprintFunc()
	okColor   = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnColor = color.New(color.FgYellow).SprintFunc()
	errColor  = color.New(color.FgRed, color.Bold).SprintFunc()
)

func statusCodeColor(statusCode int) string {
	code := strconv.Itoa(statusCode)
	switch {
	case statusCode >= 200 && statusCode < 300:
		return okColor(code)
	case statusCode >= 300 && statusCode < 400:
		return warnColor(code)
	case statusCode >= 400:
		return errColor(code)
	default:
		return code
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			pathColor(r.RequestURI),
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/", s.showRun)
	mux.HandleFunc("/charts/runs/", s.runChart)
	return mux
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := DefaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve runs: %v", err))
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}

// runID extracts the id following prefix. Nested paths are rejected.
func runID(path, prefix string) (string, bool) {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	id, ok := runID(r.URL.Path, "/api/runs/")
	if !ok {
		httputil.BadRequest(w, "Invalid run id")
		return
	}

	ctx := r.Context()
	run, err := s.store.GetRun(ctx, id)
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, "Run not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve run: %v", err))
		return
	}
	labels, err := s.store.LabelStats(ctx, id)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve labels: %v", err))
		return
	}
	totals, err := s.store.Totals(ctx, id)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve totals: %v", err))
		return
	}
	if labels == nil {
		labels = []db.LabelRow{}
	}
	httputil.WriteJSON(w, http.StatusOK, RunDetail{Run: *run, Labels: labels, Totals: totals})
}

func (s *Server) runChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	id, ok := runID(r.URL.Path, "/charts/runs/")
	if !ok {
		httputil.BadRequest(w, "Invalid run id")
		return
	}

	ctx := r.Context()
	run, err := s.store.GetRun(ctx, id)
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, "Run not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve run: %v", err))
		return
	}
	st, order, err := s.store.Stat(ctx, id)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve run stats: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	bar := chart.StatBar(run.Name, run.Task+", "+run.Mode, st, order)
	if err := chart.RenderPage(w, run.Name, bar); err != nil {
		log.Printf("render chart for run %s: %v", id, err)
	}
}
