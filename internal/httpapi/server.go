// Package httpapi serves report generation as a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alnah/medreport/internal/dispatch"
	"github.com/alnah/medreport/internal/observe"
	"github.com/alnah/medreport/internal/report"
)

// maxBodyBytes bounds request bodies. Transcripts are plain text.
const maxBodyBytes = 2 << 20

// Generator is the subset of *dispatch.Dispatcher the API needs.
type Generator interface {
	GenerateNamed(ctx context.Context, transcript, name string) dispatch.Report
	GenerateBatch(ctx context.Context, transcript string, names []string) []dispatch.Report
	ClearCache()
}

var _ Generator = (*dispatch.Dispatcher)(nil)

// Server exposes a Generator over HTTP.
type Server struct {
	gen     Generator
	metrics *observe.Metrics
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request durations to m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server backed by gen.
func New(gen Generator, opts ...Option) *Server {
	s := &Server{
		gen:    gen,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API routes wrapped in the request-ID, metrics and
// logging middleware:
//
//	POST   /api/reports         generate several kinds
//	POST   /api/reports/{kind}  generate one kind
//	DELETE /api/cache           clear memoized reports
//	GET    /api/kinds           list report kinds
//	GET    /api/examples        list sample conversations
//	GET    /healthz             liveness
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return observe.Middleware(s.metrics, s.logger)(mux)
}

// Register adds the API routes to mux without middleware.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/reports", s.handleBatch)
	mux.HandleFunc("POST /api/reports/{kind}", s.handleReport)
	mux.HandleFunc("DELETE /api/cache", s.handleClearCache)
	mux.HandleFunc("GET /api/kinds", s.handleKinds)
	mux.HandleFunc("GET /api/examples", s.handleExamples)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// reportRequest is the JSON body of both report endpoints.
// Kinds is ignored by the single-kind endpoint.
type reportRequest struct {
	Transcript string   `json:"transcript"`
	Kinds      []string `json:"kinds,omitempty"`
}

type batchResponse struct {
	Reports []dispatch.Report `json:"reports"`
}

type kindView struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleBatch handles POST /api/reports. The status is always 200;
// per-kind outcomes are in each report's status field.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	reports := s.gen.GenerateBatch(r.Context(), req.Transcript, req.Kinds)
	writeJSON(w, http.StatusOK, batchResponse{Reports: reports})
}

// handleReport handles POST /api/reports/{kind}.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	rep := s.gen.GenerateNamed(r.Context(), req.Transcript, r.PathValue("kind"))
	writeJSON(w, statusCode(rep.Status), rep)
}

// handleClearCache handles DELETE /api/cache.
func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	s.gen.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKinds(w http.ResponseWriter, _ *http.Request) {
	kinds := report.Kinds()
	views := make([]kindView, len(kinds))
	for i, k := range kinds {
		views[i] = kindView{Name: k.String(), Title: k.Title()}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleExamples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report.Examples())
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a reportRequest, answering 400 itself when the body is
// malformed or the transcript is blank.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (reportRequest, bool) {
	var req reportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		msg := "invalid request body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "request body too large"
		} else if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		s.logger.Debug("rejected request body",
			slog.String("request_id", observe.RequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return req, false
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "transcript is empty, please paste or select a conversation",
		})
		return req, false
	}
	return req, true
}

// statusCode maps a report status to the single-kind response code.
func statusCode(s dispatch.Status) int {
	switch s {
	case dispatch.StatusInvalidKind:
		return http.StatusBadRequest
	case dispatch.StatusUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}
