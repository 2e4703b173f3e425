package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/observability"
	"bank-personalization/internal/storage"
)

// Router builds the HTTP surface.
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.Handler(gatherer))
	r.Get("/status", s.handleStatus)

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", s.handleStartRun)
		r.Get("/latest", s.handleLatestRun)
		r.Get("/{runID}", s.handleGetRun)
	})

	r.Route("/clients/{code}", func(r chi.Router) {
		r.Get("/recommendations", s.handleRecommendations)
		r.Post("/process", s.handleProcessClient)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status     string       `json:"status"`
	Uptime     string       `json:"uptime"`
	Running    bool         `json:"running"`
	Runs       int          `json:"runs"`
	LastRunAt  *time.Time   `json:"last_run_at,omitempty"`
	LastError  string       `json:"last_error,omitempty"`
	LastResult *RunResponse `json:"last_result,omitempty"`
}

// RunResponse is the JSON form of a run summary.
type RunResponse struct {
	RunID            string    `json:"run_id"`
	Window           string    `json:"window"`
	PolicyVersion    string    `json:"policy_version"`
	Status           string    `json:"status"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	ClientsTotal     int       `json:"clients_total"`
	ClientsSucceeded int       `json:"clients_succeeded"`
	ClientsFailed    int       `json:"clients_failed"`
	ClientsNoData    int       `json:"clients_no_data"`
	Recommendations  int       `json:"recommendations"`
	RecordsDropped   int       `json:"records_dropped"`
	ResultsDigest    string    `json:"results_digest"`
	Errors           []string  `json:"errors,omitempty"`
}

func runResponse(r *domain.RunSummary) *RunResponse {
	return &RunResponse{
		RunID:            r.RunID,
		Window:           r.Window.String(),
		PolicyVersion:    r.PolicyVersion,
		Status:           r.Status,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		ClientsTotal:     r.ClientsTotal,
		ClientsSucceeded: r.ClientsSucceeded,
		ClientsFailed:    r.ClientsFailed,
		ClientsNoData:    r.ClientsNoData,
		Recommendations:  r.Recommendations,
		RecordsDropped:   r.RecordsDropped,
		ResultsDigest:    r.ResultsDigest,
		Errors:           r.Errors,
	}
}

// RecommendationResponse is the JSON form of one recommendation.
type RecommendationResponse struct {
	ID           string `json:"id"`
	Rank         int    `json:"rank"`
	Product      string `json:"product"`
	Benefit      string `json:"benefit"`
	Confidence   string `json:"confidence"`
	Reason       string `json:"reason"`
	Notification string `json:"notification,omitempty"`
}

func recommendationResponses(recs []domain.Recommendation) []RecommendationResponse {
	out := make([]RecommendationResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, RecommendationResponse{
			ID:           r.ID,
			Rank:         r.Rank,
			Product:      string(r.Product),
			Benefit:      r.Benefit.StringFixed(2),
			Confidence:   r.Confidence.StringFixed(2),
			Reason:       r.Reason,
			Notification: r.Notification,
		})
	}
	return out
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:    "running",
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Running:   s.running,
		Runs:      s.runs,
		LastError: s.lastError,
	}
	if !s.lastRunAt.IsZero() {
		at := s.lastRunAt
		resp.LastRunAt = &at
	}
	if s.lastResult != nil {
		resp.LastResult = runResponse(&s.lastResult.RunSummary)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if err := s.tryStart(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	go s.execute(s.baseCtx)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.stores.Runs.LatestRun(r.Context())
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse(run))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.stores.Runs.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse(run))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	code, ok := clientCode(w, r)
	if !ok {
		return
	}
	recs, err := s.stores.Results.GetRecommendations(r.Context(), code)
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationResponses(recs))
}

func (s *Server) handleProcessClient(w http.ResponseWriter, r *http.Request) {
	code, ok := clientCode(w, r)
	if !ok {
		return
	}
	results, err := s.processClient(r.Context(), code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, recommendationResponses(results.Recommendations))
	case domain.IsDataIntegrityError(err):
		writeError(w, http.StatusNotFound, err)
	case domain.IsConfigurationError(err):
		writeError(w, http.StatusInternalServerError, err)
	default:
		s.storageError(w, err)
	}
}

func (s *Server) storageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err)
	}
}

func clientCode(w http.ResponseWriter, r *http.Request) (int64, bool) {
	code, err := strconv.ParseInt(chi.URLParam(r, "code"), 10, 64)
	if err != nil || code <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("client code must be a positive integer"))
		return 0, false
	}
	return code, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
