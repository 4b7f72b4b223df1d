package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/serptrack/serptrack/internal/engine"
	"github.com/serptrack/serptrack/internal/lifecycle"
	"github.com/serptrack/serptrack/internal/metrics"
	"github.com/serptrack/serptrack/internal/registry"
	"github.com/serptrack/serptrack/internal/store"
	"github.com/serptrack/serptrack/internal/suggest"
)

type HealthResponse struct {
	Status           string `json:"status"`
	ExperimentsCount int    `json:"experiments_count"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var count int
	row := s.store.DB().QueryRow("SELECT COUNT(*) FROM experiments")
	if err := row.Scan(&count); err != nil {
		writeError(w, http.StatusInternalServerError, "database unavailable")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:           "ok",
		ExperimentsCount: count,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
	})
}

// ExperimentResponse is an experiment plus its derived advice.
type ExperimentResponse struct {
	PageURL           string                 `json:"page_url"`
	Status            store.ExperimentStatus `json:"status"`
	CurrentKeyword    string                 `json:"current_keyword"`
	KeywordSource     store.KeywordSource    `json:"keyword_source"`
	ImplementedAt     *time.Time             `json:"implemented_at,omitempty"`
	PreStats          *store.StatsSnapshot   `json:"pre_stats,omitempty"`
	PostStats         *store.StatsSnapshot   `json:"post_stats,omitempty"`
	ExtendedDeadline  *time.Time             `json:"extended_deadline,omitempty"`
	ExtendedTotalDays int                    `json:"extended_total_days,omitempty"`
	PivotCount        int                    `json:"pivot_count"`
	Advice            engine.Advice          `json:"advice"`
}

func (s *Server) experimentResponse(exp *store.Experiment) ExperimentResponse {
	adv := s.advisor.Advise(exp)
	metrics.RecommendationsServed.WithLabelValues(string(adv.Recommendation.Action)).Inc()
	return ExperimentResponse{
		PageURL:           exp.PageURL,
		Status:            exp.Status,
		CurrentKeyword:    exp.CurrentKeyword,
		KeywordSource:     exp.KeywordSource,
		ImplementedAt:     exp.ImplementedAt,
		PreStats:          exp.PreStats,
		PostStats:         exp.PostStats,
		ExtendedDeadline:  exp.ExtendedDeadline,
		ExtendedTotalDays: exp.ExtendedTotalDays,
		PivotCount:        exp.PivotCount(),
		Advice:            adv,
	}
}

func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	exps, err := s.store.ListExperiments(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list experiments")
		return
	}

	response := make([]ExperimentResponse, 0, len(exps))
	for _, exp := range exps {
		response = append(response, s.experimentResponse(exp))
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	exp, ok := s.loadExperiment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.experimentResponse(exp))
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	exp, ok := s.loadExperiment(w, r)
	if !ok {
		return
	}
	adv := s.advisor.Advise(exp)
	metrics.RecommendationsServed.WithLabelValues(string(adv.Recommendation.Action)).Inc()
	writeJSON(w, http.StatusOK, adv)
}

func (s *Server) handleRewritePlan(w http.ResponseWriter, r *http.Request) {
	exp, ok := s.loadExperiment(w, r)
	if !ok {
		return
	}

	brief, err := suggest.RewriteBrief(exp, s.advisor.Advise(exp))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build rewrite brief")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"brief": brief})
}

func (s *Server) handleMetaPlan(w http.ResponseWriter, r *http.Request) {
	exp, ok := s.loadExperiment(w, r)
	if !ok {
		return
	}

	brief, err := suggest.MetaBrief(exp, s.advisor.Advise(exp))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build meta brief")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"brief": brief})
}

type transitionRequest struct {
	PageURL string `json:"page_url"`
	Keyword string `json:"keyword,omitempty"`
	Source  string `json:"source,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func (s *Server) handleImplement(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, true, func(userID string, req transitionRequest) (*store.Experiment, error) {
		return s.svc.Implement(r.Context(), userID, req.PageURL, req.Keyword, keywordSource(req.Source))
	})
}

func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, true, func(userID string, req transitionRequest) (*store.Experiment, error) {
		return s.svc.Pivot(r.Context(), userID, req.PageURL, req.Keyword, keywordSource(req.Source))
	})
}

func (s *Server) handleOptimizeMeta(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, false, func(userID string, req transitionRequest) (*store.Experiment, error) {
		return s.svc.OptimizeMeta(r.Context(), userID, req.PageURL, req.Reason)
	})
}

func (s *Server) handleConfirmRewrite(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, false, func(userID string, req transitionRequest) (*store.Experiment, error) {
		return s.svc.ConfirmRewrite(r.Context(), userID, req.PageURL)
	})
}

func (s *Server) handleExtendWait(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, false, func(userID string, req transitionRequest) (*store.Experiment, error) {
		return s.svc.ExtendWait(r.Context(), userID, req.PageURL)
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, false, func(userID string, req transitionRequest) (*store.Experiment, error) {
		exp, _, err := s.svc.RefreshStats(r.Context(), userID, req.PageURL)
		return exp, err
	})
}

// transition decodes the request, takes the per-(user, page) lock, runs
// the operation, and maps domain errors onto status codes.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, needsKeyword bool, op func(userID string, req transitionRequest) (*store.Experiment, error)) {
	userID := chi.URLParam(r, "userID")

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PageURL == "" {
		writeError(w, http.StatusBadRequest, "page_url is required")
		return
	}
	if needsKeyword && req.Keyword == "" {
		writeError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	unlock := s.locks.lock(userID, req.PageURL)
	defer unlock()

	exp, err := op(userID, req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "experiment not found")
		case errors.Is(err, registry.ErrKeywordTaken):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, lifecycle.ErrLiveCycle), errors.Is(err, lifecycle.ErrSameKeyword):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, lifecycle.ErrNoMetricSource):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "transition failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, s.experimentResponse(exp))
}

type assignmentResponse struct {
	Keyword string `json:"keyword"`
	PageURL string `json:"page_url"`
}

func (s *Server) handleGetAssignments(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	set, err := s.store.LoadAssignments(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load assignments")
		return
	}

	response := make([]assignmentResponse, 0, len(set))
	for _, a := range set {
		response = append(response, assignmentResponse{Keyword: a.Keyword, PageURL: a.PageURL})
	}
	writeJSON(w, http.StatusOK, response)
}

// handlePutAssignments replaces the user's whole registry. The set is
// validated through the registry first so conflicting entries are
// rejected before anything is written.
func (s *Server) handlePutAssignments(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req []assignmentResponse
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reg := registry.New()
	for _, a := range req {
		if err := reg.Assign(a.Keyword, a.PageURL); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
	}

	if err := s.store.ReplaceAssignments(r.Context(), userID, reg.Assignments()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save assignments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": reg.Len()})
}

func (s *Server) loadExperiment(w http.ResponseWriter, r *http.Request) (*store.Experiment, bool) {
	userID := chi.URLParam(r, "userID")
	pageURL := r.URL.Query().Get("page")
	if pageURL == "" {
		writeError(w, http.StatusBadRequest, "page parameter required")
		return nil, false
	}

	exp, err := s.store.LoadExperiment(r.Context(), userID, pageURL)
	if err == store.ErrNotFound {
		writeError(w, http.StatusNotFound, "experiment not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load experiment")
		return nil, false
	}
	return exp, true
}

func keywordSource(s string) store.KeywordSource {
	switch store.KeywordSource(s) {
	case store.SourceAIGenerated:
		return store.SourceAIGenerated
	case store.SourceHybrid:
		return store.SourceHybrid
	default:
		return store.SourceGSCExisting
	}
}
