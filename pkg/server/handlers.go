package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/audit"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/engine"
)

// evaluateRequest is the request body for POST /v1/evaluate/{kind}. Exactly
// one subject field must be set, matching the kind in the path.
type evaluateRequest struct {
	AgentID string `json:"agent_id"`
	UserID  string `json:"user_id,omitempty"`

	Action           *ethics.ProposedAction          `json:"action,omitempty"`
	Plan             *ethics.Plan                    `json:"plan,omitempty"`
	Goal             *ethics.Goal                    `json:"goal,omitempty"`
	Skill            *ethics.Skill                   `json:"skill,omitempty"`
	Research         *ethics.ResearchActivity        `json:"research,omitempty"`
	SelfModification *ethics.SelfModificationRequest `json:"self_modification,omitempty"`

	State map[string]any `json:"state,omitempty"`
}

// concernRequest is the request body for POST /v1/concerns.
type concernRequest struct {
	AgentID string          `json:"agent_id"`
	UserID  string          `json:"user_id,omitempty"`
	Concern *ethics.Concern `json:"concern"`
}

// errorResponse is the error payload for non-2xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// handleEvaluate dispatches an evaluation request to the engine. Blocked
// clearances are successful evaluations and return 200; only validation
// and internal failures map to error statuses.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	kind := audit.Kind(r.PathValue("kind"))

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	actionCtx := &ethics.ActionContext{
		AgentID:     req.AgentID,
		UserID:      req.UserID,
		Environment: s.environment,
		State:       req.State,
		Timestamp:   time.Now().UTC(),
	}

	var clearance *ethics.Clearance
	var err error
	switch kind {
	case audit.KindAction:
		clearance, err = s.evaluator.EvaluateAction(r.Context(), req.Action, actionCtx)
	case audit.KindPlan:
		clearance, err = s.evaluator.EvaluatePlan(r.Context(), req.Plan, actionCtx)
	case audit.KindGoal:
		clearance, err = s.evaluator.EvaluateGoal(r.Context(), req.Goal, actionCtx)
	case audit.KindSkill:
		clearance, err = s.evaluator.EvaluateSkill(r.Context(), req.Skill, actionCtx)
	case audit.KindResearch:
		clearance, err = s.evaluator.EvaluateResearch(r.Context(), req.Research, actionCtx)
	case audit.KindSelfModification:
		clearance, err = s.evaluator.EvaluateSelfModification(r.Context(), req.SelfModification, actionCtx)
	default:
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown evaluation kind %q", kind))
		return
	}

	if err != nil {
		s.writeEvaluationError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, clearance)
}

// handleReportConcern records an agent-reported concern.
func (s *Server) handleReportConcern(w http.ResponseWriter, r *http.Request) {
	var req concernRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	actionCtx := &ethics.ActionContext{
		AgentID:     req.AgentID,
		UserID:      req.UserID,
		Environment: s.environment,
		Timestamp:   time.Now().UTC(),
	}

	if err := s.evaluator.ReportConcern(r.Context(), actionCtx, req.Concern); err != nil {
		s.writeEvaluationError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

// handleAuditHistory returns the agent's audit entries, most recent first.
// Optional start/end query parameters bound the range (RFC 3339).
func (s *Server) handleAuditHistory(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agent")

	var start, end *time.Time
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid start time: %w", err))
			return
		}
		start = &t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid end time: %w", err))
			return
		}
		end = &t
	}

	entries, err := s.auditLog.History(r.Context(), agentID, start, end)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}

	s.writeJSON(w, http.StatusOK, entries)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": s.auditLog.Backend(),
	})
}

// writeEvaluationError maps engine failure classes to HTTP statuses:
// validation failures are the caller's fault, everything else is internal.
func (s *Server) writeEvaluationError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
