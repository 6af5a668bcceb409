// Package api exposes HTTP handlers for the plan-reasoning service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/planreasoning/internal/auth"
	"example.com/planreasoning/internal/domain"
	"example.com/planreasoning/internal/engine"
	"example.com/planreasoning/internal/nutrition"
	"example.com/planreasoning/internal/persistence"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/assessments", h.assessments)
	mux.HandleFunc("/v1/assessments/", h.assessmentByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) assessments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createAssessment(w, r)
	case http.MethodGet:
		h.listAssessments(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) assessmentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/assessments/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing assessment id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getAssessment(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createAssessment(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeAssessmentsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope assessments:write required")
		return
	}

	var req CreateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	record, replay, err := h.service.EvaluateProfile(r.Context(), claims.TenantID, req.UserID, req.Profile)
	if err != nil {
		var verr *engine.ValidationError
		switch {
		case errors.Is(err, engine.ErrUnsupportedProfile):
			writeError(w, http.StatusUnprocessableEntity, "unsupported_profile", err.Error())
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, "validation_failed", verr.Error())
		default:
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		}
		return
	}

	view := toAssessmentView(*record)
	view.Nutrition = baselineFor(req.Profile)

	resp := CreateAssessmentResponse{
		AssessmentView: view,
		Replay:         replay,
	}

	status := http.StatusCreated
	if replay {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (h *Handler) getAssessment(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeAssessmentsRead) && !claims.HasScope(auth.ScopeAssessmentsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope assessments:read required")
		return
	}

	record, err := h.service.GetAssessment(r.Context(), claims.TenantID, id)
	if err != nil {
		if errors.Is(err, domain.ErrAssessmentNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "assessment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toAssessmentView(*record))
}

func (h *Handler) listAssessments(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeAssessmentsRead) && !claims.HasScope(auth.ScopeAssessmentsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope assessments:read required")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	records, next, err := h.service.ListAssessmentsByUser(r.Context(), claims.TenantID, userID, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]AssessmentView, 0, len(records))
	for _, record := range records {
		items = append(items, toAssessmentView(record))
	}

	resp := ListAssessmentsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateAssessmentRequest is the payload for POST /v1/assessments.
type CreateAssessmentRequest struct {
	UserID  string         `json:"user_id"`
	Profile engine.Profile `json:"profile"`
}

// Validate ensures request correctness. Deep profile validation happens in the
// engine; this only rejects requests that cannot identify a user or profile.
func (r CreateAssessmentRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user_id is required")
	}
	if r.Profile.Age == 0 && r.Profile.Goal == "" {
		return errors.New("profile is required")
	}
	return nil
}

// AssessmentView exposes full details about a stored assessment.
type AssessmentView struct {
	AssessmentID string              `json:"assessment_id"`
	TenantID     string              `json:"tenant_id"`
	UserID       string              `json:"user_id"`
	ProfileHash  string              `json:"profile_hash"`
	RuleVersion  string              `json:"rule_version"`
	CreatedAt    time.Time           `json:"created_at"`
	Assessment   engine.Assessment   `json:"assessment"`
	Nutrition    *nutrition.Baseline `json:"nutrition_baseline,omitempty"`
}

// CreateAssessmentResponse describes the response body for create.
type CreateAssessmentResponse struct {
	AssessmentView
	Replay bool `json:"idempotent_replay"`
}

// ListAssessmentsResponse packages list results.
type ListAssessmentsResponse struct {
	Items      []AssessmentView `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func toAssessmentView(record domain.AssessmentRecord) AssessmentView {
	return AssessmentView{
		AssessmentID: record.ID,
		TenantID:     record.TenantID,
		UserID:       record.UserID,
		ProfileHash:  record.ProfileHash,
		RuleVersion:  record.RuleVersion,
		CreatedAt:    record.CreatedAt,
		Assessment:   record.Output,
	}
}

// baselineFor recomputes the energy baseline for the create response. The
// profile already passed engine validation by the time this is called.
func baselineFor(profile engine.Profile) *nutrition.Baseline {
	norm, err := engine.Normalize(profile)
	if err != nil {
		return nil
	}
	baseline, ok := nutrition.BaselineFor(norm)
	if !ok {
		return nil
	}
	return &baseline
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
