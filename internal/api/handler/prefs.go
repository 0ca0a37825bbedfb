package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/surveyroute/surveyroute/internal/api/models"
	"github.com/surveyroute/surveyroute/internal/api/response"
	"github.com/surveyroute/surveyroute/internal/prefs"
)

// PrefsHandler handles saved survey plan endpoints.
type PrefsHandler struct {
	svc *prefs.Service
}

// NewPrefsHandler creates a new PrefsHandler.
func NewPrefsHandler(svc *prefs.Service) *PrefsHandler {
	return &PrefsHandler{svc: svc}
}

// ListPlans handles GET /v1/plans - list saved survey plans.
func (h *PrefsHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			response.BadRequest(w, r, "invalid limit", []models.FieldError{
				{Field: "limit", Message: "must be an integer between 1 and 200"},
			})
			return
		}
		limit = parsed
	}

	plans, err := h.svc.List(r.Context(), limit)
	if err != nil {
		response.InternalError(w, r, "failed to list survey plans")
		return
	}
	response.JSON(w, r, http.StatusOK, plans)
}

// CreatePlan handles POST /v1/plans - create a saved survey plan.
func (h *PrefsHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var input models.SurveyPlanCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	plan, err := h.svc.Create(r.Context(), &input)
	if err != nil {
		writePrefsError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/plans/%s", plan.ID)
	response.Created(w, r, location, plan)
}

// GetPlan handles GET /v1/plans/{planId} - get a saved survey plan.
func (h *PrefsHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")
	if planID == "" {
		response.BadRequest(w, r, "planId is required", nil)
		return
	}

	plan, err := h.svc.Get(r.Context(), planID)
	if err != nil {
		writePrefsError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, plan)
}

// UpdatePlan handles PUT /v1/plans/{planId} - update a saved survey plan.
func (h *PrefsHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")
	if planID == "" {
		response.BadRequest(w, r, "planId is required", nil)
		return
	}

	var input models.SurveyPlanUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	plan, err := h.svc.Update(r.Context(), planID, &input)
	if err != nil {
		writePrefsError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, plan)
}

// DeletePlan handles DELETE /v1/plans/{planId} - delete a saved survey plan.
func (h *PrefsHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")
	if planID == "" {
		response.BadRequest(w, r, "planId is required", nil)
		return
	}

	if err := h.svc.Delete(r.Context(), planID); err != nil {
		writePrefsError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// writePrefsError maps prefs service errors to Problem responses.
func writePrefsError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *prefs.ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, r, "validation failed", verr.Errors)
	case errors.Is(err, prefs.ErrPlanNotFound):
		response.NotFound(w, r, "survey plan not found")
	default:
		response.InternalError(w, r, "survey plan operation failed")
	}
}
