package http

import (
	"encoding/json"
	"net/http"

	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/guard"
)

// GuardDecision evaluates the route guard for a client-side navigation
// @Summary Route guard decision
// @Description Returns whether the caller may render a view, or where to redirect.
// @Tags Guard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GuardDecisionRequest true "View and its role allow-list"
// @Success 200 {object} guard.Decision
// @Failure 400 {object} map[string]string
// @Router /guard/decision [post]
func (h *Handler) GuardDecision(w http.ResponseWriter, r *http.Request) {
	var req GuardDecisionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	allowed := make([]authz.RoleID, len(req.AllowedRoles))
	for i, id := range req.AllowedRoles {
		allowed[i] = authz.RoleID(id)
	}

	respondJSON(w, http.StatusOK, h.decide(r, req.Path, allowed))
}

// Dashboard sends the caller to the dashboard of their primary role.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d := h.decide(r, r.URL.RequestURI(), nil)
	switch {
	case d.State == guard.StateLoading:
		renderLoading(w)
	case d.Redirect():
		http.Redirect(w, r, d.RedirectTo, http.StatusFound)
	default:
		http.Redirect(w, r, guard.DefaultDashboard(GetUser(r.Context()).PrimaryRole()), http.StatusFound)
	}
}
