package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sispat/sispat/internal/audit"
	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/observability/logger"
)

const maxBodyBytes = 64 << 10

// PermissionCheckResponse is the result of a single permission check.
type PermissionCheckResponse struct {
	Permission string `json:"permission"`
	Allowed    bool   `json:"allowed"`
}

// EffectivePermissionsResponse lists what the caller may do.
type EffectivePermissionsResponse struct {
	UserID      string             `json:"user_id"`
	Roles       []authz.RoleID     `json:"roles"`
	Permissions []authz.Permission `json:"permissions"`
}

// ListRoles returns the current registry
// @Summary List roles
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} authz.Role
// @Failure 401 {object} map[string]string
// @Router /roles [get]
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.registry.Roles())
}

// GetRole returns one role
// @Summary Get role
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Param roleID path string true "Role ID"
// @Success 200 {object} authz.Role
// @Failure 404 {object} map[string]string
// @Router /roles/{roleID} [get]
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.registry.Role(authz.RoleID(chi.URLParam(r, "roleID")))
	if err != nil {
		respondError(w, http.StatusNotFound, "role not found")
		return
	}
	respondJSON(w, http.StatusOK, role)
}

// UpdateRolePermissions replaces a role's permission set
// @Summary Replace role permissions
// @Tags Roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param roleID path string true "Role ID"
// @Param request body UpdateRolePermissionsRequest true "New permission set"
// @Success 200 {object} authz.Role
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /roles/{roleID}/permissions [put]
func (h *Handler) UpdateRolePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roleID := authz.RoleID(chi.URLParam(r, "roleID"))

	var req UpdateRolePermissionsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	perms := make([]authz.Permission, len(req.Permissions))
	for i, p := range req.Permissions {
		perms[i] = authz.Permission(p)
	}

	if err := h.registry.SetRolePermissions(ctx, roleID, perms); err != nil {
		if errors.Is(err, authz.ErrRoleNotFound) {
			respondError(w, http.StatusNotFound, "role not found")
			return
		}
		slog.ErrorContext(ctx, "failed to update role permissions", logger.RoleID(string(roleID)), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	user := GetUser(ctx)
	h.metrics.RecordRoleUpdate(ctx, string(roleID))
	h.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeRolePermissionsUpdated,
		MunicipalityID: user.MunicipalityID,
		ActorID:        user.ID,
		Resource:       "role:" + string(roleID),
		IPAddress:      getIPAddress(r),
		UserAgent:      r.UserAgent(),
		Metadata:       map[string]any{"permissions": req.Permissions},
	})

	role, err := h.registry.Role(roleID)
	if err != nil {
		slog.ErrorContext(ctx, "role vanished after update", logger.RoleID(string(roleID)), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	respondJSON(w, http.StatusOK, role)
}

// ResetRoles restores the default registry
// @Summary Reset roles to defaults
// @Tags Roles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} authz.Role
// @Failure 403 {object} map[string]string
// @Router /roles/reset [post]
func (h *Handler) ResetRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.registry.Reset(ctx)

	user := GetUser(ctx)
	h.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeRolesReset,
		MunicipalityID: user.MunicipalityID,
		ActorID:        user.ID,
		Resource:       "roles",
		IPAddress:      getIPAddress(r),
		UserAgent:      r.UserAgent(),
	})

	respondJSON(w, http.StatusOK, h.registry.Roles())
}

// ListPermissions returns the permission catalog
// @Summary Permission catalog
// @Tags Permissions
// @Produce json
// @Success 200 {array} string
// @Router /permissions [get]
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, authz.Catalog())
}

// MyPermissions returns the caller's effective permissions
// @Summary Effective permissions of the caller
// @Tags Permissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} EffectivePermissionsResponse
// @Router /me/permissions [get]
func (h *Handler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	respondJSON(w, http.StatusOK, EffectivePermissionsResponse{
		UserID:      user.ID,
		Roles:       user.Roles,
		Permissions: h.evaluator.EffectivePermissions(user),
	})
}

// CheckPermission answers a single permission query for the caller
// @Summary Check a permission
// @Tags Permissions
// @Produce json
// @Security BearerAuth
// @Param permission query string true "Permission, e.g. bens:read"
// @Success 200 {object} PermissionCheckResponse
// @Failure 400 {object} map[string]string
// @Router /permissions/check [get]
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	permission := r.URL.Query().Get("permission")
	if permission == "" {
		respondError(w, http.StatusBadRequest, "permission is required")
		return
	}

	allowed := authz.HasPermission(ctx, GetUser(ctx), authz.Permission(permission))
	h.metrics.RecordPermissionCheck(ctx, permission, allowed)

	respondJSON(w, http.StatusOK, PermissionCheckResponse{Permission: permission, Allowed: allowed})
}
