package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sispat/sispat/internal/audit"
	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/guard"
)

// TestPurpose: Validates that role endpoints reject anonymous callers.
// Scope: Unit Test
// Security: Authentication required for registry reads (CWE-306)
// Expected: HTTP 401 with a JSON error body.
// Test Case ID: API-01
func TestRoles_Anonymous_ReturnsUnauthorized(t *testing.T) {
	s := newTestServer(t, guard.Auth{})

	w := s.do(t, http.MethodGet, "/api/v1/roles", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	requireJSON(t, w)
	assert.JSONEq(t, `{"error":"not authenticated"}`, w.Body.String())
}

// TestPurpose: Validates that any authenticated caller can read the registry.
// Scope: Unit Test
// Test Case ID: API-02
func TestRoles_ListAndGet(t *testing.T) {
	s := newTestServer(t, userWith(authz.RoleViewer))

	w := s.do(t, http.MethodGet, "/api/v1/roles", "")
	require.Equal(t, http.StatusOK, w.Code)
	var roles []authz.Role
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roles))
	assert.Len(t, roles, len(authz.RoleIDs()))

	w = s.do(t, http.MethodGet, "/api/v1/roles/viewer", "")
	require.Equal(t, http.StatusOK, w.Code)
	var viewer authz.Role
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &viewer))
	assert.Contains(t, viewer.Permissions, authz.PermBensRead)

	w = s.do(t, http.MethodGet, "/api/v1/roles/auditor", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPurpose: Validates that editing permissions requires permissoes:manage.
// Scope: Unit Test
// Security: Privilege escalation prevention (CWE-269)
// Expected: HTTP 403, an access_denied audit event, and no registry change.
// Test Case ID: API-03
func TestUpdateRolePermissions_Forbidden(t *testing.T) {
	s := newTestServer(t, userWith(authz.RoleViewer))

	w := s.do(t, http.MethodPut, "/api/v1/roles/viewer/permissions", `{"permissions":["permissoes:manage"]}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, []string{audit.TypeAccessDenied}, s.audit.types())

	viewer, err := s.registry.Role(authz.RoleViewer)
	require.NoError(t, err)
	assert.NotContains(t, viewer.Permissions, authz.PermPermissoesManage)
	assert.Zero(t, s.store.saves)
}

// TestPurpose: Validates a successful permission replacement by an administrator.
// Scope: Unit Test
// Expected: HTTP 200 with the updated role, persisted snapshot, and an audit event.
// Test Case ID: API-04
func TestUpdateRolePermissions_Admin(t *testing.T) {
	s := newTestServer(t, userWith(authz.RoleAdmin))

	w := s.do(t, http.MethodPut, "/api/v1/roles/viewer/permissions", `{"permissions":["bens:read","etiquetas:print"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var role authz.Role
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &role))
	assert.Equal(t, []authz.Permission{authz.PermBensRead, authz.PermEtiquetasPrint}, role.Permissions)
	stored, err := s.registry.Role(authz.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, stored, role)
	assert.Equal(t, 1, s.store.saves)
	assert.Equal(t, []string{audit.TypeRolePermissionsUpdated}, s.audit.types())

	w = s.do(t, http.MethodPut, "/api/v1/roles/viewer/permissions", `{"permissions":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	stored, err = s.registry.Role(authz.RoleViewer)
	require.NoError(t, err)
	assert.Empty(t, stored.Permissions)
}

// TestPurpose: Validates request body checks on permission replacement.
// Scope: Unit Test
// Security: Input validation boundary
// Expected: 400 for malformed or incomplete bodies, 404 for unknown roles.
// Test Case ID: API-05
func TestUpdateRolePermissions_BadInput(t *testing.T) {
	s := newTestServer(t, userWith(authz.RoleAdmin))

	cases := map[string]struct {
		target string
		body   string
		want   int
	}{
		"malformed json":    {"/api/v1/roles/viewer/permissions", `{invalid}`, http.StatusBadRequest},
		"missing field":     {"/api/v1/roles/viewer/permissions", `{}`, http.StatusBadRequest},
		"unknown role":      {"/api/v1/roles/auditor/permissions", `{"permissions":["bens:read"]}`, http.StatusNotFound},
		"permission object": {"/api/v1/roles/viewer/permissions", `{"permissions":[{"p":1}]}`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := s.do(t, http.MethodPut, tc.target, tc.body)
			assert.Equal(t, tc.want, w.Code)
			requireJSON(t, w)
			assert.NotContains(t, strings.ToLower(w.Body.String()), "goroutine")
		})
	}
	assert.Zero(t, s.store.saves)
}

// TestPurpose: Validates that reset restores the default registry.
// Scope: Unit Test
// Test Case ID: API-06
func TestResetRoles(t *testing.T) {
	s := newTestServer(t, userWith(authz.RoleSuperuser))
	require.NoError(t, s.registry.SetRolePermissions(context.Background(), authz.RoleViewer, nil))

	w := s.do(t, http.MethodPost, "/api/v1/roles/reset", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, authz.DefaultRoles(), s.registry.Roles())
	assert.Contains(t, s.audit.types(), audit.TypeRolesReset)
}

// TestPurpose: Validates the single-permission check endpoint.
// Scope: Unit Test
// Expected: allowed reflects the caller's role; a missing query parameter is a 400.
// Test Case ID: API-07
func TestCheckPermission(t *testing.T) {
	s := newTestServer(t, userWith(authz.RoleViewer))

	w := s.do(t, http.MethodGet, "/api/v1/permissions/check?permission=bens:read", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"permission":"bens:read","allowed":true}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/permissions/check?permission=bens:create", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"permission":"bens:create","allowed":false}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/permissions/check", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPurpose: Validates the effective permission listing and the public catalog.
// Scope: Unit Test
// Test Case ID: API-08
func TestMyPermissionsAndCatalog(t *testing.T) {
	s := newTestServer(t, userWith(authz.RoleViewer))

	w := s.do(t, http.MethodGet, "/api/v1/me/permissions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp EffectivePermissionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u-viewer", resp.UserID)
	assert.Equal(t, []authz.Permission{
		authz.PermBensRead, authz.PermImoveisRead, authz.PermInventariosRead, authz.PermRelatoriosRead,
	}, resp.Permissions)

	anon := newTestServer(t, guard.Auth{})
	w = anon.do(t, http.MethodGet, "/api/v1/permissions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var catalog []authz.Permission
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catalog))
	assert.Equal(t, authz.Catalog(), catalog)
}

// TestPurpose: Validates the guard decision endpoint used by the client router.
// Scope: Unit Test
// Expected: JSON decisions matching the guard rules for anonymous and authenticated callers.
// Test Case ID: API-09
func TestGuardDecision(t *testing.T) {
	anon := newTestServer(t, guard.Auth{})
	w := anon.do(t, http.MethodPost, "/api/v1/guard/decision", `{"path":"/bens"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"unauthenticated","redirect_to":"/login?from=%2Fbens","replace":true,"from":"/bens"}`, w.Body.String())

	viewer := newTestServer(t, userWith(authz.RoleViewer))
	w = viewer.do(t, http.MethodPost, "/api/v1/guard/decision", `{"path":"/dashboard/admin","allowed_roles":["admin"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"authenticated-redirect","redirect_to":"/dashboard/visualizador","replace":true}`, w.Body.String())
	assert.Equal(t, []string{audit.TypeAccessRedirected}, viewer.audit.types())

	w = viewer.do(t, http.MethodPost, "/api/v1/guard/decision", `{"path":"bens"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPurpose: Validates that an anonymous client with no credentials and no CSRF header still gets a guard decision.
// Scope: Unit Test
// Expected: HTTP 200 with the unauthenticated login redirect.
// Test Case ID: API-12
func TestGuardDecision_NoCredentialsNoCSRFHeader(t *testing.T) {
	s := newTestServer(t, guard.Auth{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/guard/decision", strings.NewReader(`{"path":"/inventarios"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"state":"unauthenticated","redirect_to":"/login?from=%2Finventarios","replace":true,"from":"/inventarios"}`, w.Body.String())
}

// TestPurpose: Validates that permission strings are stored as given, including ones outside the catalog.
// Scope: Unit Test
// Expected: HTTP 200; the empty and unknown strings are kept verbatim.
// Test Case ID: API-13
func TestUpdateRolePermissions_AcceptsAnyString(t *testing.T) {
	s := newTestServer(t, userWith(authz.RoleAdmin))

	w := s.do(t, http.MethodPut, "/api/v1/roles/user/permissions", `{"permissions":["","painel:custom"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var role authz.Role
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &role))
	assert.Equal(t, []authz.Permission{"", "painel:custom"}, role.Permissions)

	stored, err := s.registry.Role(authz.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, stored, role)
}

// TestPurpose: Validates that cookie-authenticated mutations must carry the CSRF header.
// Scope: Unit Test
// Security: Cross-Site Request Forgery (CWE-352)
// Test Case ID: API-10
func TestCSRF_CookieMutationRequiresHeader(t *testing.T) {
	s := newTestServer(t, userWith(authz.RoleAdmin))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/roles/reset", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/roles/reset", nil)
	req.Header.Set("X-CSRF-Token", "1")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestPurpose: Validates health and API documentation endpoints.
// Scope: Unit Test
// Security: Prevents MIME sniffing attacks
// Test Case ID: API-11
func TestHealthAndSwagger(t *testing.T) {
	s := newTestServer(t, guard.Auth{})

	w := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	requireJSON(t, w)
	assert.JSONEq(t, `{"status":"healthy","service":"sispat"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, json.Valid(w.Body.Bytes()))
	assert.Contains(t, w.Body.String(), "SISPAT Access Control API")
	assert.Contains(t, w.Body.String(), "/roles/{roleID}/permissions")
}
