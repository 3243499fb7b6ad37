package guard

import (
	"net/url"
	"testing"

	"github.com/sispat/sispat/internal/authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIn(roles ...authz.RoleID) Auth {
	return Auth{Authenticated: true, User: &authz.User{ID: "u-1", Roles: roles}}
}

// TestPurpose: Validates that nothing is decided while authentication is resolving.
// Scope: Unit Test
// Expected: loading state, no redirect, even for otherwise-redirecting inputs.
// Test Case ID: GRD-01
func TestDecide_Loading(t *testing.T) {
	d := Decide(Auth{Loading: true, Authenticated: true, User: &authz.User{Roles: []authz.RoleID{authz.RoleSuperuser}}}, "/dashboard", nil)
	assert.Equal(t, StateLoading, d.State)
	assert.False(t, d.Redirect())
	assert.False(t, d.Render())
}

// TestPurpose: Validates that unauthenticated visits go to login and keep the original location.
// Scope: Unit Test
// Security: Protected views never render for anonymous callers
// Expected: replace-redirect to /login?from=<original>.
// Test Case ID: GRD-02
func TestDecide_Unauthenticated(t *testing.T) {
	paths := []string{"/", "/dashboard", "/bens/42?tab=historico", "/superuser/municipios"}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			d := Decide(Auth{}, p, []authz.RoleID{authz.RoleAdmin})
			assert.Equal(t, StateUnauthenticated, d.State)
			assert.True(t, d.Replace)
			assert.Equal(t, p, d.From)

			u, err := url.Parse(d.RedirectTo)
			require.NoError(t, err)
			assert.Equal(t, LoginPath, u.Path)
			assert.Equal(t, p, u.Query().Get("from"))
		})
	}

	// authenticated flag without a user is still anonymous
	d := Decide(Auth{Authenticated: true}, "/dashboard", nil)
	assert.Equal(t, StateUnauthenticated, d.State)
}

// TestPurpose: Validates that superusers are confined to their section.
// Scope: Unit Test
// Expected: superuser on /dashboard is sent to /superuser; inside the section renders.
// Test Case ID: GRD-03
func TestDecide_SuperuserConfinedToSection(t *testing.T) {
	d := Decide(signedIn(authz.RoleSuperuser), "/dashboard", nil)
	assert.Equal(t, Decision{State: StateAuthenticatedRedirect, RedirectTo: SuperuserRoot, Replace: true}, d)

	for _, p := range []string{"/superuser", "/superuser/", "/superuser/municipios?page=2"} {
		d = Decide(signedIn(authz.RoleSuperuser), p, nil)
		assert.True(t, d.Render(), p)
	}

	// a look-alike prefix is not the section
	d = Decide(signedIn(authz.RoleSuperuser), "/superusers", nil)
	assert.Equal(t, SuperuserRoot, d.RedirectTo)
}

// TestPurpose: Validates that non-superusers never see the superuser section.
// Scope: Unit Test
// Security: Vertical privilege escalation via URL
// Expected: replace-redirect to the application root.
// Test Case ID: GRD-04
func TestDecide_NonSuperuserLeavesSection(t *testing.T) {
	for _, role := range []authz.RoleID{authz.RoleAdmin, authz.RoleSupervisor, authz.RoleUser, authz.RoleViewer, "ghost"} {
		d := Decide(signedIn(role), "/superuser/anything", nil)
		assert.Equal(t, StateAuthenticatedRedirect, d.State, role)
		assert.Equal(t, RootPath, d.RedirectTo, role)
		assert.True(t, d.Replace)
	}
}

// TestPurpose: Validates allow-list redirects to the role's own dashboard.
// Scope: Unit Test
// Expected: supervisor on an admin-only route lands on the supervisor dashboard.
// Test Case ID: GRD-05
func TestDecide_AllowListRedirectsToDefaultDashboard(t *testing.T) {
	adminOnly := []authz.RoleID{authz.RoleAdmin}

	d := Decide(signedIn(authz.RoleSupervisor), "/dashboard/admin", adminOnly)
	assert.Equal(t, StateAuthenticatedRedirect, d.State)
	assert.Equal(t, "/dashboard/supervisor", d.RedirectTo)
	assert.True(t, d.Replace)

	d = Decide(signedIn(authz.RoleAdmin), "/dashboard/admin", adminOnly)
	assert.True(t, d.Render())

	// unmapped role degrades to root instead of failing
	d = Decide(signedIn("ghost"), "/dashboard/admin", adminOnly)
	assert.Equal(t, RootPath, d.RedirectTo)

	// user with no roles at all
	d = Decide(signedIn(), "/dashboard/admin", adminOnly)
	assert.Equal(t, RootPath, d.RedirectTo)
}

// TestPurpose: Validates that the guard reasons about the primary role only.
// Scope: Unit Test
// Test Case ID: GRD-06
func TestDecide_UsesPrimaryRole(t *testing.T) {
	d := Decide(signedIn(authz.RoleViewer, authz.RoleAdmin), "/dashboard/admin", []authz.RoleID{authz.RoleAdmin})
	assert.Equal(t, "/dashboard/visualizador", d.RedirectTo)

	d = Decide(signedIn(authz.RoleViewer, authz.RoleSuperuser), "/superuser", nil)
	assert.Equal(t, RootPath, d.RedirectTo)
}

// TestPurpose: Validates the fall-through render case.
// Scope: Unit Test
// Test Case ID: GRD-07
func TestDecide_Allowed(t *testing.T) {
	d := Decide(signedIn(authz.RoleUser), "/bens", nil)
	assert.Equal(t, Decision{State: StateAuthenticatedAllowed}, d)

	d = Decide(signedIn(authz.RoleUser), "/bens", []authz.RoleID{authz.RoleAdmin, authz.RoleUser})
	assert.True(t, d.Render())
}

func TestDefaultDashboard(t *testing.T) {
	want := map[authz.RoleID]string{
		authz.RoleSuperuser:  "/superuser",
		authz.RoleAdmin:      "/dashboard/admin",
		authz.RoleSupervisor: "/dashboard/supervisor",
		authz.RoleUser:       "/dashboard/usuario",
		authz.RoleViewer:     "/dashboard/visualizador",
	}
	assert.Equal(t, want, Dashboards())
	for role, path := range want {
		assert.Equal(t, path, DefaultDashboard(role))
	}
	assert.Equal(t, RootPath, DefaultDashboard("ghost"))
	assert.Equal(t, RootPath, DefaultDashboard(""))
}

func TestLoginLocation(t *testing.T) {
	assert.Equal(t, "/login", LoginLocation(""))
	assert.Equal(t, "/login", LoginLocation("/login"))
	assert.Equal(t, "/login?from=%2Fbens%3Fq%3D1", LoginLocation("/bens?q=1"))
}
