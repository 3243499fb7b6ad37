package guard

import "github.com/sispat/sispat/internal/authz"

// Fixed application paths.
const (
	LoginPath     = "/login"
	RootPath      = "/"
	SuperuserRoot = "/superuser"
)

// dashboards is the single role → default dashboard table. Both the guard
// and the dashboard redirect endpoint read it through DefaultDashboard.
var dashboards = map[authz.RoleID]string{
	authz.RoleSuperuser:  SuperuserRoot,
	authz.RoleAdmin:      "/dashboard/admin",
	authz.RoleSupervisor: "/dashboard/supervisor",
	authz.RoleUser:       "/dashboard/usuario",
	authz.RoleViewer:     "/dashboard/visualizador",
}

// DefaultDashboard returns the landing path for role, or RootPath for roles
// missing from the table.
func DefaultDashboard(role authz.RoleID) string {
	if path, ok := dashboards[role]; ok {
		return path
	}
	return RootPath
}

// Dashboards returns a copy of the table.
func Dashboards() map[authz.RoleID]string {
	out := make(map[authz.RoleID]string, len(dashboards))
	for k, v := range dashboards {
		out[k] = v
	}
	return out
}
