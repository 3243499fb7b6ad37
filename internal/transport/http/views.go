package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sispat/sispat/internal/audit"
	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/guard"
	"github.com/sispat/sispat/internal/observability/logger"
)

// ViewRule restricts a view subtree to a set of roles. A nil Allowed list
// admits every authenticated caller.
type ViewRule struct {
	Prefix  string
	Allowed []authz.RoleID
}

// DefaultViewRules returns the role allow-lists of the built-in views.
func DefaultViewRules() []ViewRule {
	return []ViewRule{
		{Prefix: guard.DefaultDashboard(authz.RoleAdmin), Allowed: []authz.RoleID{authz.RoleAdmin}},
		{Prefix: guard.DefaultDashboard(authz.RoleSupervisor), Allowed: []authz.RoleID{authz.RoleSupervisor}},
		{Prefix: guard.DefaultDashboard(authz.RoleUser), Allowed: []authz.RoleID{authz.RoleUser}},
		{Prefix: guard.DefaultDashboard(authz.RoleViewer), Allowed: []authz.RoleID{authz.RoleViewer}},
		{Prefix: "/usuarios", Allowed: []authz.RoleID{authz.RoleAdmin}},
		{Prefix: "/configuracoes", Allowed: []authz.RoleID{authz.RoleAdmin}},
		{Prefix: "/permissoes", Allowed: []authz.RoleID{authz.RoleAdmin}},
	}
}

// allowedRoles returns the allow-list of the longest rule matching path.
func (h *Handler) allowedRoles(path string) []authz.RoleID {
	best := -1
	for i, rule := range h.viewRules {
		if path != rule.Prefix && !strings.HasPrefix(path, rule.Prefix+"/") {
			continue
		}
		if best < 0 || len(rule.Prefix) > len(h.viewRules[best].Prefix) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return h.viewRules[best].Allowed
}

// ViewGuard enforces the route guard in front of a protected view.
func (h *Handler) ViewGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := h.decide(r, r.URL.RequestURI(), h.allowedRoles(r.URL.Path))

		switch {
		case d.State == guard.StateLoading:
			renderLoading(w)
		case d.Redirect():
			http.Redirect(w, r, d.RedirectTo, http.StatusFound)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// decide runs the guard for the current caller and records the outcome.
func (h *Handler) decide(r *http.Request, location string, allowed []authz.RoleID) guard.Decision {
	ctx := r.Context()
	auth := GetAuth(ctx)
	d := guard.Decide(auth, location, allowed)
	h.metrics.RecordGuardDecision(ctx, string(d.State))

	if d.State != guard.StateAuthenticatedRedirect {
		return d
	}

	slog.InfoContext(ctx, "view access redirected",
		logger.UserID(auth.User.ID),
		logger.RoleID(string(auth.User.PrimaryRole())),
		logger.Path(location),
		logger.RedirectTo(d.RedirectTo),
	)
	h.auditLogger.Log(ctx, audit.Event{
		Type:           audit.TypeAccessRedirected,
		MunicipalityID: auth.User.MunicipalityID,
		ActorID:        auth.User.ID,
		Resource:       location,
		IPAddress:      getIPAddress(r),
		UserAgent:      r.UserAgent(),
		Metadata:       map[string]any{"redirect_to": d.RedirectTo},
	})
	return d
}

const loadingPage = `<!doctype html><html lang="pt-BR"><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>SISPAT</title></head><body><p>Carregando...</p></body></html>`

func renderLoading(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(loadingPage))
}
