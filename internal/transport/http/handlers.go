// @title SISPAT Access Control API
// @version 1.0.0
// @description Role registry, permission checks and route guard decisions for SISPAT.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/swaggo/swag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/sispat/sispat/docs"
	"github.com/sispat/sispat/internal/audit"
	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/identity"
	"github.com/sispat/sispat/internal/observability/metrics"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	registry      *authz.Registry
	evaluator     *authz.Evaluator
	authenticator identity.Authenticator
	auditLogger   audit.Logger
	metrics       *metrics.Instruments
	validate      *validator.Validate
	viewRules     []ViewRule
}

// Option customises a Handler.
type Option func(*Handler)

// WithMetrics records permission checks and guard decisions on m.
func WithMetrics(m *metrics.Instruments) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithViewRules replaces the default view allow-lists.
func WithViewRules(rules []ViewRule) Option {
	return func(h *Handler) { h.viewRules = rules }
}

// NewHandler creates a new HTTP handler
func NewHandler(
	evaluator *authz.Evaluator,
	authenticator identity.Authenticator,
	auditLogger audit.Logger,
	opts ...Option,
) *Handler {
	if auditLogger == nil {
		auditLogger = audit.NewSlogLogger(nil)
	}
	h := &Handler{
		registry:      evaluator.Registry(),
		evaluator:     evaluator,
		authenticator: authenticator,
		auditLogger:   auditLogger,
		validate:      newValidator(),
		viewRules:     DefaultViewRules(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RouterConfig holds the router's transport settings
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// StaticFS holds the built SPA. Views are not served when nil.
	StaticFS fs.FS
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, cfg RouterConfig) *chi.Mux {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", h.HealthCheck)
	r.Get("/swagger/doc.json", h.SwaggerDoc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		// read-only; anonymous callers must reach the guard
		r.Get("/permissions", h.ListPermissions)
		r.Post("/guard/decision", h.GuardDecision)

		r.Group(func(r chi.Router) {
			r.Use(CSRFMiddleware)
			r.Use(RequireAuth)

			r.Get("/roles", h.ListRoles)
			r.Get("/roles/{roleID}", h.GetRole)
			r.Get("/me/permissions", h.MyPermissions)
			r.Get("/permissions/check", h.CheckPermission)

			r.Group(func(r chi.Router) {
				r.Use(h.RequirePermission(authz.PermPermissoesManage))
				r.Put("/roles/{roleID}/permissions", h.UpdateRolePermissions)
				r.Post("/roles/reset", h.ResetRoles)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)
		r.Get("/dashboard", h.Dashboard)
		if cfg.StaticFS != nil {
			r.Handle("/*", SPAHandler{StaticFS: cfg.StaticFS, Protect: h.ViewGuard})
		}
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "sispat",
	})
}

// SwaggerDoc serves the registered OpenAPI document.
func (h *Handler) SwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "api documentation unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return getClientIP(r)
}
