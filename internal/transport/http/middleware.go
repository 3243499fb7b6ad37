// Copyright 2026 The SISPAT Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sispat/sispat/internal/audit"
	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/observability/logger"
)

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware resolves the caller's identity and installs it, together
// with the permission evaluator, into the request context. It never rejects.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := h.authenticator.Authenticate(r)

		ctx := authz.WithEvaluator(r.Context(), h.evaluator)
		ctx = withAuth(ctx, auth)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous callers with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) == nil {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission rejects callers lacking permission with 403.
func (h *Handler) RequirePermission(permission authz.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user := GetUser(ctx)
			if user == nil {
				respondError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			allowed := authz.HasPermission(ctx, user, permission)
			h.metrics.RecordPermissionCheck(ctx, string(permission), allowed)
			if !allowed {
				slog.WarnContext(ctx, "permission denied",
					logger.UserID(user.ID),
					logger.RoleID(string(user.PrimaryRole())),
					logger.Permission(string(permission)),
					logger.Path(r.URL.Path),
				)
				h.auditLogger.Log(ctx, audit.Event{
					Type:           audit.TypeAccessDenied,
					MunicipalityID: user.MunicipalityID,
					ActorID:        user.ID,
					Resource:       r.URL.Path,
					IPAddress:      getIPAddress(r),
					UserAgent:      r.UserAgent(),
					Metadata:       map[string]any{"permission": string(permission)},
				})
				respondError(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CSRFMiddleware protects cookie-authenticated state-changing requests.
// Requests carrying an Authorization header are not exposed to CSRF and
// pass through.
func CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions || r.Method == http.MethodTrace {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("Authorization") == "" && r.Header.Get("X-CSRF-Token") == "" {
			slog.WarnContext(r.Context(), "missing CSRF token header", logger.Method(r.Method), logger.Path(r.URL.Path))
			respondError(w, http.StatusForbidden, "X-CSRF-Token header is required for cookie-authenticated requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
