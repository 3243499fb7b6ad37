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

package identity

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/guard"
	"github.com/sispat/sispat/internal/observability/logger"
)

// Domain errors
var (
	ErrNoToken      = errors.New("no token presented")
	ErrInvalidToken = errors.New("invalid token")
)

// Authenticator resolves the authentication state of a request. It never
// fails: anything it cannot verify is an unauthenticated caller.
type Authenticator interface {
	Authenticate(r *http.Request) guard.Auth
}

// Claims is the token payload issued by the SISPAT login service.
type Claims struct {
	Name           string   `json:"name,omitempty"`
	MunicipalityID string   `json:"municipality_id,omitempty"`
	Role           string   `json:"role,omitempty"`
	Roles          RoleList `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// User converts verified claims into the normalised user model.
func (c *Claims) User() *authz.User {
	return &authz.User{
		ID:             c.Subject,
		Name:           c.Name,
		MunicipalityID: c.MunicipalityID,
		Roles:          NormalizeRoles(c.Role, c.Roles),
	}
}

// TokenConfig holds token verification settings
type TokenConfig struct {
	Secret     string
	Issuer     string // optional; checked when set
	CookieName string // optional; read when no Authorization header is present
	Leeway     time.Duration
}

// TokenAuthenticator verifies HS256 tokens issued upstream.
type TokenAuthenticator struct {
	cfg    TokenConfig
	parser *jwt.Parser
}

// NewTokenAuthenticator creates a token authenticator
func NewTokenAuthenticator(cfg TokenConfig) *TokenAuthenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &TokenAuthenticator{
		cfg:    cfg,
		parser: jwt.NewParser(opts...),
	}
}

// Verify parses and validates a raw token.
func (a *TokenAuthenticator) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(a.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// Authenticate implements Authenticator.
func (a *TokenAuthenticator) Authenticate(r *http.Request) guard.Auth {
	claims, err := a.Verify(a.tokenFromRequest(r))
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			slog.DebugContext(r.Context(), "rejected token",
				logger.Path(r.URL.Path),
				logger.Error(err),
			)
		}
		return guard.Auth{}
	}
	return guard.Auth{Authenticated: true, User: claims.User()}
}

func (a *TokenAuthenticator) tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if a.cfg.CookieName != "" {
		if c, err := r.Cookie(a.cfg.CookieName); err == nil {
			return c.Value
		}
	}
	return ""
}
