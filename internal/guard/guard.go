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

// Package guard decides whether a protected view is rendered or the caller
// is redirected elsewhere.
package guard

import (
	"net/url"
	"strings"

	"github.com/sispat/sispat/internal/authz"
)

// State is the outcome class of a guard evaluation.
type State string

const (
	StateLoading               State = "loading"
	StateUnauthenticated       State = "unauthenticated"
	StateAuthenticatedAllowed  State = "authenticated-allowed"
	StateAuthenticatedRedirect State = "authenticated-redirect"
)

// Auth is the authentication state supplied by the identity collaborator.
type Auth struct {
	Loading       bool
	Authenticated bool
	User          *authz.User
}

// Decision tells the caller what to do with the requested view.
type Decision struct {
	State      State  `json:"state"`
	RedirectTo string `json:"redirect_to,omitempty"`
	// Replace is set on every redirect: the redirect must not leave the
	// protected page in history.
	Replace bool `json:"replace"`
	// From is the originally requested location, set for login redirects.
	From string `json:"from,omitempty"`
}

// Render reports whether the requested content should be shown.
func (d Decision) Render() bool {
	return d.State == StateAuthenticatedAllowed
}

// Redirect reports whether the caller must navigate to RedirectTo.
func (d Decision) Redirect() bool {
	return d.RedirectTo != ""
}

// Decide evaluates the guard rules in order; the first match wins.
//
// location is the requested path, optionally with a query string. allowed
// is the call site's role allow-list; nil or empty means no restriction.
func Decide(auth Auth, location string, allowed []authz.RoleID) Decision {
	if auth.Loading {
		return Decision{State: StateLoading}
	}

	if !auth.Authenticated || auth.User == nil {
		return Decision{
			State:      StateUnauthenticated,
			RedirectTo: LoginLocation(location),
			Replace:    true,
			From:       location,
		}
	}

	role := auth.User.PrimaryRole()
	inSection := UnderSuperuserSection(pathOf(location))

	if role == authz.RoleSuperuser && !inSection {
		return redirect(SuperuserRoot)
	}
	if role != authz.RoleSuperuser && inSection {
		return redirect(RootPath)
	}

	if len(allowed) > 0 && !roleIn(role, allowed) {
		return redirect(DefaultDashboard(role))
	}

	return Decision{State: StateAuthenticatedAllowed}
}

// LoginLocation builds the login URL that returns the user to location.
func LoginLocation(location string) string {
	if location == "" || location == LoginPath {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"from": {location}}.Encode()
}

// UnderSuperuserSection reports whether path is the superuser root or below it.
func UnderSuperuserSection(path string) bool {
	return path == SuperuserRoot || strings.HasPrefix(path, SuperuserRoot+"/")
}

func redirect(to string) Decision {
	return Decision{State: StateAuthenticatedRedirect, RedirectTo: to, Replace: true}
}

func pathOf(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		return location[:i]
	}
	return location
}

func roleIn(role authz.RoleID, allowed []authz.RoleID) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
