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
	"context"

	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/guard"
)

type contextKey string

const authKey contextKey = "auth"

func withAuth(ctx context.Context, auth guard.Auth) context.Context {
	return context.WithValue(ctx, authKey, auth)
}

// GetAuth retrieves the authentication state resolved for the request.
// The zero value means anonymous.
func GetAuth(ctx context.Context) guard.Auth {
	if val, ok := ctx.Value(authKey).(guard.Auth); ok {
		return val
	}
	return guard.Auth{}
}

// GetUser retrieves the authenticated user, or nil.
func GetUser(ctx context.Context) *authz.User {
	auth := GetAuth(ctx)
	if !auth.Authenticated {
		return nil
	}
	return auth.User
}

// GetUserID retrieves the authenticated User ID from context.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.ID
	}
	return ""
}
