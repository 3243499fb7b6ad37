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

package authz

import (
	"context"
	"sort"
)

// Evaluator answers permission questions against a registry.
type Evaluator struct {
	registry *Registry
}

// NewEvaluator creates an evaluator. It panics when registry is nil.
func NewEvaluator(registry *Registry) *Evaluator {
	if registry == nil {
		panic(ErrNoRegistry)
	}
	return &Evaluator{registry: registry}
}

// Registry returns the registry the evaluator reads.
func (e *Evaluator) Registry() *Registry {
	return e.registry
}

// HasPermission reports whether user may perform permission.
//
// A user without roles is denied. Superuser is allowed unconditionally.
// Otherwise any role of the user that exists in the registry and lists the
// permission allows it; unknown roles grant nothing.
func (e *Evaluator) HasPermission(user *User, permission Permission) bool {
	if user == nil || len(user.Roles) == 0 {
		return false
	}
	if user.HasRole(RoleSuperuser) {
		return true
	}
	for _, id := range user.Roles {
		if e.registry.grants(id, permission) {
			return true
		}
	}
	return false
}

// EffectivePermissions returns the sorted union of permissions granted to
// user. Superuser receives the whole catalog.
func (e *Evaluator) EffectivePermissions(user *User) []Permission {
	if user == nil || len(user.Roles) == 0 {
		return []Permission{}
	}
	if user.HasRole(RoleSuperuser) {
		perms := Catalog()
		sortPermissions(perms)
		return perms
	}

	set := make(map[Permission]struct{})
	for _, id := range user.Roles {
		role, err := e.registry.Role(id)
		if err != nil {
			continue
		}
		for _, p := range role.Permissions {
			set[p] = struct{}{}
		}
	}

	perms := make([]Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	sortPermissions(perms)
	return perms
}

func sortPermissions(perms []Permission) {
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
}

type evaluatorKey struct{}

// WithEvaluator installs e into ctx.
func WithEvaluator(ctx context.Context, e *Evaluator) context.Context {
	return context.WithValue(ctx, evaluatorKey{}, e)
}

// FromContext returns the evaluator installed in ctx. It panics with
// ErrNoRegistry when none was installed.
func FromContext(ctx context.Context) *Evaluator {
	e, ok := ctx.Value(evaluatorKey{}).(*Evaluator)
	if !ok || e == nil {
		panic(ErrNoRegistry)
	}
	return e
}

// HasPermission checks user against the evaluator installed in ctx.
func HasPermission(ctx context.Context, user *User, permission Permission) bool {
	return FromContext(ctx).HasPermission(user, permission)
}
