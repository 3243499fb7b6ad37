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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sispat/sispat/internal/observability/logger"
)

// Registry holds the current role list. It starts from a seed, is replaced
// wholesale by whatever the store holds, and is written back in full after
// every edit.
type Registry struct {
	mu    sync.RWMutex
	roles []Role
	seed  []Role
	store Store
}

// NewRegistry creates a registry holding a copy of seed. Call Init to load
// persisted data.
func NewRegistry(store Store, seed []Role) *Registry {
	return &Registry{
		roles: cloneRoles(seed),
		seed:  cloneRoles(seed),
		store: store,
	}
}

// Init loads the persisted registry. Persisted data fully replaces the seed.
// Missing, unreadable or corrupt data leaves the seed in place.
func (r *Registry) Init(ctx context.Context) {
	if r.store == nil {
		return
	}

	data, err := r.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.InfoContext(ctx, "no persisted roles, using defaults", logger.Component("authz"))
		} else {
			slog.WarnContext(ctx, "failed to load persisted roles, using defaults",
				logger.Component("authz"),
				logger.Error(err),
			)
		}
		return
	}

	roles, err := decodeRoles(data)
	if err != nil {
		slog.WarnContext(ctx, "persisted roles are corrupt, using defaults",
			logger.Component("authz"),
			logger.Error(err),
		)
		return
	}

	r.mu.Lock()
	r.roles = roles
	r.mu.Unlock()

	slog.InfoContext(ctx, "loaded persisted roles", logger.Component("authz"), slog.Int("roles", len(roles)))
}

// Roles returns a copy of the current role list in registry order.
func (r *Registry) Roles() []Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneRoles(r.roles)
}

// Role returns a copy of one role.
func (r *Registry) Role(id RoleID) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, role := range r.roles {
		if role.ID == id {
			return role.clone(), nil
		}
	}
	return Role{}, ErrRoleNotFound
}

// grants reports whether role id exists and holds permission. Missing roles
// grant nothing.
func (r *Registry) grants(id RoleID, permission Permission) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.roles {
		if r.roles[i].ID == id {
			return r.roles[i].HasPermission(permission)
		}
	}
	return false
}

// SetRolePermissions replaces the permission set of exactly one role and
// persists the full registry. Permission strings are not validated.
// A failed write is logged and the in-memory change is kept.
func (r *Registry) SetRolePermissions(ctx context.Context, id RoleID, permissions []Permission) error {
	for _, p := range permissions {
		if !p.Known() {
			slog.WarnContext(ctx, "role granted a permission outside the catalog",
				logger.Component("authz"),
				logger.RoleID(string(id)),
				logger.Permission(string(p)),
			)
		}
	}

	perms := make([]Permission, len(permissions))
	copy(perms, permissions)

	r.mu.Lock()
	idx := -1
	for i := range r.roles {
		if r.roles[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return ErrRoleNotFound
	}
	r.roles[idx].Permissions = perms
	snapshot := cloneRoles(r.roles)
	r.mu.Unlock()

	r.persist(ctx, snapshot)
	return nil
}

// Reset restores the seed and persists it.
func (r *Registry) Reset(ctx context.Context) {
	r.mu.Lock()
	r.roles = cloneRoles(r.seed)
	snapshot := cloneRoles(r.roles)
	r.mu.Unlock()

	r.persist(ctx, snapshot)
}

func (r *Registry) persist(ctx context.Context, roles []Role) {
	if r.store == nil {
		return
	}
	data, err := json.Marshal(roles)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode roles", logger.Component("authz"), logger.Error(err))
		return
	}
	if err := r.store.Save(ctx, data); err != nil {
		slog.ErrorContext(ctx, "failed to persist roles", logger.Component("authz"), logger.Error(err))
	}
}

func decodeRoles(data []byte) ([]Role, error) {
	var roles []Role
	if err := json.Unmarshal(data, &roles); err != nil {
		return nil, fmt.Errorf("failed to decode roles: %w", err)
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("persisted registry is empty")
	}
	for i := range roles {
		if roles[i].ID == "" {
			return nil, fmt.Errorf("persisted role %d has no id", i)
		}
		if roles[i].Permissions == nil {
			roles[i].Permissions = []Permission{}
		}
	}
	return roles, nil
}

func cloneRoles(roles []Role) []Role {
	out := make([]Role, len(roles))
	for i, r := range roles {
		out[i] = r.clone()
	}
	return out
}
