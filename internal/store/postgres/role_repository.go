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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sispat/sispat/internal/authz"
)

// RolesSettingKey is the app_settings row holding the role registry.
const RolesSettingKey = "sispat_roles"

var tracer = otel.Tracer("github.com/sispat/sispat/internal/store/postgres")

// Querier is the subset of pgxpool.Pool used by the repository.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RoleRepository implements authz.Store on the app_settings table.
type RoleRepository struct {
	q   Querier
	key string
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *DB) *RoleRepository {
	return NewRoleRepositoryWithQuerier(db.pool)
}

// NewRoleRepositoryWithQuerier builds a repository over any Querier.
func NewRoleRepositoryWithQuerier(q Querier) *RoleRepository {
	return &RoleRepository{q: q, key: RolesSettingKey}
}

// Load returns the stored registry blob.
func (r *RoleRepository) Load(ctx context.Context) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "RoleRepository.Load")
	defer span.End()
	span.SetAttributes(attribute.String("setting.key", r.key))

	var value []byte
	err := r.q.QueryRow(ctx, `
		SELECT value FROM app_settings WHERE key = $1
	`, r.key).Scan(&value)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	return value, nil
}

// Save upserts the registry blob.
func (r *RoleRepository) Save(ctx context.Context, data []byte) error {
	ctx, span := tracer.Start(ctx, "RoleRepository.Save")
	defer span.End()
	span.SetAttributes(attribute.String("setting.key", r.key))

	_, err := r.q.Exec(ctx, `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, r.key, string(data))

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save roles: %w", err)
	}

	return nil
}
