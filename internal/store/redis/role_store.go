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

// Package redis persists the role registry under a single Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sispat/sispat/internal/authz"
)

// RolesKey is appended to the configured prefix.
const RolesKey = "roles"

// Client is the subset of go-redis client methods used by RoleStore.
type Client interface {
	Ping(ctx context.Context) *goredis.StatusCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Close() error
}

// Config holds Redis connection settings.
type Config struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// RoleStore implements authz.Store on Redis.
type RoleStore struct {
	client Client
	key    string
}

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, cfg Config) (*RoleStore, error) {
	opts := &goredis.Options{
		Addr: cfg.Address,
		DB:   cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: ping failed: %w", cfg.Address, err)
	}
	return NewRoleStore(client, cfg.Prefix), nil
}

// NewRoleStore wraps an existing client.
func NewRoleStore(client Client, prefix string) *RoleStore {
	return &RoleStore{client: client, key: prefix + RolesKey}
}

// Key returns the full Redis key.
func (s *RoleStore) Key() string {
	return s.key
}

// Load returns the stored blob.
func (s *RoleStore) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, authz.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	return data, nil
}

// Save stores the blob without expiry.
func (s *RoleStore) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save roles: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *RoleStore) Close() error {
	return s.client.Close()
}
