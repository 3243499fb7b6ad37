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

// Package file persists the role registry as a JSON document on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sispat/sispat/internal/authz"
)

// RoleStore implements authz.Store on a single file.
type RoleStore struct {
	path string
	mu   sync.Mutex
}

// NewRoleStore creates a store writing to path.
func NewRoleStore(path string) *RoleStore {
	return &RoleStore{path: path}
}

// Path returns the backing file path.
func (s *RoleStore) Path() string {
	return s.path
}

// Load reads the stored blob.
func (s *RoleStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, authz.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read roles file: %w", err)
	}
	return data, nil
}

// Save replaces the stored blob. Readers see either the old or the new
// document, never a partial write.
func (s *RoleStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create roles directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write roles file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync roles file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close roles file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace roles file: %w", err)
	}
	return nil
}
