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
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultSeed []byte

type seedDocument struct {
	Roles []Role `yaml:"roles"`
}

// DefaultRoles returns the embedded seed of the five SISPAT roles.
func DefaultRoles() []Role {
	roles, err := ParseSeed(defaultSeed)
	if err != nil {
		// The embedded document is part of the binary.
		panic(fmt.Sprintf("authz: embedded role seed is invalid: %v", err))
	}
	return roles
}

// LoadSeedFile reads a seed document from disk.
func LoadSeedFile(path string) ([]Role, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document. Role ids must be unique;
// permission strings are taken as-is.
func ParseSeed(data []byte) ([]Role, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse role seed: %w", err)
	}
	if len(doc.Roles) == 0 {
		return nil, fmt.Errorf("role seed defines no roles")
	}

	seen := make(map[RoleID]bool, len(doc.Roles))
	for i, r := range doc.Roles {
		if r.ID == "" {
			return nil, fmt.Errorf("role seed entry %d has no id", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("role seed defines %q twice", r.ID)
		}
		seen[r.ID] = true
		if doc.Roles[i].Permissions == nil {
			doc.Roles[i].Permissions = []Permission{}
		}
	}
	return doc.Roles, nil
}
