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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sispat/sispat/internal/authz"
)

// RoleList decodes a "roles" claim that may be either a single string or an
// array of strings.
type RoleList []string

func (l *RoleList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*l = nil
		} else {
			*l = RoleList{one}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("roles claim must be a string or an array of strings: %w", err)
	}
	*l = many
	return nil
}

// NormalizeRoles merges the singular role claim and the roles claim into one
// de-duplicated list with the singular role first. Blank entries are dropped.
func NormalizeRoles(role string, roles []string) []authz.RoleID {
	out := make([]authz.RoleID, 0, len(roles)+1)
	seen := make(map[authz.RoleID]bool, len(roles)+1)

	add := func(raw string) {
		id := authz.RoleID(strings.TrimSpace(raw))
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	add(role)
	for _, r := range roles {
		add(r)
	}
	return out
}
