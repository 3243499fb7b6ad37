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

import "strings"

// -----------------------------------------------------------------------------
// Role Identifiers
// These are the canonical role ids carried in user claims and stored in the
// persisted registry blob.
// -----------------------------------------------------------------------------

// RoleID identifies one of the SISPAT roles.
type RoleID string

const (
	// RoleSuperuser bypasses every permission check.
	// Section: /superuser
	RoleSuperuser RoleID = "superuser"

	// RoleAdmin manages assets, users and role permissions of a municipality.
	RoleAdmin RoleID = "admin"

	// RoleSupervisor oversees inventories and transfers.
	RoleSupervisor RoleID = "supervisor"

	// RoleUser registers and updates assets.
	RoleUser RoleID = "user"

	// RoleViewer has read-only access.
	RoleViewer RoleID = "viewer"
)

// RoleIDs lists the closed set of role identifiers in display order.
func RoleIDs() []RoleID {
	return []RoleID{RoleSuperuser, RoleAdmin, RoleSupervisor, RoleUser, RoleViewer}
}

// Valid reports whether id belongs to the closed role enumeration.
func (id RoleID) Valid() bool {
	switch id {
	case RoleSuperuser, RoleAdmin, RoleSupervisor, RoleUser, RoleViewer:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// Permissions
// Tokens follow the "<resource>:<action>" convention. The constants below form
// the known catalog; any other string is still a Permission and simply never
// matches unless some role was explicitly given it.
// -----------------------------------------------------------------------------

// Permission is a capability token such as "bens:create".
type Permission string

const (
	PermBensCreate Permission = "bens:create"
	PermBensRead   Permission = "bens:read"
	PermBensUpdate Permission = "bens:update"
	PermBensDelete Permission = "bens:delete"

	PermImoveisCreate Permission = "imoveis:create"
	PermImoveisRead   Permission = "imoveis:read"
	PermImoveisUpdate Permission = "imoveis:update"
	PermImoveisDelete Permission = "imoveis:delete"

	PermInventariosCreate Permission = "inventarios:create"
	PermInventariosRead   Permission = "inventarios:read"
	PermInventariosUpdate Permission = "inventarios:update"
	PermInventariosDelete Permission = "inventarios:delete"

	PermTransferenciasCreate Permission = "transferencias:create"
	PermTransferenciasRead   Permission = "transferencias:read"
	PermTransferenciasUpdate Permission = "transferencias:update"

	PermRelatoriosRead   Permission = "relatorios:read"
	PermRelatoriosExport Permission = "relatorios:export"
	PermEtiquetasPrint   Permission = "etiquetas:print"

	PermUsuariosCreate Permission = "usuarios:create"
	PermUsuariosRead   Permission = "usuarios:read"
	PermUsuariosUpdate Permission = "usuarios:update"
	PermUsuariosDelete Permission = "usuarios:delete"

	PermSetoresCreate Permission = "setores:create"
	PermSetoresRead   Permission = "setores:read"
	PermSetoresUpdate Permission = "setores:update"
	PermSetoresDelete Permission = "setores:delete"

	PermLocaisCreate Permission = "locais:create"
	PermLocaisRead   Permission = "locais:read"
	PermLocaisUpdate Permission = "locais:update"
	PermLocaisDelete Permission = "locais:delete"

	PermConfiguracoesRead   Permission = "configuracoes:read"
	PermConfiguracoesUpdate Permission = "configuracoes:update"
	PermAuditoriaRead       Permission = "auditoria:read"

	// PermPermissoesManage allows editing role permission sets.
	PermPermissoesManage Permission = "permissoes:manage"
)

var catalog = []Permission{
	PermBensCreate, PermBensRead, PermBensUpdate, PermBensDelete,
	PermImoveisCreate, PermImoveisRead, PermImoveisUpdate, PermImoveisDelete,
	PermInventariosCreate, PermInventariosRead, PermInventariosUpdate, PermInventariosDelete,
	PermTransferenciasCreate, PermTransferenciasRead, PermTransferenciasUpdate,
	PermRelatoriosRead, PermRelatoriosExport, PermEtiquetasPrint,
	PermUsuariosCreate, PermUsuariosRead, PermUsuariosUpdate, PermUsuariosDelete,
	PermSetoresCreate, PermSetoresRead, PermSetoresUpdate, PermSetoresDelete,
	PermLocaisCreate, PermLocaisRead, PermLocaisUpdate, PermLocaisDelete,
	PermConfiguracoesRead, PermConfiguracoesUpdate,
	PermAuditoriaRead,
	PermPermissoesManage,
}

var known = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(catalog))
	for _, p := range catalog {
		m[p] = struct{}{}
	}
	return m
}()

// Catalog returns every known permission in declaration order.
func Catalog() []Permission {
	out := make([]Permission, len(catalog))
	copy(out, catalog)
	return out
}

// Known reports whether p is part of the catalog.
func (p Permission) Known() bool {
	_, ok := known[p]
	return ok
}

// Resource returns the part before the first colon.
func (p Permission) Resource() string {
	resource, _, _ := strings.Cut(string(p), ":")
	return resource
}

// Action returns the part after the first colon, or "" when there is none.
func (p Permission) Action() string {
	_, action, _ := strings.Cut(string(p), ":")
	return action
}

func (p Permission) String() string {
	return string(p)
}
