package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"business-workers/internal/common/errors"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleReviewer Role = "reviewer"
	RoleMerchant Role = "merchant"
)

type Permission string

const (
	PermissionReviewRequests   Permission = "review_requests"
	PermissionActivateBusiness Permission = "activate_business"
	PermissionSubmitRequests   Permission = "submit_requests"
)

var rolePermissions = map[Permission][]Role{
	PermissionReviewRequests:   {RoleAdmin, RoleReviewer},
	PermissionActivateBusiness: {RoleAdmin},
	PermissionSubmitRequests:   {RoleMerchant, RoleAdmin},
}

func knownRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleReviewer, RoleMerchant:
		return true
	}
	return false
}

// RoleMapper translates identity-provider role names into internal roles.
// Names are matched case-insensitively since viper lowercases map keys.
// Unmapped external roles are ignored.
type RoleMapper struct {
	table map[string]Role
}

// NewRoleMapper builds the table from external name -> internal role pairs and
// rejects any pair naming an unknown internal role.
func NewRoleMapper(mappings map[string]string) (*RoleMapper, error) {
	if len(mappings) == 0 {
		return nil, fmt.Errorf("role mappings are empty")
	}

	table := make(map[string]Role, len(mappings))
	var unknown []string
	for external, internal := range mappings {
		r := Role(strings.ToLower(strings.TrimSpace(internal)))
		if !knownRole(r) {
			unknown = append(unknown, fmt.Sprintf("%s->%s", external, internal))
			continue
		}
		table[strings.ToLower(strings.TrimSpace(external))] = r
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("role mappings reference unknown internal roles: %s", strings.Join(unknown, ", "))
	}
	return &RoleMapper{table: table}, nil
}

// Map returns the distinct internal roles for the given external role names.
func (m *RoleMapper) Map(external []string) []Role {
	seen := make(map[Role]bool)
	var out []Role
	for _, name := range external {
		if r, ok := m.table[strings.ToLower(name)]; ok && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// HasPermission reports whether any of roles grants p.
func HasPermission(roles []Role, p Permission) bool {
	for _, allowed := range rolePermissions[p] {
		for _, r := range roles {
			if r == allowed {
				return true
			}
		}
	}
	return false
}

// RoleSource is the identity provider view used by Authorizer.
type RoleSource interface {
	GetUserRealmRoles(ctx context.Context, userID string) ([]string, error)
}

type Authorizer struct {
	source RoleSource
	mapper *RoleMapper
}

func NewAuthorizer(source RoleSource, mapper *RoleMapper) *Authorizer {
	return &Authorizer{source: source, mapper: mapper}
}

// Roles returns the internal roles currently held by userID.
func (a *Authorizer) Roles(ctx context.Context, userID string) ([]Role, error) {
	external, err := a.source.GetUserRealmRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return a.mapper.Map(external), nil
}

// Require fails with PERMISSION_DENIED unless userID holds a role granting p.
func (a *Authorizer) Require(ctx context.Context, userID string, p Permission) error {
	if strings.TrimSpace(userID) == "" {
		return errors.NewPermissionDeniedError("anonymous", string(p))
	}
	roles, err := a.Roles(ctx, userID)
	if err != nil {
		return err
	}
	if !HasPermission(roles, p) {
		return errors.NewPermissionDeniedError(userID, string(p))
	}
	return nil
}
