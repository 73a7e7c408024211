package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Role enumerates the capabilities that can be granted to an account.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// AllRoles lists every known role.
var AllRoles = []Role{RoleAdmin, RoleUser}

// ParseRole converts a raw value into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// ParseRoleSet parses raw role names, rejecting unknown values.
func ParseRoleSet(raw []string) (RoleSet, error) {
	set := make(RoleSet, len(raw))
	for _, value := range raw {
		role, err := ParseRole(value)
		if err != nil {
			return nil, err
		}
		set[role] = struct{}{}
	}
	return set, nil
}

// Contains reports whether role is in the set.
func (s RoleSet) Contains(role Role) bool {
	_, ok := s[role]
	return ok
}

// Intersects reports whether the two sets share at least one role.
// An empty set never intersects anything.
func (s RoleSet) Intersects(other RoleSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for role := range small {
		if _, ok := large[role]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of roles.
func (s RoleSet) Len() int {
	return len(s)
}

// Slice returns the roles sorted by name.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for role := range s {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted role names.
func (s RoleSet) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}
