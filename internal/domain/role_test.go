package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("SUPERUSER")
	assert.Error(t, err)
}

func TestParseRoleSet(t *testing.T) {
	set, err := ParseRoleSet([]string{"USER", "ADMIN", "USER"})
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"ADMIN", "USER"}, set.Strings())

	_, err = ParseRoleSet([]string{"USER", "ROOT"})
	assert.Error(t, err)
}

func TestRoleSetIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b RoleSet
		want bool
	}{
		{"shared role", NewRoleSet(RoleAdmin), NewRoleSet(RoleAdmin, RoleUser), true},
		{"disjoint", NewRoleSet(RoleUser), NewRoleSet(RoleAdmin), false},
		{"empty left", NewRoleSet(), NewRoleSet(RoleAdmin), false},
		{"empty right", NewRoleSet(RoleAdmin), NewRoleSet(), false},
		{"nil sets", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Intersects(tt.b))
			assert.Equal(t, tt.want, tt.b.Intersects(tt.a))
		})
	}
}

func TestIdentityDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&Identity{FirstName: "Ada", LastName: "Lovelace"}).DisplayName())
	assert.Equal(t, "ada@example.com", (&Identity{Email: "ada@example.com"}).DisplayName())

	var none *Identity
	assert.Equal(t, "", none.DisplayName())
	assert.False(t, none.HasRole(RoleUser))
}

func TestIdentityCloneIsIndependent(t *testing.T) {
	original := &Identity{ID: "u1", Roles: NewRoleSet(RoleAdmin)}
	clone := original.Clone()
	clone.Roles[RoleUser] = struct{}{}

	assert.False(t, original.HasRole(RoleUser))
	assert.True(t, clone.HasRole(RoleAdmin))
}
