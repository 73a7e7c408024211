package domain

import "strings"

// Identity is the authenticated actor as seen by the web client.
// A nil *Identity means nobody is signed in; an Identity with no roles is
// still authenticated.
type Identity struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Avatar    string
	Roles     RoleSet
}

// DisplayName joins first and last name, falling back to the email.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	name := strings.TrimSpace(strings.Join([]string{i.FirstName, i.LastName}, " "))
	if name == "" {
		return i.Email
	}
	return name
}

// HasRole reports whether the identity carries role.
func (i *Identity) HasRole(role Role) bool {
	if i == nil {
		return false
	}
	return i.Roles.Contains(role)
}

// Clone returns a deep copy so published values stay immutable.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	out.Roles = NewRoleSet(i.Roles.Slice()...)
	return &out
}
