package domain

import "time"

// User is the locally persisted account backing an Identity.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Avatar       string
	PasswordHash string
	Roles        RoleSet
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity projects the account into its public identity.
func (u *User) Identity() *Identity {
	if u == nil {
		return nil
	}
	return &Identity{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
		Roles:     NewRoleSet(u.Roles.Slice()...),
	}
}
