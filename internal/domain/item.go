package domain

import "time"

// MaxItemNameLength bounds an item's name in characters.
const MaxItemNameLength = 255

// Item is a named record owned by a single user.
type Item struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
