package dto

// NavLink is one entry of the navigation header.
type NavLink struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

// HeaderUser is the avatar block shown to signed-in users.
type HeaderUser struct {
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
}

// HeaderResponse is the navigation header model.
type HeaderResponse struct {
	User  *HeaderUser `json:"user"`
	Links []NavLink   `json:"links"`
	Menu  []NavLink   `json:"menu"`
}
