package model

// UserRole is carried in the access token issued after the OAuth login.
type UserRole string

const (
	Member UserRole = "member"
	Editor UserRole = "editor"
	Admin  UserRole = "admin"
)

func (r UserRole) IsAdmin() bool {
	return r == Admin
}
