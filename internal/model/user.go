package model

import "time"

const (
	RoleFaculty = "faculty"
	RoleEditor  = "editor"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanDelete reports whether the user may remove content.
func (u *User) CanDelete() bool {
	return u.Role == RoleFaculty
}
