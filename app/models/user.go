package models

import "gorm.io/gorm"

// User owns a drive; every folder and file row carries its id.
type User struct {
	gorm.Model
	Name     string `gorm:"size:255;not null" json:"name"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // bcrypt hash, never serialised
	Role     string `gorm:"size:50;default:user" json:"role"`
}

// Roles a user can hold. Admin unlocks the /api/admin group.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
