package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user can hold.
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

// ValidRoles lists every role accepted by role mutation.
var ValidRoles = map[string]bool{RoleAdmin: true, RoleTeacher: true, RoleStudent: true}

type User struct {
	gorm.Model
	Name      string     `json:"name" gorm:"default:''"`
	Email     string     `json:"email" gorm:"uniqueIndex;not null"`
	Password  string     `json:"-" gorm:"not null"`
	Role      string     `json:"role" gorm:"default:'STUDENT';index"`
	Picture   string     `json:"picture" gorm:"default:''"`
	Bio       string     `json:"bio" gorm:"type:text"`
	LastLogin *time.Time `json:"last_login"`
	IsBlocked bool       `json:"is_blocked" gorm:"default:false"`
}

// PublicProfile is the subset of a user shown to other users.
type PublicProfile struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (u User) Profile() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Picture: u.Picture}
}
