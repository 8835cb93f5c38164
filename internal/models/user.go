package models

import (
	"time"

	"github.com/downpricer/downpricer/internal/gate"
)

// User & auth related models
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Email     string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string `gorm:"size:255;not null" json:"-"` // hashé, jamais exposé
	Nom       string `gorm:"size:255" json:"last_name,omitempty"`
	Prenom    string `gorm:"size:255" json:"first_name,omitempty"`
	Roles     []Role `gorm:"many2many:user_roles" json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"` // ex: CLIENT, SELLER, ADMIN, SITE_PLAN_1
	Description string `json:"description,omitempty"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// RoleNames returns the user's role tags as plain strings.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Actor builds the authorization view of the user.
// Roles must be preloaded.
func (u *User) Actor() *gate.Actor {
	roles := make([]gate.Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, gate.Role(r.Name))
	}
	return &gate.Actor{ID: u.ID, Roles: roles}
}
