package models

import (
	"strings"
	"time"
)

// User is an account of the application.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Username    string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	FirstName   string     `gorm:"size:150" json:"first_name"`
	LastName    string     `gorm:"size:150" json:"last_name"`
	Email       string     `gorm:"size:254;index" json:"email"`
	Password    string     `gorm:"size:255;not null" json:"-"` // bcrypt hash
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser bool       `gorm:"not null;default:false" json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	// ProfileID links the user to its group. Nil means no group.
	ProfileID *uint    `gorm:"index" json:"profile_id,omitempty"`
	Profile   *Profile `gorm:"foreignKey:ProfileID;constraint:OnDelete:SET NULL" json:"profile,omitempty"`
	// Permissions granted to the user directly, on top of the group ones.
	Permissions []Permission `gorm:"many2many:user_permissions;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
}

// DisplayName returns the first name, falling back to the username.
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.FirstName); n != "" {
		return n
	}
	return u.Username
}

// InGroup reports whether the user belongs to the named group.
// Profile must be preloaded.
func (u User) InGroup(name string) bool {
	return u.Profile != nil && u.Profile.Name == name
}

// HasDirectPermission reports whether code ("resource:action") is granted
// directly to the user. Permissions must be preloaded.
func (u User) HasDirectPermission(code string) bool {
	for _, p := range u.Permissions {
		if p.Code() == code {
			return true
		}
	}
	return false
}
