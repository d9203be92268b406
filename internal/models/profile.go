package models

import "time"

// AdminProfileName is the system group granting every permission.
const AdminProfileName = "administrateurs"

// Profile is a named group of permissions. A user belongs to at most one
// profile and inherits all its permissions.
type Profile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"uniqueIndex;size:150;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	IsSystem    bool      `gorm:"default:false" json:"is_system"`
	// Many-to-many via profile_permissions.
	Permissions []Permission `gorm:"many2many:profile_permissions;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
}

// Permission is a single action allowed on a resource type.
type Permission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ResourceType string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"resource_type"`
	Action       string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"action"`
	Description  string    `gorm:"size:200" json:"description,omitempty"`
}

// Code returns the permission in "resource:action" format for matching.
func (p Permission) Code() string {
	return p.ResourceType + ":" + p.Action
}

// Codename returns the "action_resource" form, e.g. "view_client".
func (p Permission) Codename() string {
	return p.Action + "_" + p.ResourceType
}
