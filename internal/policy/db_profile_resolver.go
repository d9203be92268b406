package policy

import (
	"context"
	"errors"

	"github.com/diewo77/goldenline/gate"
	"github.com/diewo77/goldenline/internal/models"
	"gorm.io/gorm"
)

// DBProfileResolver builds the effective permission set of a user from the
// database: permissions of its group, direct permissions, and the wildcard
// for superusers.
type DBProfileResolver struct {
	DB *gorm.DB
}

// NewDBProfileResolver creates a new database-backed profile resolver.
func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{DB: db}
}

// Resolve returns nil for unknown or inactive users.
func (r *DBProfileResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Preload("Profile.Permissions").
		Preload("Permissions").
		First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}

	name := user.Username
	var profileID uint
	if user.Profile != nil {
		name = user.Profile.Name
		profileID = user.Profile.ID
	}
	profile := gate.NewStaticProfile(profileID, name)
	if user.Profile != nil {
		profile.Grant(toGate(user.Profile.Permissions)...)
	}
	profile.Grant(toGate(user.Permissions)...)
	if user.IsSuperuser {
		profile.Grant(gate.PermissionSuperAdmin)
	}
	return profile, nil
}

func toGate(perms []models.Permission) []gate.Permission {
	out := make([]gate.Permission, len(perms))
	for i, p := range perms {
		out[i] = gate.NewPermission(p.ResourceType, gate.Action(p.Action))
	}
	return out
}
