package db

import (
	"errors"
	"fmt"

	"github.com/diewo77/goldenline/gate"
	"github.com/diewo77/goldenline/internal/models"
	"gorm.io/gorm"
)

// Resources managed by the permission system.
var resources = []struct {
	Name  string
	Label string
}{
	{"client", "clients"},
	{"collecte", "collectes"},
	{"user", "utilisateurs"},
	{"profile", "groupes"},
}

// SeedPermissions creates the view/add/change/delete permissions of every
// resource plus the superadmin wildcard.
func SeedPermissions(db *gorm.DB) error {
	perms := []models.Permission{{ResourceType: "*", Action: "*", Description: "Full system access"}}
	for _, r := range resources {
		for _, action := range []gate.Action{gate.ActionView, gate.ActionAdd, gate.ActionChange, gate.ActionDelete} {
			perms = append(perms, models.Permission{
				ResourceType: r.Name,
				Action:       string(action),
				Description:  fmt.Sprintf("%s %s", action, r.Label),
			})
		}
	}
	for _, p := range perms {
		perm := p
		result := db.Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
			FirstOrCreate(&perm)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// SeedProfiles creates the system groups with their permissions.
func SeedProfiles(db *gorm.DB) error {
	if err := SeedPermissions(db); err != nil {
		return err
	}

	profiles := []struct {
		Name        string
		Description string
		Permissions []gate.Permission
	}{
		{
			Name:        models.AdminProfileName,
			Description: "Accès complet à l'application",
			Permissions: []gate.Permission{gate.PermissionSuperAdmin},
		},
	}

	for _, p := range profiles {
		profile, err := EnsureProfile(db, p.Name)
		if err != nil {
			return err
		}
		if profile.Description != p.Description || !profile.IsSystem {
			if err := db.Model(profile).Updates(map[string]any{"description": p.Description, "is_system": true}).Error; err != nil {
				return err
			}
		}
		perms, err := FindPermissions(db, p.Permissions...)
		if err != nil {
			return err
		}
		if err := db.Model(profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}

// EnsureProfile returns the profile named name, creating it when missing.
func EnsureProfile(db *gorm.DB, name string) (*models.Profile, error) {
	var profile models.Profile
	err := db.Where("name = ?", name).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	profile = models.Profile{Name: name}
	if err := db.Create(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindPermissions loads the permission rows matching codes.
func FindPermissions(db *gorm.DB, codes ...gate.Permission) ([]models.Permission, error) {
	perms := make([]models.Permission, 0, len(codes))
	for _, code := range codes {
		resource, action := code.Parse()
		if resource == "" {
			return nil, fmt.Errorf("invalid permission %q", code)
		}
		var perm models.Permission
		if err := db.Where("resource_type = ? AND action = ?", resource, string(action)).First(&perm).Error; err != nil {
			return nil, fmt.Errorf("permission %s: %w", code, err)
		}
		perms = append(perms, perm)
	}
	return perms, nil
}
