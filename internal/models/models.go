// Package models holds the gorm entities of the application.
package models

// All returns the slice of models to migrate, in dependency order.
func All() []any {
	return []any{
		&Permission{},
		&Profile{},
		&User{},
		&Collection{},
		&Client{},
	}
}
