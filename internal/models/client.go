package models

import (
	"errors"
	"fmt"

	"github.com/diewo77/goldenline/validation"
	"github.com/shopspring/decimal"
)

var ErrInvalidClient = errors.New("invalid client")

// Client is a household linked to exactly one Collection.
type Client struct {
	ID            uint            `gorm:"column:identifiant_client;primaryKey" json:"identifiant_client"`
	ChildCount    int             `gorm:"column:nombre_enfants;not null" json:"nombre_enfants" validate:"min=0"`
	SocioCategory string          `gorm:"column:categorie_socioprofessionnelle;size:50;not null" json:"categorie_socioprofessionnelle" validate:"required,notblank,max=50"`
	BasketPrice   decimal.Decimal `gorm:"column:prix_panier;type:decimal(10,2);not null" json:"prix_panier"`
	CollectionID  uint            `gorm:"column:identifiant_collecte_id;index;not null" json:"identifiant_collecte" validate:"required"`
	Collection    *Collection     `gorm:"foreignKey:CollectionID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName keeps the historical table name.
func (Client) TableName() string { return "client" }

func (c Client) String() string {
	return fmt.Sprintf("Client %d", c.ID)
}

// Validate checks the field constraints of a client before insert.
func (c Client) Validate() error {
	if v := validation.Struct(c); !v.Empty() {
		return fmt.Errorf("%w: %s", ErrInvalidClient, v)
	}
	// decimal(10,2)
	switch {
	case c.BasketPrice.IsNegative():
		return fmt.Errorf("%w: prix_panier must be >= 0", ErrInvalidClient)
	case c.BasketPrice.Exponent() < -2 && !c.BasketPrice.Equal(c.BasketPrice.Round(2)):
		return fmt.Errorf("%w: prix_panier has more than 2 decimals", ErrInvalidClient)
	case c.BasketPrice.GreaterThanOrEqual(decimal.New(1, 8)):
		return fmt.Errorf("%w: prix_panier exceeds decimal(10,2)", ErrInvalidClient)
	}
	return nil
}
