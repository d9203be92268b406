package models

import (
	"fmt"

	"gorm.io/datatypes"
)

// Collection is a recorded purchase basket. DetailPanier is stored as
// json (not jsonb) so the key order of insertion survives a round trip.
type Collection struct {
	ID           uint           `gorm:"column:identifiant_collecte;primaryKey" json:"identifiant_collecte"`
	BasketDetail datatypes.JSON `gorm:"column:detail_panier;type:json;not null" json:"detail_panier"`
}

// TableName keeps the historical table name.
func (Collection) TableName() string { return "collecte" }

func (c Collection) String() string {
	return fmt.Sprintf("Collecte %d", c.ID)
}

// NewCollection builds a collection holding basket.
func NewCollection(b Basket) (*Collection, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	raw, err := b.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return &Collection{BasketDetail: datatypes.JSON(raw)}, nil
}

// Basket decodes the stored detail.
func (c Collection) Basket() (Basket, error) {
	b, err := ParseBasket(c.BasketDetail)
	if err != nil {
		return nil, fmt.Errorf("collecte %d: %w", c.ID, err)
	}
	return b, nil
}
