package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/goldenline/internal/models"
	"gorm.io/gorm"
)

var ErrCollectionNotFound = errors.New("collecte_not_found")

// RecordService reads and writes Collection and Client rows.
type RecordService struct {
	db *gorm.DB
}

func NewRecordService(db *gorm.DB) *RecordService {
	return &RecordService{db: db}
}

// Collections returns every collection in primary key order.
func (s *RecordService) Collections(ctx context.Context) ([]models.Collection, error) {
	var out []models.Collection
	if err := s.db.WithContext(ctx).Order("identifiant_collecte").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list collectes: %w", err)
	}
	return out, nil
}

// Clients returns every client in primary key order.
func (s *RecordService) Clients(ctx context.Context) ([]models.Client, error) {
	var out []models.Client
	if err := s.db.WithContext(ctx).Order("identifiant_client").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

// CreateCollection stores a basket.
func (s *RecordService) CreateCollection(ctx context.Context, b models.Basket) (*models.Collection, error) {
	c, err := models.NewCollection(b)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create collecte: %w", err)
	}
	return c, nil
}

// CreateClient validates and stores a client. Its collection must exist.
func (s *RecordService) CreateClient(ctx context.Context, c *models.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Collection{}).Where("identifiant_collecte = ?", c.CollectionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %d", ErrCollectionNotFound, c.CollectionID)
		}
		return tx.Create(c).Error
	})
}

// DeleteCollection removes a collection and its clients.
func (s *RecordService) DeleteCollection(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("identifiant_collecte_id = ?", id).Delete(&models.Client{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Collection{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrCollectionNotFound, id)
		}
		return nil
	})
}

// Household is a collection with the client that bought it.
type Household struct {
	Basket models.Basket
	Client models.Client
}

// CreateHousehold stores a collection and its client in one transaction.
func (s *RecordService) CreateHousehold(ctx context.Context, h Household) (*models.Client, error) {
	col, err := models.NewCollection(h.Basket)
	if err != nil {
		return nil, err
	}
	cl := h.Client
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(col).Error; err != nil {
			return err
		}
		cl.CollectionID = col.ID
		if err := cl.Validate(); err != nil {
			return err
		}
		return tx.Create(&cl).Error
	})
	if err != nil {
		return nil, err
	}
	return &cl, nil
}
