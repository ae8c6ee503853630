package regions

import (
	"context"
	"strings"

	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes read operations over the region catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a region repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every region with its countries preloaded.
func (r *Repository) List(ctx context.Context) ([]models.Region, error) {
	var rows []models.Region
	err := r.db.WithContext(ctx).
		Preload("Countries").
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindDefault loads the region flagged as default.
func (r *Repository) FindDefault(ctx context.Context) (*models.Region, error) {
	var row models.Region
	err := r.db.WithContext(ctx).
		Preload("Countries").
		Where("is_default = ?", true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByCountry loads the region containing the provided ISO country code.
func (r *Repository) FindByCountry(ctx context.Context, countryCode string) (*models.Region, error) {
	var country models.RegionCountry
	err := r.db.WithContext(ctx).
		Where("country_code = ?", strings.ToLower(strings.TrimSpace(countryCode))).
		First(&country).Error
	if err != nil {
		return nil, err
	}

	var row models.Region
	err = r.db.WithContext(ctx).
		Preload("Countries").
		Where("id = ?", country.RegionID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
