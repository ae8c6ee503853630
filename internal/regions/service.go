package regions

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridianlabs/storefront-api/pkg/db/models"
	pkgerrors "github.com/meridianlabs/storefront-api/pkg/errors"
	"gorm.io/gorm"
)

// Service resolves regions for address forms and cart pricing.
type Service interface {
	ListRegions(ctx context.Context) ([]models.Region, error)
	GetDefaultRegion(ctx context.Context) (*models.Region, error)
	RegionForCountry(ctx context.Context, countryCode string) (*models.Region, error)
}

type regionRepository interface {
	List(ctx context.Context) ([]models.Region, error)
	FindDefault(ctx context.Context) (*models.Region, error)
	FindByCountry(ctx context.Context, countryCode string) (*models.Region, error)
}

type service struct {
	repo regionRepository
}

// NewService builds a region service backed by the provided repository.
func NewService(repo regionRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("region repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListRegions(ctx context.Context) ([]models.Region, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list regions")
	}
	return rows, nil
}

func (s *service) GetDefaultRegion(ctx context.Context) (*models.Region, error) {
	row, err := s.repo.FindDefault(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no default region configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load default region")
	}
	return row, nil
}

// RegionForCountry returns the region covering the country, falling back to
// the default region when the country is not mapped.
func (s *service) RegionForCountry(ctx context.Context, countryCode string) (*models.Region, error) {
	row, err := s.repo.FindByCountry(ctx, countryCode)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve region")
	}
	return s.GetDefaultRegion(ctx)
}
