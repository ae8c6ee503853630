package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	pkgerrors "github.com/meridianlabs/storefront-api/pkg/errors"
	"gorm.io/gorm"
)

// Service exposes address-book operations for a customer.
type Service interface {
	List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, customerID uuid.UUID, input AddressInput) (*models.Address, error)
	Update(ctx context.Context, customerID, addressID uuid.UUID, input AddressInput) (*models.Address, error)
	Delete(ctx context.Context, customerID, addressID uuid.UUID) error
	SetDefaultBilling(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
	SetDefaultShipping(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error)
	ResolveDefaults(ctx context.Context, customerID uuid.UUID) (*DefaultAddresses, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddressInput captures the payload for creating or updating an address.
type AddressInput struct {
	FirstName         string  `json:"first_name" validate:"required"`
	LastName          string  `json:"last_name" validate:"required"`
	Company           *string `json:"company,omitempty"`
	Address1          string  `json:"address_1" validate:"required"`
	Address2          *string `json:"address_2,omitempty"`
	City              string  `json:"city" validate:"required"`
	Province          *string `json:"province,omitempty"`
	PostalCode        string  `json:"postal_code" validate:"required"`
	CountryCode       string  `json:"country_code" validate:"required"`
	Phone             string  `json:"phone" validate:"required"`
	IsDefaultBilling  bool    `json:"is_default_billing"`
	IsDefaultShipping bool    `json:"is_default_shipping"`
}

type service struct {
	repo            AddressRepository
	tx              txRunner
	fallbackCountry string
}

// NewService builds an address service backed by the provided stack.
func NewService(repo AddressRepository, tx txRunner, fallbackCountry string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:            repo,
		tx:              tx,
		fallbackCountry: fallbackCountry,
	}, nil
}

func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing customer")
	}
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, customerID uuid.UUID, input AddressInput) (*models.Address, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing customer")
	}
	row := s.applyInput(&models.Address{CustomerID: customerID}, input)

	var created *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if row.IsDefaultBilling {
			if err := repo.ClearDefaultBilling(ctx, customerID); err != nil {
				return err
			}
		}
		if row.IsDefaultShipping {
			if err := repo.ClearDefaultShipping(ctx, customerID); err != nil {
				return err
			}
		}
		saved, err := repo.Create(ctx, row)
		if err != nil {
			return err
		}
		created = saved
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, customerID, addressID uuid.UUID, input AddressInput) (*models.Address, error) {
	row, err := s.loadOwned(ctx, customerID, addressID)
	if err != nil {
		return nil, err
	}
	s.applyInput(row, input)

	var updated *models.Address
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if row.IsDefaultBilling {
			if err := repo.ClearDefaultBilling(ctx, customerID); err != nil {
				return err
			}
			row.IsDefaultBilling = true
		}
		if row.IsDefaultShipping {
			if err := repo.ClearDefaultShipping(ctx, customerID); err != nil {
				return err
			}
			row.IsDefaultShipping = true
		}
		saved, err := repo.Update(ctx, row)
		if err != nil {
			return err
		}
		updated = saved
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, customerID, addressID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, customerID, addressID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, addressID, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	return nil
}

func (s *service) SetDefaultBilling(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	return s.setDefault(ctx, customerID, addressID, true)
}

func (s *service) SetDefaultShipping(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	return s.setDefault(ctx, customerID, addressID, false)
}

func (s *service) setDefault(ctx context.Context, customerID, addressID uuid.UUID, billing bool) (*models.Address, error) {
	row, err := s.loadOwned(ctx, customerID, addressID)
	if err != nil {
		return nil, err
	}

	var updated *models.Address
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if billing {
			if err := repo.ClearDefaultBilling(ctx, customerID); err != nil {
				return err
			}
			row.IsDefaultBilling = true
		} else {
			if err := repo.ClearDefaultShipping(ctx, customerID); err != nil {
				return err
			}
			row.IsDefaultShipping = true
		}
		saved, err := repo.Update(ctx, row)
		if err != nil {
			return err
		}
		updated = saved
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set default address")
	}
	return updated, nil
}

func (s *service) loadOwned(ctx context.Context, customerID, addressID uuid.UUID) (*models.Address, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing customer")
	}
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	row, err := s.repo.FindByIDAndCustomer(ctx, addressID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
	}
	return row, nil
}

func (s *service) applyInput(row *models.Address, input AddressInput) *models.Address {
	row.FirstName = strings.TrimSpace(input.FirstName)
	row.LastName = strings.TrimSpace(input.LastName)
	row.Company = input.Company
	row.Address1 = strings.TrimSpace(input.Address1)
	row.Address2 = input.Address2
	row.City = strings.TrimSpace(input.City)
	row.Province = input.Province
	row.PostalCode = strings.TrimSpace(input.PostalCode)
	row.CountryCode = NormalizeCountryCode(input.CountryCode, s.fallbackCountry)
	row.Phone = strings.TrimSpace(input.Phone)
	row.IsDefaultBilling = input.IsDefaultBilling
	row.IsDefaultShipping = input.IsDefaultShipping
	return row
}
