package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	pkgerrors "github.com/meridianlabs/storefront-api/pkg/errors"
	"github.com/meridianlabs/storefront-api/pkg/pagination"
	"gorm.io/gorm"
)

// OrderRepository is the persistence surface the service needs.
type OrderRepository interface {
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	FindByIDAndCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error)
}

// Page is one page of a customer's order history.
type Page struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Service reads placed orders. Writes happen only through cart completion.
type Service interface {
	ListOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*Page, error)
	GetOrder(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo OrderRepository
}

// NewService builds an order service backed by the provided repository.
func NewService(repo OrderRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*Page, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination cursor")
	}
	rows, next, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	return &Page{Orders: rows, NextCursor: next}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDAndCustomer(ctx, orderID, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	return order, nil
}
