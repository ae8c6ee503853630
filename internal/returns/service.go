package returns

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"github.com/meridianlabs/storefront-api/pkg/enums"
	pkgerrors "github.com/meridianlabs/storefront-api/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReturnRepository is the persistence surface the service needs.
type ReturnRepository interface {
	WithTx(tx *gorm.DB) *Repository
	ListReasons(ctx context.Context) ([]models.ReturnReason, error)
	Create(ctx context.Context, ret *models.Return) (*models.Return, error)
	Update(ctx context.Context, ret *models.Return) (*models.Return, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Return, error)
	FindByIDAndCustomer(ctx context.Context, returnID, customerID uuid.UUID) (*models.Return, error)
	IncrementReturnedQuantity(ctx context.Context, orderItemID uuid.UUID, quantity int) error
}

// orderStore loads customer-scoped orders for eligibility checks.
type orderStore interface {
	FindByIDAndCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error)
}

// ReturnItemInput selects one order line and quantity for a return request.
type ReturnItemInput struct {
	OrderItemID uuid.UUID  `json:"order_item_id" validate:"required"`
	Quantity    int        `json:"quantity" validate:"gte=0"`
	ReasonID    *uuid.UUID `json:"reason_id,omitempty"`
	Note        *string    `json:"note,omitempty"`
}

// CreateReturnInput is the payload for opening a return.
type CreateReturnInput struct {
	OrderID uuid.UUID         `json:"order_id" validate:"required"`
	Items   []ReturnItemInput `json:"items" validate:"required,min=1"`
	Note    *string           `json:"note,omitempty"`
}

// TimelineEvent is one status change in a return's history.
type TimelineEvent struct {
	Status     enums.ReturnStatus `json:"status"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// Detail is a return together with its derived status timeline.
type Detail struct {
	Return   *models.Return  `json:"return"`
	Timeline []TimelineEvent `json:"timeline"`
}

// Service owns the post-order return workflow.
type Service interface {
	ListReturnReasons(ctx context.Context) ([]models.ReturnReason, error)
	ListReturns(ctx context.Context, customerID uuid.UUID) ([]models.Return, error)
	GetReturn(ctx context.Context, returnID, customerID uuid.UUID) (*Detail, error)
	CreateReturn(ctx context.Context, customerID uuid.UUID, input CreateReturnInput) (*models.Return, error)
	ReceiveReturn(ctx context.Context, returnID, customerID uuid.UUID) (*models.Return, error)
	CancelReturn(ctx context.Context, returnID, customerID uuid.UUID) (*models.Return, error)
}

type service struct {
	repo   ReturnRepository
	orders orderStore
	tx     txRunner
}

// ServiceParams bundles the dependencies required to build a returns service.
type ServiceParams struct {
	Repo   ReturnRepository
	Orders orderStore
	Tx     txRunner
}

// NewService builds a returns service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: params.Repo, orders: params.Orders, tx: params.Tx}, nil
}

func (s *service) ListReturnReasons(ctx context.Context) ([]models.ReturnReason, error) {
	reasons, err := s.repo.ListReasons(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list return reasons")
	}
	return reasons, nil
}

func (s *service) ListReturns(ctx context.Context, customerID uuid.UUID) ([]models.Return, error) {
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list returns")
	}
	return rows, nil
}

// GetReturn loads one return and derives its timeline from the status
// timestamps, oldest event first.
func (s *service) GetReturn(ctx context.Context, returnID, customerID uuid.UUID) (*Detail, error) {
	ret, err := s.load(ctx, returnID, customerID)
	if err != nil {
		return nil, err
	}

	timeline := []TimelineEvent{{Status: enums.ReturnStatusRequested, OccurredAt: ret.RequestedAt}}
	if ret.ReceivedAt != nil {
		timeline = append(timeline, TimelineEvent{Status: enums.ReturnStatusReceived, OccurredAt: *ret.ReceivedAt})
	}
	if ret.CanceledAt != nil {
		timeline = append(timeline, TimelineEvent{Status: enums.ReturnStatusCanceled, OccurredAt: *ret.CanceledAt})
	}
	sort.Slice(timeline, func(i, j int) bool {
		return timeline[i].OccurredAt.Before(timeline[j].OccurredAt)
	})
	return &Detail{Return: ret, Timeline: timeline}, nil
}

// CreateReturn opens a return against a completed order. The item selection
// is validated in full before anything is written.
func (s *service) CreateReturn(ctx context.Context, customerID uuid.UUID, input CreateReturnInput) (*models.Return, error) {
	requested := 0
	for _, item := range input.Items {
		if item.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "return quantity cannot be negative")
		}
		requested += item.Quantity
	}
	if requested == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select at least one item to return")
	}

	order, err := s.orders.FindByIDAndCustomer(ctx, input.OrderID, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	if !order.Status.IsReturnable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s is not eligible for returns", order.Status))
	}

	lines := make(map[uuid.UUID]*models.OrderItem, len(order.Items))
	for i := range order.Items {
		lines[order.Items[i].ID] = &order.Items[i]
	}

	refund := decimal.Zero
	items := make([]models.ReturnItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity == 0 {
			continue
		}
		line, ok := lines[item.OrderItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item does not belong to this order")
		}
		available := line.Quantity - line.ReturnedQuantity
		if item.Quantity > available {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cannot return %d of %q, only %d available", item.Quantity, line.Title, available))
		}
		refund = refund.Add(decimal.NewFromInt(int64(line.UnitPriceCents)).
			Mul(decimal.NewFromInt(int64(item.Quantity))))
		items = append(items, models.ReturnItem{
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
			ReasonID:    item.ReasonID,
			Note:        item.Note,
		})
	}

	ret := &models.Return{
		OrderID:           order.ID,
		CustomerID:        order.CustomerID,
		Status:            enums.ReturnStatusRequested,
		RefundAmountCents: int(refund.IntPart()),
		Note:              input.Note,
		Items:             items,
		RequestedAt:       time.Now().UTC(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, ret); err != nil {
			return err
		}
		for _, item := range ret.Items {
			if err := repo.IncrementReturnedQuantity(ctx, item.OrderItemID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create return")
	}
	return ret, nil
}

func (s *service) ReceiveReturn(ctx context.Context, returnID, customerID uuid.UUID) (*models.Return, error) {
	return s.transition(ctx, returnID, customerID, enums.ReturnStatusReceived)
}

func (s *service) CancelReturn(ctx context.Context, returnID, customerID uuid.UUID) (*models.Return, error) {
	return s.transition(ctx, returnID, customerID, enums.ReturnStatusCanceled)
}

func (s *service) transition(ctx context.Context, returnID, customerID uuid.UUID, next enums.ReturnStatus) (*models.Return, error) {
	ret, err := s.load(ctx, returnID, customerID)
	if err != nil {
		return nil, err
	}
	if !ret.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("return cannot move from %s to %s", ret.Status, next))
	}

	now := time.Now().UTC()
	ret.Status = next
	switch next {
	case enums.ReturnStatusReceived:
		ret.ReceivedAt = &now
	case enums.ReturnStatusCanceled:
		ret.CanceledAt = &now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Update(ctx, ret); err != nil {
			return err
		}
		if next != enums.ReturnStatusCanceled {
			return nil
		}
		// Canceling releases the units reserved on the order lines.
		for _, item := range ret.Items {
			if err := repo.IncrementReturnedQuantity(ctx, item.OrderItemID, -item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update return")
	}
	return ret, nil
}

func (s *service) load(ctx context.Context, returnID, customerID uuid.UUID) (*models.Return, error) {
	ret, err := s.repo.FindByIDAndCustomer(ctx, returnID, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load return")
	}
	return ret, nil
}
