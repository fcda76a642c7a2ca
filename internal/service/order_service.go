package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"shoptrack/internal/model"
	"shoptrack/internal/repository"
	ws "shoptrack/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type OrderLineRequest struct {
	ProductID int64           `json:"product_id" binding:"required"`
	PerPrice  decimal.Decimal `json:"per_price"`
	Amount    int64           `json:"amount"`
}

type CreateOrderRequest struct {
	IsBuyOrder   bool               `json:"is_buy_order"`
	CustomerID   *int64             `json:"customer_id"`
	LocText      string             `json:"loc_text"`
	Note         string             `json:"note"`
	HasPaid      bool               `json:"has_paid"`
	HasDelivered bool               `json:"has_delivered"`
	Lines        []OrderLineRequest `json:"lines" binding:"dive"`
}

// UpdateOrderRequest deliberately has no is_buy_order field: the flag is fixed
// at creation. A nil Lines leaves the existing lines untouched; a non-nil
// (possibly empty) Lines replaces them.
type UpdateOrderRequest struct {
	CustomerID   *int64              `json:"customer_id"`
	LocText      string              `json:"loc_text"`
	Note         string              `json:"note"`
	HasPaid      bool                `json:"has_paid"`
	HasDelivered bool                `json:"has_delivered"`
	Lines        *[]OrderLineRequest `json:"lines"`
}

var (
	ErrNegativeOrderLine  = errors.New("order line amount and price must be non-negative")
	ErrDuplicateOrderLine = errors.New("order has more than one line for the same product")
)

type OrderService interface {
	ListOrders(ctx context.Context, page, limit int) ([]model.Order, int64, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error)
	UpdateOrder(ctx context.Context, userID string, id int64, req UpdateOrderRequest) (*model.Order, error)
	DeleteOrder(ctx context.Context, userID string, id int64) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		hub:       hub,
	}
}

// buildLines validates the requested lines and drops zero-amount ones; lines
// that are absent-by-amount must never reach the store.
func buildLines(orderID int64, reqs []OrderLineRequest) ([]model.OrderLine, error) {
	seen := make(map[int64]bool, len(reqs))
	lines := make([]model.OrderLine, 0, len(reqs))
	for _, r := range reqs {
		if r.Amount < 0 || r.PerPrice.IsNegative() {
			return nil, fmt.Errorf("%w: product %d", ErrNegativeOrderLine, r.ProductID)
		}
		if seen[r.ProductID] {
			return nil, fmt.Errorf("%w: product %d", ErrDuplicateOrderLine, r.ProductID)
		}
		seen[r.ProductID] = true
		if r.Amount == 0 {
			continue
		}
		lines = append(lines, model.OrderLine{
			OrderID:   orderID,
			ProductID: r.ProductID,
			PerPrice:  r.PerPrice,
			Amount:    r.Amount,
		})
	}
	return lines, nil
}

func (s *orderService) ListOrders(ctx context.Context, page, limit int) ([]model.Order, int64, error) {
	return s.orderRepo.List(ctx, page, limit)
}

func (s *orderService) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.orderRepo.FindByIDWithLines(ctx, id)
}

func (s *orderService) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error) {
	order := model.Order{
		IsBuyOrder:   req.IsBuyOrder,
		CustomerID:   req.CustomerID,
		LocText:      req.LocText,
		Note:         req.Note,
		HasPaid:      req.HasPaid,
		HasDelivered: req.HasDelivered,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		lines, err := buildLines(order.ID, req.Lines)
		if err != nil {
			return err
		}
		if err := s.orderRepo.CreateLines(txCtx, lines); err != nil {
			return fmt.Errorf("failed to create order lines: %w", err)
		}
		order.Lines = lines

		return s.audit(txCtx, userID, model.ActionCreateOrder, order.ID, req)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("order_created", order.ID)
	return &order, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, userID string, id int64, req UpdateOrderRequest) (*model.Order, error) {
	var updated *model.Order
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDWithLines(txCtx, id)
		if err != nil {
			return err
		}

		order.CustomerID = req.CustomerID
		order.LocText = req.LocText
		order.Note = req.Note
		order.HasPaid = req.HasPaid
		order.HasDelivered = req.HasDelivered
		if err := s.orderRepo.Update(txCtx, order); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		if req.Lines != nil {
			lines, err := buildLines(order.ID, *req.Lines)
			if err != nil {
				return err
			}
			if err := s.orderRepo.DeleteLines(txCtx, order.ID); err != nil {
				return fmt.Errorf("failed to replace order lines: %w", err)
			}
			if err := s.orderRepo.CreateLines(txCtx, lines); err != nil {
				return fmt.Errorf("failed to replace order lines: %w", err)
			}
			order.Lines = lines
		}

		updated = order
		return s.audit(txCtx, userID, model.ActionUpdateOrder, order.ID, req)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("order_updated", id)
	return updated, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, userID string, id int64) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.orderRepo.FindByIDWithLines(txCtx, id); err != nil {
			return err
		}
		if err := s.orderRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteOrder, id, nil)
	})
	if err != nil {
		return err
	}

	s.broadcast("order_deleted", id)
	return nil
}

func (s *orderService) audit(ctx context.Context, userID, action string, orderID int64, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:   uid,
		Action:   action,
		EntityID: strconv.FormatInt(orderID, 10),
		Details:  string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *orderService) broadcast(event string, orderID int64) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(ws.Event{
		Event: event,
		Data:  map[string]interface{}{"order_id": orderID},
	})
	s.hub.Broadcast <- payload
}
