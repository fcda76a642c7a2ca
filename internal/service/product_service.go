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
type CreateProductRequest struct {
	Name             string          `json:"name" binding:"required"`
	Description      string          `json:"description"`
	DefaultSellPrice decimal.Decimal `json:"default_sell_price"`
	DefaultBuyPrice  decimal.Decimal `json:"default_buy_price"`
}

type UpdateProductRequest struct {
	Name             string          `json:"name" binding:"required"`
	Description      string          `json:"description"`
	DefaultSellPrice decimal.Decimal `json:"default_sell_price"`
	DefaultBuyPrice  decimal.Decimal `json:"default_buy_price"`
}

var ErrNegativePrice = errors.New("default prices must be non-negative")

type ProductService interface {
	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, userID string, id int64, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, userID string, id int64) error
}

type productService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewProductService(
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ProductService {
	return &productService{
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

func (s *productService) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, page, limit, search)
}

// ListAllProducts returns the full unpaginated catalogue for order-entry
// pickers, where the client needs every product at once.
func (s *productService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.ListAll(ctx)
}

func (s *productService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *productService) CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error) {
	if req.DefaultSellPrice.IsNegative() || req.DefaultBuyPrice.IsNegative() {
		return nil, ErrNegativePrice
	}

	product := model.Product{
		Name:             req.Name,
		Description:      req.Description,
		DefaultSellPrice: req.DefaultSellPrice,
		DefaultBuyPrice:  req.DefaultBuyPrice,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, &product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCreateProduct, product.ID, product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("product_created", product.ID)
	return &product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, userID string, id int64, req UpdateProductRequest) (*model.Product, error) {
	if req.DefaultSellPrice.IsNegative() || req.DefaultBuyPrice.IsNegative() {
		return nil, ErrNegativePrice
	}

	var updated *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		product.Name = req.Name
		product.Description = req.Description
		product.DefaultSellPrice = req.DefaultSellPrice
		product.DefaultBuyPrice = req.DefaultBuyPrice
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		updated = product
		return s.audit(txCtx, userID, model.ActionUpdateProduct, product.ID, product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("product_updated", id)
	return updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, userID string, id int64) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.productRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteProduct, id, product.Name, nil)
	})
	if err != nil {
		return err
	}

	s.broadcast("product_deleted", id)
	return nil
}

func (s *productService) broadcast(event string, productID int64) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(ws.Event{
		Event: event,
		Data:  map[string]interface{}{"product_id": productID},
	})
	s.hub.Broadcast <- payload
}

func (s *productService) audit(ctx context.Context, userID, action string, productID int64, name string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   strconv.FormatInt(productID, 10),
		EntityName: name,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
