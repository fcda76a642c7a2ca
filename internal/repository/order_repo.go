package repository

import (
	"context"

	"shoptrack/internal/model"

	"gorm.io/gorm"
)

// OrderRepository persists orders and their lines. ListOrders and
// ListOrderLines return full snapshots for the statistics engine; ListOrders
// optionally restricts to a created-at window (epoch ms, inclusive).
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateLines(ctx context.Context, lines []model.OrderLine) error
	DeleteLines(ctx context.Context, orderID int64) error
	Update(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, id int64) error
	FindByIDWithLines(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context, page, limit int) ([]model.Order, int64, error)
	ListOrders(ctx context.Context, window model.TimeWindow) ([]model.Order, error)
	ListOrderLines(ctx context.Context) ([]model.OrderLine, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) CreateLines(ctx context.Context, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&lines).Error
}

func (r *orderRepository) DeleteLines(ctx context.Context, orderID int64) error {
	return GetDB(ctx, r.db).Where("order_id = ?", orderID).Delete(&model.OrderLine{}).Error
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order) error {
	// IsBuyOrder and CreatedAt are immutable once written
	return GetDB(ctx, r.db).Model(order).
		Select("CustomerID", "LocText", "Note", "HasPaid", "HasDelivered").
		Updates(order).Error
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", id).Delete(&model.OrderLine{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Order{}).Error
}

func (r *orderRepository) FindByIDWithLines(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("Customer").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Lines").
		Preload("Customer").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) ListOrders(ctx context.Context, window model.TimeWindow) ([]model.Order, error) {
	var orders []model.Order
	db := GetDB(ctx, r.db)
	if window.From != 0 {
		db = db.Where("created_at >= ?", window.From)
	}
	if window.To != 0 {
		db = db.Where("created_at <= ?", window.To)
	}
	if err := db.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListOrderLines(ctx context.Context) ([]model.OrderLine, error) {
	var lines []model.OrderLine
	if err := GetDB(ctx, r.db).Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
