package model

import (
	"github.com/shopspring/decimal"
)

// Order is a single buy or sell transaction header. IsBuyOrder is fixed at
// creation: buy orders increase on-hand stock, sell orders decrease it and
// generate revenue. CreatedAt is epoch milliseconds, set once, and is what
// every time-window query filters on.
type Order struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	IsBuyOrder   bool        `gorm:"not null" json:"is_buy_order"`
	CustomerID   *int64      `gorm:"index" json:"customer_id"`
	Customer     *Customer   `gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL" json:"customer,omitempty"`
	LocText      string      `gorm:"type:varchar(100)" json:"loc_text,omitempty"`
	Note         string      `gorm:"type:varchar(256)" json:"note,omitempty"`
	HasPaid      bool        `gorm:"not null;default:false" json:"has_paid"`
	HasDelivered bool        `gorm:"not null;default:false" json:"has_delivered"`
	Lines        []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	CreatedAt    int64       `gorm:"autoCreateTime:milli;not null;index" json:"created_at"`
}

// OrderLine is one product position within an order. At most one line exists
// per (order, product) pair; lines with Amount == 0 are dropped before
// persistence. PerPrice is the unit price at transaction time, independent of
// the product's current default prices.
type OrderLine struct {
	OrderID   int64           `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	ProductID int64           `gorm:"primaryKey;autoIncrement:false;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	PerPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"per_price"`
	Amount    int64           `gorm:"not null" json:"amount"`
}
