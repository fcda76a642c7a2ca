package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item the shop buys and sells. The default prices are
// only prefills for the order editor; every order line carries its own price.
type Product struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string          `gorm:"type:varchar(100);not null" json:"name"`
	Description      string          `gorm:"type:varchar(256)" json:"description,omitempty"`
	DefaultSellPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"default_sell_price"`
	DefaultBuyPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"default_buy_price"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
