package model

import (
	"github.com/shopspring/decimal"
)

// TimeWindow bounds order creation timestamps in epoch milliseconds,
// inclusive on both ends. A zero bound leaves that side open; the zero value
// means "all time".
type TimeWindow struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Contains reports whether ts falls inside the window.
func (w TimeWindow) Contains(ts int64) bool {
	if w.From != 0 && ts < w.From {
		return false
	}
	if w.To != 0 && ts > w.To {
		return false
	}
	return true
}

// ProductSalesStat aggregates sell-side activity for one product within a
// time window. Cost is the matched cost of the sold units; Profit is always
// Revenue - Cost.
type ProductSalesStat struct {
	ProductID int64           `json:"product_id"`
	Amount    int64           `json:"amount"`
	Revenue   decimal.Decimal `json:"revenue"`
	Cost      decimal.Decimal `json:"cost"`
	Profit    decimal.Decimal `json:"profit"`
}

// ProductInventoryStat values the units currently on hand for one product.
// Inventory is signed: negative means more units were sold than ever bought.
type ProductInventoryStat struct {
	ProductID int64           `json:"product_id"`
	Inventory int64           `json:"inventory"`
	Cost      decimal.Decimal `json:"cost"`
}

// SlicePoint is one point of a day-by-day statistic series.
type SlicePoint struct {
	From  int64           `json:"from"`
	To    int64           `json:"to"`
	Value decimal.Decimal `json:"value"`
}
