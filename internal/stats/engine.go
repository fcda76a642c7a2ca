// Package stats derives inventory and profit figures from the order history.
//
// Nothing here is ever stored: every query loads a fresh snapshot of orders
// and order lines and recomputes from scratch. Cost of goods sold is assigned
// by clamped FIFO matching: sold units consume buy lines in ascending order
// of the parent order's creation time, and once the buy side is exhausted the
// remaining sold units carry zero cost.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"shoptrack/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrNegativeLine is returned when a snapshot contains an order line with a
// negative amount or unit price. Such lines are rejected at the API boundary,
// so hitting this means the store was written to directly.
var ErrNegativeLine = errors.New("order line has negative amount or price")

// RecordSource is the read contract the engine needs from the record store.
// ListOrders restricts to orders created inside the window; the zero window
// returns everything. ListOrderLines always returns the full set; the engine
// windows lines itself by joining against the returned orders.
type RecordSource interface {
	ListOrders(ctx context.Context, window model.TimeWindow) ([]model.Order, error)
	ListOrderLines(ctx context.Context) ([]model.OrderLine, error)
}

// Engine computes shop statistics over RecordSource snapshots. It never
// mutates the store and holds no state between queries, so any number of
// queries may run concurrently.
type Engine struct {
	src RecordSource
	log zerolog.Logger
}

func NewEngine(src RecordSource, log zerolog.Logger) *Engine {
	return &Engine{src: src, log: log}
}

func (e *Engine) snapshot(ctx context.Context, window model.TimeWindow) ([]model.Order, []model.OrderLine, error) {
	orders, err := e.src.ListOrders(ctx, window)
	if err != nil {
		return nil, nil, fmt.Errorf("list orders: %w", err)
	}
	lines, err := e.src.ListOrderLines(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list order lines: %w", err)
	}
	if err := checkLines(lines); err != nil {
		return nil, nil, err
	}
	return orders, lines, nil
}

// OrderProductsStats returns sold amount, revenue, matched cost and profit per
// product for the given window. Only products with sell activity inside the
// window produce an entry; results are sorted by product id.
func (e *Engine) OrderProductsStats(ctx context.Context, window model.TimeWindow) ([]model.ProductSalesStat, error) {
	orders, lines, err := e.snapshot(ctx, window)
	if err != nil {
		return nil, err
	}

	ordersByID := make(map[int64]model.Order, len(orders))
	for _, o := range orders {
		ordersByID[o.ID] = o
	}

	type acc struct {
		amount    int64
		revenue   decimal.Decimal
		cost      decimal.Decimal
		unmatched int64 // sold units still needing a cost assigned
	}
	accs := make(map[int64]*acc)

	// First pass records the sell side and collects buy lines whose parent
	// order is inside the window.
	var buys []model.OrderLine
	for _, line := range lines {
		order, ok := ordersByID[line.OrderID]
		if !ok {
			continue // parent order outside the window
		}
		if line.Amount == 0 {
			continue
		}
		if order.IsBuyOrder {
			buys = append(buys, line)
			continue
		}
		a := accs[line.ProductID]
		if a == nil {
			a = &acc{revenue: decimal.Zero, cost: decimal.Zero}
			accs[line.ProductID] = a
		}
		a.amount += line.Amount
		a.unmatched += line.Amount
		a.revenue = a.revenue.Add(line.PerPrice.Mul(decimal.NewFromInt(line.Amount)))
	}

	// Second pass assigns cost: oldest buy order first, each buy line
	// contributing at most its own amount and at most what is still unmatched.
	sortBuyLines(buys, ordersByID)
	for _, line := range buys {
		a := accs[line.ProductID]
		if a == nil || a.unmatched == 0 {
			continue
		}
		matched := line.Amount
		if matched > a.unmatched {
			matched = a.unmatched
		}
		a.unmatched -= matched
		a.cost = a.cost.Add(line.PerPrice.Mul(decimal.NewFromInt(matched)))
	}

	out := make([]model.ProductSalesStat, 0, len(accs))
	for productID, a := range accs {
		if a.unmatched > 0 {
			// Oversold: the remainder carries zero cost, so profit for this
			// product is overstated. Numbers stay as-is.
			e.log.Warn().
				Int64("product_id", productID).
				Int64("uncosted_units", a.unmatched).
				Msg("sell amount exceeds recorded buys in window")
		}
		out = append(out, model.ProductSalesStat{
			ProductID: productID,
			Amount:    a.amount,
			Revenue:   a.revenue,
			Cost:      a.cost,
			Profit:    a.revenue.Sub(a.cost),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// Profit sums profit across OrderProductsStats for the window.
func (e *Engine) Profit(ctx context.Context, window model.TimeWindow) (decimal.Decimal, error) {
	perProduct, err := e.OrderProductsStats(ctx, window)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, s := range perProduct {
		total = total.Add(s.Profit)
	}
	return total, nil
}

// Revenue sums revenue across OrderProductsStats for the window.
func (e *Engine) Revenue(ctx context.Context, window model.TimeWindow) (decimal.Decimal, error) {
	perProduct, err := e.OrderProductsStats(ctx, window)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, s := range perProduct {
		total = total.Add(s.Revenue)
	}
	return total, nil
}

// ProductsStock returns the all-time signed net quantity per product:
// bought minus sold over the entire history. Negative stock is preserved:
// it signals overselling or a data-entry inconsistency.
func (e *Engine) ProductsStock(ctx context.Context) (map[int64]int64, error) {
	orders, lines, err := e.snapshot(ctx, model.TimeWindow{})
	if err != nil {
		return nil, err
	}

	ordersByID := make(map[int64]model.Order, len(orders))
	for _, o := range orders {
		ordersByID[o.ID] = o
	}

	stock := make(map[int64]int64)
	for _, line := range lines {
		order, ok := ordersByID[line.OrderID]
		if !ok || line.Amount == 0 {
			continue
		}
		if order.IsBuyOrder {
			stock[line.ProductID] += line.Amount
		} else {
			stock[line.ProductID] -= line.Amount
		}
	}
	return stock, nil
}

// InventoryCost values the units currently on hand per product, all-time.
// Sold units consume the oldest buys first, so the on-hand cost basis comes
// from the most recent buy lines. Results are sorted by product id.
func (e *Engine) InventoryCost(ctx context.Context) ([]model.ProductInventoryStat, error) {
	orders, lines, err := e.snapshot(ctx, model.TimeWindow{})
	if err != nil {
		return nil, err
	}

	ordersByID := make(map[int64]model.Order, len(orders))
	for _, o := range orders {
		ordersByID[o.ID] = o
	}

	type acc struct {
		inventory int64
		cost      decimal.Decimal
	}
	accs := make(map[int64]*acc)
	get := func(productID int64) *acc {
		a := accs[productID]
		if a == nil {
			a = &acc{cost: decimal.Zero}
			accs[productID] = a
		}
		return a
	}

	// Start each product at minus its total sold amount, then walk buy lines
	// oldest-first. The part of a buy that lifts the running inventory above
	// zero is still on hand and counts toward cost.
	var buys []model.OrderLine
	for _, line := range lines {
		order, ok := ordersByID[line.OrderID]
		if !ok || line.Amount == 0 {
			continue
		}
		if order.IsBuyOrder {
			buys = append(buys, line)
			continue
		}
		a := get(line.ProductID)
		a.inventory -= line.Amount
	}

	sortBuyLines(buys, ordersByID)
	for _, line := range buys {
		a := get(line.ProductID)
		onHand := line.Amount + a.inventory
		if onHand > line.Amount {
			onHand = line.Amount
		}
		if onHand < 0 {
			onHand = 0
		}
		a.inventory += line.Amount
		a.cost = a.cost.Add(line.PerPrice.Mul(decimal.NewFromInt(onHand)))
	}

	out := make([]model.ProductInventoryStat, 0, len(accs))
	for productID, a := range accs {
		out = append(out, model.ProductInventoryStat{
			ProductID: productID,
			Inventory: a.inventory,
			Cost:      a.cost,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// sortBuyLines orders buy lines by parent order creation time, then order id,
// keeping the original line order within an order. This makes matching a
// deterministic FIFO instead of inheriting store iteration order.
func sortBuyLines(buys []model.OrderLine, ordersByID map[int64]model.Order) {
	sort.SliceStable(buys, func(i, j int) bool {
		oi, oj := ordersByID[buys[i].OrderID], ordersByID[buys[j].OrderID]
		if oi.CreatedAt != oj.CreatedAt {
			return oi.CreatedAt < oj.CreatedAt
		}
		return oi.ID < oj.ID
	})
}

func checkLines(lines []model.OrderLine) error {
	for _, line := range lines {
		if line.Amount < 0 || line.PerPrice.IsNegative() {
			return fmt.Errorf("%w: order %d product %d", ErrNegativeLine, line.OrderID, line.ProductID)
		}
	}
	return nil
}
