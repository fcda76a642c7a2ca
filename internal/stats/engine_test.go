package stats

import (
	"context"
	"errors"
	"testing"

	"shoptrack/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory RecordSource. ListOrders applies the window
// filter the same way the real repository does.
type fakeSource struct {
	orders    []model.Order
	lines     []model.OrderLine
	ordersErr error
	linesErr  error
}

func (f *fakeSource) ListOrders(_ context.Context, window model.TimeWindow) ([]model.Order, error) {
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	var out []model.Order
	for _, o := range f.orders {
		if window.Contains(o.CreatedAt) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeSource) ListOrderLines(_ context.Context) ([]model.OrderLine, error) {
	if f.linesErr != nil {
		return nil, f.linesErr
	}
	return f.lines, nil
}

func newTestEngine(src RecordSource) *Engine {
	return NewEngine(src, zerolog.Nop())
}

func buyOrder(id, createdAt int64) model.Order {
	return model.Order{ID: id, IsBuyOrder: true, CreatedAt: createdAt}
}

func sellOrder(id, createdAt int64) model.Order {
	return model.Order{ID: id, IsBuyOrder: false, CreatedAt: createdAt}
}

func line(orderID, productID, amount int64, perPrice string) model.OrderLine {
	return model.OrderLine{
		OrderID:   orderID,
		ProductID: productID,
		Amount:    amount,
		PerPrice:  decimal.RequireFromString(perPrice),
	}
}

func TestOrderProductsStats_BasicMatch(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), sellOrder(2, 200)},
		lines: []model.OrderLine{
			line(1, 7, 10, "5"),
			line(2, 7, 4, "9"),
		},
	}

	stats, err := newTestEngine(src).OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, int64(7), s.ProductID)
	assert.Equal(t, int64(4), s.Amount)
	assert.True(t, s.Revenue.Equal(decimal.NewFromInt(36)), "revenue = %s", s.Revenue)
	assert.True(t, s.Cost.Equal(decimal.NewFromInt(20)), "cost = %s", s.Cost)
	assert.True(t, s.Profit.Equal(decimal.NewFromInt(16)), "profit = %s", s.Profit)
}

func TestOrderProductsStats_OversellCarriesZeroCost(t *testing.T) {
	// Buy 10 units, sell 12: the 2 oversold units match nothing and cost
	// stays at the full buy-side total.
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), sellOrder(2, 200), sellOrder(3, 300)},
		lines: []model.OrderLine{
			line(1, 7, 10, "5"),
			line(2, 7, 4, "9"),
			line(3, 7, 8, "9"),
		},
	}

	stats, err := newTestEngine(src).OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, int64(12), s.Amount)
	assert.True(t, s.Revenue.Equal(decimal.NewFromInt(108)))
	assert.True(t, s.Cost.Equal(decimal.NewFromInt(50)), "only the 10 bought units carry cost, got %s", s.Cost)
	assert.True(t, s.Profit.Equal(decimal.NewFromInt(58)))
}

func TestOrderProductsStats_FIFOMatchesOldestBuyFirst(t *testing.T) {
	// Two buy orders at different prices, listed newest-first to prove the
	// engine sorts by creation time rather than trusting store order.
	src := &fakeSource{
		orders: []model.Order{buyOrder(2, 500), buyOrder(1, 100), sellOrder(3, 900)},
		lines: []model.OrderLine{
			line(2, 7, 10, "8"),
			line(1, 7, 10, "5"),
			line(3, 7, 12, "20"),
		},
	}

	stats, err := newTestEngine(src).OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, stats, 1)

	// 10 units at 5 from the older order, 2 units at 8 from the newer.
	assert.True(t, stats[0].Cost.Equal(decimal.NewFromInt(66)), "cost = %s", stats[0].Cost)
}

func TestOrderProductsStats_TimestampTieBreaksOnOrderID(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(2, 100), buyOrder(1, 100), sellOrder(3, 900)},
		lines: []model.OrderLine{
			line(2, 7, 10, "8"),
			line(1, 7, 10, "5"),
			line(3, 7, 5, "20"),
		},
	}

	stats, err := newTestEngine(src).OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.True(t, stats[0].Cost.Equal(decimal.NewFromInt(25)), "lower order id matches first, cost = %s", stats[0].Cost)
}

func TestOrderProductsStats_BuyOnlyProductOmitted(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), sellOrder(2, 200)},
		lines: []model.OrderLine{
			line(1, 7, 10, "5"),
			line(1, 8, 3, "2"), // never sold
			line(2, 7, 4, "9"),
		},
	}

	stats, err := newTestEngine(src).OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(7), stats[0].ProductID)
}

func TestOrderProductsStats_WindowScopesMatching(t *testing.T) {
	// The buy order sits outside the window, so the windowed sell finds no
	// buy-side inventory and its cost is zero.
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), sellOrder(2, 5000)},
		lines: []model.OrderLine{
			line(1, 7, 10, "5"),
			line(2, 7, 4, "9"),
		},
	}

	stats, err := newTestEngine(src).OrderProductsStats(context.Background(), model.TimeWindow{From: 4000, To: 6000})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.True(t, stats[0].Cost.IsZero())
	assert.True(t, stats[0].Profit.Equal(decimal.NewFromInt(36)))
}

func TestOrderProductsStats_WindowBoundsInclusive(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{sellOrder(1, 1000), sellOrder(2, 2000), sellOrder(3, 2001)},
		lines: []model.OrderLine{
			line(1, 7, 1, "10"),
			line(2, 7, 1, "10"),
			line(3, 7, 1, "10"),
		},
	}

	stats, err := newTestEngine(src).OrderProductsStats(context.Background(), model.TimeWindow{From: 1000, To: 2000})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(2), stats[0].Amount)
}

func TestOrderProductsStats_SortedByProductID(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{sellOrder(1, 100)},
		lines: []model.OrderLine{
			line(1, 9, 1, "1"),
			line(1, 3, 1, "1"),
			line(1, 6, 1, "1"),
		},
	}

	stats, err := newTestEngine(src).OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, int64(3), stats[0].ProductID)
	assert.Equal(t, int64(6), stats[1].ProductID)
	assert.Equal(t, int64(9), stats[2].ProductID)
}

func TestOrderProductsStats_ZeroAmountLinesIgnored(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), sellOrder(2, 200)},
		lines: []model.OrderLine{
			line(1, 7, 0, "5"),
			line(2, 7, 0, "9"),
		},
	}

	e := newTestEngine(src)
	stats, err := e.OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	assert.Empty(t, stats)

	stock, err := e.ProductsStock(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stock)
}

func TestOrderProductsStats_LinelessOrdersAreInert(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), sellOrder(2, 200)},
	}

	e := newTestEngine(src)
	stats, err := e.OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	assert.Empty(t, stats)

	cost, err := e.InventoryCost(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cost)
}

func TestOrderProductsStats_DecimalPrices(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), sellOrder(2, 200)},
		lines: []model.OrderLine{
			line(1, 7, 3, "2.35"),
			line(2, 7, 3, "4.10"),
		},
	}

	stats, err := newTestEngine(src).OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.True(t, s.Revenue.Equal(decimal.RequireFromString("12.30")))
	assert.True(t, s.Cost.Equal(decimal.RequireFromString("7.05")))
	assert.True(t, s.Profit.Equal(s.Revenue.Sub(s.Cost)))
}

func TestProfitAndRevenue_SumAcrossProducts(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), sellOrder(2, 200)},
		lines: []model.OrderLine{
			line(1, 7, 10, "5"),
			line(1, 8, 10, "2"),
			line(2, 7, 4, "9"),
			line(2, 8, 5, "3"),
		},
	}

	e := newTestEngine(src)
	revenue, err := e.Revenue(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	assert.True(t, revenue.Equal(decimal.NewFromInt(51)), "revenue = %s", revenue)

	// profit = (36 - 20) + (15 - 10)
	profit, err := e.Profit(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	assert.True(t, profit.Equal(decimal.NewFromInt(21)), "profit = %s", profit)
}

func TestProductsStock_NegativeAllowed(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), sellOrder(2, 200), sellOrder(3, 300)},
		lines: []model.OrderLine{
			line(1, 7, 10, "5"),
			line(2, 7, 4, "9"),
			line(3, 7, 8, "9"),
		},
	}

	stock, err := newTestEngine(src).ProductsStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{7: -2}, stock)
}

func TestProductsStock_PerProductNetting(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), buyOrder(2, 200), sellOrder(3, 300)},
		lines: []model.OrderLine{
			line(1, 7, 10, "5"),
			line(2, 7, 5, "6"),
			line(2, 8, 3, "1"),
			line(3, 7, 6, "9"),
		},
	}

	stock, err := newTestEngine(src).ProductsStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{7: 9, 8: 3}, stock)
}

func TestInventoryCost_ValuesNewestBuysFirst(t *testing.T) {
	// Sold units consume the oldest buys, so the 3 units left on hand come
	// from the newer order at 7.
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), buyOrder(2, 500), sellOrder(3, 900)},
		lines: []model.OrderLine{
			line(1, 7, 10, "5"),
			line(2, 7, 5, "7"),
			line(3, 7, 12, "20"),
		},
	}

	inv, err := newTestEngine(src).InventoryCost(context.Background())
	require.NoError(t, err)
	require.Len(t, inv, 1)

	assert.Equal(t, int64(3), inv[0].Inventory)
	assert.True(t, inv[0].Cost.Equal(decimal.NewFromInt(21)), "cost = %s", inv[0].Cost)
}

func TestInventoryCost_NoSales(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100)},
		lines:  []model.OrderLine{line(1, 7, 10, "5")},
	}

	inv, err := newTestEngine(src).InventoryCost(context.Background())
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, int64(10), inv[0].Inventory)
	assert.True(t, inv[0].Cost.Equal(decimal.NewFromInt(50)))
}

func TestInventoryCost_OversoldClampsToZero(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), sellOrder(2, 200)},
		lines: []model.OrderLine{
			line(1, 7, 10, "5"),
			line(2, 7, 15, "9"),
		},
	}

	inv, err := newTestEngine(src).InventoryCost(context.Background())
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, int64(-5), inv[0].Inventory)
	assert.True(t, inv[0].Cost.IsZero(), "nothing on hand, cost = %s", inv[0].Cost)
}

func TestInventoryCost_PlusCOGSEqualsTotalBuyCost(t *testing.T) {
	// Without overselling, the matched cost of goods sold over the full
	// history plus the on-hand valuation recovers exactly what was spent.
	src := &fakeSource{
		orders: []model.Order{buyOrder(1, 100), buyOrder(2, 500), sellOrder(3, 900)},
		lines: []model.OrderLine{
			line(1, 7, 10, "5"),
			line(2, 7, 5, "7"),
			line(3, 7, 12, "20"),
		},
	}

	e := newTestEngine(src)
	sales, err := e.OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	inv, err := e.InventoryCost(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 1)
	require.Len(t, inv, 1)

	totalBuyCost := decimal.NewFromInt(85) // 10*5 + 5*7
	assert.True(t, sales[0].Cost.Add(inv[0].Cost).Equal(totalBuyCost),
		"cogs %s + on-hand %s != %s", sales[0].Cost, inv[0].Cost, totalBuyCost)
}

func TestEngine_RejectsNegativeLines(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{sellOrder(1, 100)},
		lines:  []model.OrderLine{line(1, 7, -2, "9")},
	}

	e := newTestEngine(src)
	_, err := e.OrderProductsStats(context.Background(), model.TimeWindow{})
	require.ErrorIs(t, err, ErrNegativeLine)

	_, err = e.ProductsStock(context.Background())
	require.ErrorIs(t, err, ErrNegativeLine)

	src.lines = []model.OrderLine{line(1, 7, 2, "-9")}
	_, err = e.InventoryCost(context.Background())
	require.ErrorIs(t, err, ErrNegativeLine)
}

func TestEngine_PropagatesSourceErrors(t *testing.T) {
	boom := errors.New("connection reset")

	e := newTestEngine(&fakeSource{ordersErr: boom})
	_, err := e.Profit(context.Background(), model.TimeWindow{})
	require.ErrorIs(t, err, boom)

	e = newTestEngine(&fakeSource{linesErr: boom})
	_, err = e.InventoryCost(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestEngine_EmptySnapshot(t *testing.T) {
	e := newTestEngine(&fakeSource{})

	stats, err := e.OrderProductsStats(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	assert.Empty(t, stats)

	profit, err := e.Profit(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	assert.True(t, profit.IsZero())

	stock, err := e.ProductsStock(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stock)
}
