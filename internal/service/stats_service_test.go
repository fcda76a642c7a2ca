package service

import (
	"context"
	"testing"
	"time"

	"shoptrack/internal/model"
	"shoptrack/internal/stats"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecordSource struct {
	orders []model.Order
	lines  []model.OrderLine
}

func (s *stubRecordSource) ListOrders(_ context.Context, window model.TimeWindow) ([]model.Order, error) {
	var out []model.Order
	for _, o := range s.orders {
		if window.Contains(o.CreatedAt) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubRecordSource) ListOrderLines(_ context.Context) ([]model.OrderLine, error) {
	return s.lines, nil
}

func newStatsService(src stats.RecordSource) StatsService {
	return NewStatsService(stats.NewEngine(src, zerolog.Nop()))
}

// Two days where each day's buys are fully consumed by that day's sells.
// Leftover buy inventory would be matched across day boundaries by
// whole-window FIFO, so per-day profit only sums to whole-window profit when
// no day leaves a remainder. Day one profits 16, day two profits 10.
func twoDaySource(day1 time.Time) *stubRecordSource {
	day2 := day1.Add(24 * time.Hour)
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return &stubRecordSource{
		orders: []model.Order{
			{ID: 1, IsBuyOrder: true, CreatedAt: day1.Add(1 * time.Hour).UnixMilli()},
			{ID: 2, CreatedAt: day1.Add(2 * time.Hour).UnixMilli()},
			{ID: 3, IsBuyOrder: true, CreatedAt: day2.Add(1 * time.Hour).UnixMilli()},
			{ID: 4, CreatedAt: day2.Add(2 * time.Hour).UnixMilli()},
		},
		lines: []model.OrderLine{
			{OrderID: 1, ProductID: 7, Amount: 4, PerPrice: price("5")},
			{OrderID: 2, ProductID: 7, Amount: 4, PerPrice: price("9")},
			{OrderID: 3, ProductID: 7, Amount: 5, PerPrice: price("2")},
			{OrderID: 4, ProductID: 7, Amount: 5, PerPrice: price("4")},
		},
	}
}

func TestGetProfitSeries_PerDayPoints(t *testing.T) {
	day1 := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	svc := newStatsService(twoDaySource(day1))

	points, err := svc.GetProfitSeries(context.Background(), day1, day1.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, day1.UnixMilli(), points[0].From)
	assert.True(t, points[0].Value.Equal(decimal.NewFromInt(16)), "day one profit = %s", points[0].Value)
	assert.True(t, points[1].Value.Equal(decimal.NewFromInt(10)), "day two profit = %s", points[1].Value)
}

func TestGetProfitSeries_SumMatchesWholeWindow(t *testing.T) {
	day1 := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	svc := newStatsService(twoDaySource(day1))

	points, err := svc.GetProfitSeries(context.Background(), day1, day1.Add(48*time.Hour))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, p := range points {
		sum = sum.Add(p.Value)
	}

	whole, err := svc.GetProfit(context.Background(), day1.UnixMilli(), day1.Add(48*time.Hour).UnixMilli()-1)
	require.NoError(t, err)
	assert.True(t, sum.Equal(whole), "series sum %s != whole-window profit %s", sum, whole)
}

func TestGetProfitSeries_LeftoverBuysMatchAcrossDays(t *testing.T) {
	// Day one buys 10 but sells only 4. The whole-window query matches day
	// two's 5-unit sell against day one's leftover units at 5 instead of day
	// two's own buy at 2, so the per-day sum and the whole-window profit are
	// legitimately different.
	day1 := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	svc := newStatsService(&stubRecordSource{
		orders: []model.Order{
			{ID: 1, IsBuyOrder: true, CreatedAt: day1.Add(1 * time.Hour).UnixMilli()},
			{ID: 2, CreatedAt: day1.Add(2 * time.Hour).UnixMilli()},
			{ID: 3, IsBuyOrder: true, CreatedAt: day2.Add(1 * time.Hour).UnixMilli()},
			{ID: 4, CreatedAt: day2.Add(2 * time.Hour).UnixMilli()},
		},
		lines: []model.OrderLine{
			{OrderID: 1, ProductID: 7, Amount: 10, PerPrice: price("5")},
			{OrderID: 2, ProductID: 7, Amount: 4, PerPrice: price("9")},
			{OrderID: 3, ProductID: 7, Amount: 5, PerPrice: price("2")},
			{OrderID: 4, ProductID: 7, Amount: 5, PerPrice: price("4")},
		},
	})

	points, err := svc.GetProfitSeries(context.Background(), day1, day1.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)

	sum := points[0].Value.Add(points[1].Value)
	assert.True(t, sum.Equal(decimal.NewFromInt(26)), "per-day sum = %s", sum)

	whole, err := svc.GetProfit(context.Background(), day1.UnixMilli(), day1.Add(48*time.Hour).UnixMilli()-1)
	require.NoError(t, err)
	assert.True(t, whole.Equal(decimal.NewFromInt(11)), "whole-window profit = %s", whole)
}

func TestGetRevenueSeries(t *testing.T) {
	day1 := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	svc := newStatsService(twoDaySource(day1))

	points, err := svc.GetRevenueSeries(context.Background(), day1, day1.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].Value.Equal(decimal.NewFromInt(36)))
	assert.True(t, points[1].Value.Equal(decimal.NewFromInt(20)))
}

func TestGetProfitSeries_EmptyRange(t *testing.T) {
	day1 := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	svc := newStatsService(&stubRecordSource{})

	points, err := svc.GetProfitSeries(context.Background(), day1, day1)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestGetProductsStock_Passthrough(t *testing.T) {
	day1 := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	svc := newStatsService(twoDaySource(day1))

	stock, err := svc.GetProductsStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{7: 0}, stock)
}
