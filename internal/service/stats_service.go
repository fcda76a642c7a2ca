package service

import (
	"context"
	"time"

	"shoptrack/internal/model"
	"shoptrack/internal/stats"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// StatsService exposes the derived shop statistics. Windowed queries take
// epoch-millisecond bounds (zero = unbounded); the series queries evaluate one
// independent engine query per calendar day.
type StatsService interface {
	GetOrderProductsStats(ctx context.Context, from, to int64) ([]model.ProductSalesStat, error)
	GetProfit(ctx context.Context, from, to int64) (decimal.Decimal, error)
	GetRevenue(ctx context.Context, from, to int64) (decimal.Decimal, error)
	GetProductsStock(ctx context.Context) (map[int64]int64, error)
	GetInventoryCost(ctx context.Context) ([]model.ProductInventoryStat, error)
	GetProfitSeries(ctx context.Context, from, to time.Time) ([]model.SlicePoint, error)
	GetRevenueSeries(ctx context.Context, from, to time.Time) ([]model.SlicePoint, error)
}

type statsService struct {
	engine *stats.Engine
}

func NewStatsService(engine *stats.Engine) StatsService {
	return &statsService{engine: engine}
}

func (s *statsService) GetOrderProductsStats(ctx context.Context, from, to int64) ([]model.ProductSalesStat, error) {
	return s.engine.OrderProductsStats(ctx, model.TimeWindow{From: from, To: to})
}

func (s *statsService) GetProfit(ctx context.Context, from, to int64) (decimal.Decimal, error) {
	return s.engine.Profit(ctx, model.TimeWindow{From: from, To: to})
}

func (s *statsService) GetRevenue(ctx context.Context, from, to int64) (decimal.Decimal, error) {
	return s.engine.Revenue(ctx, model.TimeWindow{From: from, To: to})
}

func (s *statsService) GetProductsStock(ctx context.Context) (map[int64]int64, error) {
	return s.engine.ProductsStock(ctx)
}

func (s *statsService) GetInventoryCost(ctx context.Context) ([]model.ProductInventoryStat, error) {
	return s.engine.InventoryCost(ctx)
}

func (s *statsService) GetProfitSeries(ctx context.Context, from, to time.Time) ([]model.SlicePoint, error) {
	return s.series(ctx, from, to, s.engine.Profit)
}

func (s *statsService) GetRevenueSeries(ctx context.Context, from, to time.Time) ([]model.SlicePoint, error) {
	return s.series(ctx, from, to, s.engine.Revenue)
}

// series fans the per-day windows out concurrently. Each window reads its own
// snapshot and shares nothing with the others, so ordering between them is
// irrelevant; results land by index.
func (s *statsService) series(
	ctx context.Context,
	from, to time.Time,
	query func(context.Context, model.TimeWindow) (decimal.Decimal, error),
) ([]model.SlicePoint, error) {
	windows := stats.DayWindows(from, to)
	points := make([]model.SlicePoint, len(windows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, w := range windows {
		g.Go(func() error {
			value, err := query(ctx, w)
			if err != nil {
				return err
			}
			points[i] = model.SlicePoint{From: w.From, To: w.To, Value: value}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
