package service

import (
	"context"

	"license-shop/internal/domain"
)

const recentOrdersInSnapshot = 10

type StatsService interface {
	Snapshot(ctx context.Context) (*domain.StatsSnapshot, error)
}

type statsService struct {
	Deps
}

func NewStatsService(deps Deps) StatsService {
	return &statsService{Deps: deps.withDefaults()}
}

// Snapshot reads every counter under one transaction so the figures agree
// with each other. Today* counters are reported for the current date even if
// no event has rolled them over yet; the store itself is not modified.
func (s *statsService) Snapshot(ctx context.Context) (*domain.StatsSnapshot, error) {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stats, err := s.Stats.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	stats.Rollover(s.Now())

	orders, err := s.Orders.Count(ctx, tx)
	if err != nil {
		return nil, err
	}
	licenses, err := s.Licenses.Count(ctx, tx)
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments.List(ctx, tx)
	if err != nil {
		return nil, err
	}
	recent, err := s.Orders.FindRecent(ctx, tx, recentOrdersInSnapshot)
	if err != nil {
		return nil, err
	}

	return &domain.StatsSnapshot{
		Stats:        stats,
		Orders:       orders,
		Licenses:     licenses,
		Payments:     len(payments),
		RecentOrders: recent,
	}, nil
}
