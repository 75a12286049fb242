package service

import (
	"sync"
	"testing"
	"time"

	"license-shop/internal/domain"
	"license-shop/internal/logger"
	"license-shop/internal/repo"
)

var start = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sinkRecorder struct {
	mu       sync.Mutex
	payments []domain.Payment
}

func (s *sinkRecorder) Enqueue(p domain.Payment) {
	s.mu.Lock()
	s.payments = append(s.payments, p)
	s.mu.Unlock()
}

type fixture struct {
	deps     Deps
	clock    *fakeClock
	sink     *sinkRecorder
	orders   OrderService
	licenses LicenseService
	stats    StatsService
}

func setup(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: start}
	sink := &sinkRecorder{}
	deps := NewDeps(repo.NewStore(start), logger.Discard())
	deps.Now = clock.Now
	deps.Sink = sink
	return &fixture{
		deps:     deps,
		clock:    clock,
		sink:     sink,
		orders:   NewOrderService(deps),
		licenses: NewLicenseService(deps),
		stats:    NewStatsService(deps),
	}
}
