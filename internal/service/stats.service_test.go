package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-shop/internal/domain"
)

func TestSnapshot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		f.clock.Advance(time.Second)
		_, err := f.orders.CreateOrder(ctx, CreateOrderInput{TierCode: domain.TierDay, Email: "a@x.com"})
		require.NoError(t, err)
	}
	f.paidOrder(t, domain.TierLifetime, "vip@x.com")

	snap, err := f.stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13, snap.Orders)
	assert.Equal(t, 1, snap.Licenses)
	assert.Equal(t, 1, snap.Payments)
	assert.Equal(t, 532, snap.Stats.Revenue[domain.TierLifetime])
	require.Len(t, snap.RecentOrders, 10)
	assert.Equal(t, "vip@x.com", snap.RecentOrders[0].BuyerEmail)

	snap.Stats.Revenue[domain.TierLifetime] = 0
	again, err := f.stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 532, again.Stats.Revenue[domain.TierLifetime])
}

func TestSnapshot_ReportsNewDayWithoutMutating(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.paidOrder(t, domain.TierWeek, "a@x.com")
	f.clock.Advance(48 * time.Hour)

	snap, err := f.stats.Snapshot(ctx)
	require.NoError(t, err)
	assert.Zero(t, snap.Stats.TodaySales)
	assert.Zero(t, snap.Stats.TodayOrders)
	assert.Equal(t, 77, snap.Stats.TotalSales)

	stored, err := f.deps.Stats.Get(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 77, stored.TodaySales)
}
