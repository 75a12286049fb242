package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-shop/internal/domain"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newOrder(id, email string, created time.Time) *domain.Order {
	return &domain.Order{
		ID:         id,
		TierCode:   domain.TierWeek,
		Status:     domain.OrderPending,
		BuyerEmail: email,
		Price:      77,
		CreatedAt:  created,
	}
}

func TestTx_CommitAppliesStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t0)
	orders := NewOrderRepo(store)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, orders.CreateOrder(ctx, tx, newOrder("A", "a@x.com", t0)))

	staged, err := orders.FindById(ctx, tx, "A")
	require.NoError(t, err)
	require.NotNil(t, staged)

	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Commit(), ErrTxDone)
	assert.NoError(t, tx.Rollback())

	got, err := orders.FindById(ctx, nil, "A")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a@x.com", got.BuyerEmail)
}

func TestTx_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t0)
	orders := NewOrderRepo(store)
	licenses := NewLicenseRepo(store)
	payments := NewPaymentRepo(store)
	stats := NewStatsRepo(store)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, orders.CreateOrder(ctx, tx, newOrder("A", "a@x.com", t0)))
	require.NoError(t, licenses.CreateLicense(ctx, tx, &domain.License{Key: "K"}))
	require.NoError(t, payments.CreatePayment(ctx, tx, &domain.Payment{ID: "P", OrderID: "A"}))
	s, err := stats.Get(ctx, tx)
	require.NoError(t, err)
	s.RecordOrder()
	require.NoError(t, stats.Save(ctx, tx, s))
	require.NoError(t, tx.Rollback())

	o, err := orders.FindById(ctx, nil, "A")
	require.NoError(t, err)
	assert.Nil(t, o)
	l, err := licenses.FindByKey(ctx, nil, "K")
	require.NoError(t, err)
	assert.Nil(t, l)
	all, err := payments.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
	s, err = stats.Get(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, s.TotalOrders)

	_, err = orders.FindById(ctx, tx, "A")
	assert.ErrorIs(t, err, ErrTxDone)
}

func TestTx_ReadersWaitForCommit(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t0)
	orders := NewOrderRepo(store)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, orders.CreateOrder(ctx, tx, newOrder("A", "a@x.com", t0)))

	found := make(chan bool, 1)
	go func() {
		o, _ := orders.FindById(ctx, nil, "A")
		found <- o != nil
	}()

	select {
	case <-found:
		t.Fatal("reader observed state before commit")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, tx.Commit())
	assert.True(t, <-found)
}

func TestBeginTx_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore(t0).BeginTx(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrderRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepo(NewStore(t0))
	o := newOrder("A", "a@x.com", t0)
	o.Extra = map[string]string{"qq": "1"}
	require.NoError(t, orders.CreateOrder(ctx, nil, o))

	o.Extra["qq"] = "changed"
	got, err := orders.FindById(ctx, nil, "A")
	require.NoError(t, err)
	got.Status = domain.OrderPaid

	again, err := orders.FindById(ctx, nil, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, again.Status)
	assert.Equal(t, "1", again.Extra["qq"])
}

func TestOrderRepo_FindLatestByEmail(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepo(NewStore(t0))

	require.NoError(t, orders.CreateOrder(ctx, nil, newOrder("OLD", "a@x.com", t0)))
	require.NoError(t, orders.CreateOrder(ctx, nil, newOrder("NEW", "a@x.com", t0.Add(time.Minute))))
	require.NoError(t, orders.CreateOrder(ctx, nil, newOrder("TIE", "a@x.com", t0.Add(time.Minute))))
	require.NoError(t, orders.CreateOrder(ctx, nil, newOrder("OTHER", "b@x.com", t0.Add(time.Hour))))

	got, err := orders.FindLatestByEmail(ctx, nil, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "TIE", got.ID)

	none, err := orders.FindLatestByEmail(ctx, nil, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestOrderRepo_FindStuckOrdersAndRecent(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepo(NewStore(t0))

	require.NoError(t, orders.CreateOrder(ctx, nil, newOrder("A", "a@x.com", t0)))
	paid := newOrder("B", "b@x.com", t0)
	paid.Status = domain.OrderPaid
	require.NoError(t, orders.CreateOrder(ctx, nil, paid))
	require.NoError(t, orders.CreateOrder(ctx, nil, newOrder("C", "c@x.com", t0.Add(20*time.Minute))))

	stuck, err := orders.FindStuckOrders(ctx, nil, t0.Add(15*time.Minute))
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "A", stuck[0].ID)

	recent, err := orders.FindRecent(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "C", recent[0].ID)
	assert.Equal(t, "B", recent[1].ID)

	n, err := orders.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUpdateMissing(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t0)

	err := NewOrderRepo(store).UpdateOrder(ctx, nil, newOrder("X", "x@x.com", t0))
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	err = NewLicenseRepo(store).UpdateLicense(ctx, nil, &domain.License{Key: "X"})
	assert.ErrorIs(t, err, domain.ErrLicenseNotFound)
}

func TestLicenseRepo_CountSeesStaged(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t0)
	licenses := NewLicenseRepo(store)
	require.NoError(t, licenses.CreateLicense(ctx, nil, &domain.License{Key: "A"}))

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	require.NoError(t, licenses.CreateLicense(ctx, tx, &domain.License{Key: "B"}))
	require.NoError(t, licenses.UpdateLicense(ctx, tx, &domain.License{Key: "A", ActivationCount: 1}))

	n, err := licenses.Count(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
