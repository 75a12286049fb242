package repo

import (
	"context"
	"time"

	"license-shop/internal/domain"
)

// OrderRepo methods accept a nil tx for standalone access.
type OrderRepo interface {
	FindById(ctx context.Context, tx *Tx, id string) (*domain.Order, error)
	FindLatestByEmail(ctx context.Context, tx *Tx, email string) (*domain.Order, error)
	FindRecent(ctx context.Context, tx *Tx, limit int) ([]domain.Order, error)
	FindStuckOrders(ctx context.Context, tx *Tx, createdBefore time.Time) ([]domain.Order, error)
	CreateOrder(ctx context.Context, tx *Tx, order *domain.Order) error
	UpdateOrder(ctx context.Context, tx *Tx, order *domain.Order) error
	Count(ctx context.Context, tx *Tx) (int, error)
}

type orderRepo struct {
	store *Store
}

func NewOrderRepo(store *Store) OrderRepo {
	return &orderRepo{store: store}
}

// FindById returns nil, nil when the order does not exist.
func (r *orderRepo) FindById(ctx context.Context, tx *Tx, id string) (*domain.Order, error) {
	var out *domain.Order
	err := r.store.view(tx, func(rd reader) {
		if e, ok := rd.order(id); ok {
			o := e.order.Clone()
			out = &o
		}
	})
	return out, err
}

func (r *orderRepo) FindLatestByEmail(ctx context.Context, tx *Tx, email string) (*domain.Order, error) {
	var out *domain.Order
	err := r.store.view(tx, func(rd reader) {
		matches := sortedOrders(rd, func(o domain.Order) bool { return o.BuyerEmail == email })
		if len(matches) > 0 {
			o := matches[0].order.Clone()
			out = &o
		}
	})
	return out, err
}

func (r *orderRepo) FindRecent(ctx context.Context, tx *Tx, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.store.view(tx, func(rd reader) {
		all := sortedOrders(rd, nil)
		if limit > 0 && len(all) > limit {
			all = all[:limit]
		}
		orders = make([]domain.Order, 0, len(all))
		for _, e := range all {
			orders = append(orders, e.order.Clone())
		}
	})
	return orders, err
}

func (r *orderRepo) FindStuckOrders(ctx context.Context, tx *Tx, createdBefore time.Time) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.store.view(tx, func(rd reader) {
		stuck := sortedOrders(rd, func(o domain.Order) bool {
			return o.Status == domain.OrderPending && o.CreatedAt.Before(createdBefore)
		})
		for _, e := range stuck {
			orders = append(orders, e.order.Clone())
		}
	})
	return orders, err
}

// CreateOrder overwrites an existing order with the same id.
func (r *orderRepo) CreateOrder(ctx context.Context, tx *Tx, order *domain.Order) error {
	return r.store.write(ctx, tx, func(tx *Tx) {
		tx.orders[order.ID] = orderEntry{seq: tx.nextSeq(), order: order.Clone()}
	})
}

func (r *orderRepo) UpdateOrder(ctx context.Context, tx *Tx, order *domain.Order) error {
	var missing bool
	err := r.store.write(ctx, tx, func(tx *Tx) {
		e, ok := tx.order(order.ID)
		if !ok {
			missing = true
			return
		}
		e.order = order.Clone()
		tx.orders[order.ID] = e
	})
	if err != nil {
		return err
	}
	if missing {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) Count(ctx context.Context, tx *Tx) (int, error) {
	n := 0
	err := r.store.view(tx, func(rd reader) {
		rd.eachOrder(func(orderEntry) { n++ })
	})
	return n, err
}
