package repo

import (
	"context"

	"license-shop/internal/domain"
)

// PaymentRepo is append-only: there is no update.
type PaymentRepo interface {
	CreatePayment(ctx context.Context, tx *Tx, payment *domain.Payment) error
	FindByOrderId(ctx context.Context, tx *Tx, orderID string) ([]domain.Payment, error)
	List(ctx context.Context, tx *Tx) ([]domain.Payment, error)
}

type paymentRepo struct {
	store *Store
}

func NewPaymentRepo(store *Store) PaymentRepo {
	return &paymentRepo{store: store}
}

func (r *paymentRepo) CreatePayment(ctx context.Context, tx *Tx, payment *domain.Payment) error {
	return r.store.write(ctx, tx, func(tx *Tx) {
		tx.payments = append(tx.payments, *payment)
	})
}

func (r *paymentRepo) FindByOrderId(ctx context.Context, tx *Tx, orderID string) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.store.view(tx, func(rd reader) {
		for _, p := range rd.paymentList() {
			if p.OrderID == orderID {
				out = append(out, p)
			}
		}
	})
	return out, err
}

func (r *paymentRepo) List(ctx context.Context, tx *Tx) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.store.view(tx, func(rd reader) {
		out = append([]domain.Payment(nil), rd.paymentList()...)
	})
	return out, err
}
