package worker

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"license-shop/internal/domain"
	"license-shop/internal/infrastructure/payment"
	"license-shop/internal/service"
)

// PendingOrderReaper cancels orders left PENDING longer than the payment
// window. Before cancelling it asks the gateway whether the order was in fact
// charged; charged orders are confirmed instead.
type PendingOrderReaper struct {
	orders   service.OrderService
	gateway  payment.PaymentGateway
	logger   log.FieldLogger
	window   time.Duration
	interval time.Duration
}

func NewPendingOrderReaper(
	orders service.OrderService,
	gateway payment.PaymentGateway,
	logger log.FieldLogger,
	window time.Duration,
	interval time.Duration,
) *PendingOrderReaper {
	return &PendingOrderReaper{
		orders:   orders,
		gateway:  gateway,
		logger:   logger,
		window:   window,
		interval: interval,
	}
}

func (r *PendingOrderReaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.WithField("window", r.window).Info("pending order reaper started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Process(ctx); err != nil {
				r.logger.WithError(err).Error("reap pending orders")
			}
		}
	}
}

// Process runs one pass and returns the ids of the orders it cancelled.
func (r *PendingOrderReaper) Process(ctx context.Context) ([]string, error) {
	if r.gateway != nil {
		stuck, err := r.orders.FindStalePending(ctx, r.window)
		if err != nil {
			return nil, err
		}
		for _, order := range stuck {
			r.reconcile(ctx, order)
		}
	}

	cancelled, err := r.orders.ExpireStalePending(ctx, r.window, r.charged(ctx))
	if err != nil {
		return nil, err
	}
	if len(cancelled) > 0 {
		r.logger.WithField("count", len(cancelled)).Info("expired pending orders")
	}
	return cancelled, nil
}

// reconcile confirms a stuck order the gateway reports as charged.
func (r *PendingOrderReaper) reconcile(ctx context.Context, order domain.Order) {
	orderID := order.ID
	paid, err := r.gateway.CheckStatus(ctx, orderID)
	if err != nil {
		r.logger.WithError(err).WithField("orderId", orderID).Warn("check gateway status")
		return
	}
	if !paid {
		return
	}
	ev, err := r.gateway.Charge(ctx, order)
	if err != nil {
		r.logger.WithError(err).WithField("orderId", orderID).Warn("fetch charge evidence")
		return
	}
	if _, err := r.orders.ConfirmPayment(ctx, orderID, ev); err != nil {
		r.logger.WithError(err).WithField("orderId", orderID).Warn("confirm charged order")
		return
	}
	r.logger.WithField("orderId", orderID).Info("charged order found pending, confirmed")
}

// charged asks the gateway again for each order about to be expired, so a
// charge that lands after reconcile keeps its order. A failed lookup counts
// as charged; the order is retried on the next pass.
func (r *PendingOrderReaper) charged(ctx context.Context) service.ChargedFunc {
	if r.gateway == nil {
		return nil
	}
	return func(orderID string) bool {
		paid, err := r.gateway.CheckStatus(ctx, orderID)
		if err != nil {
			r.logger.WithError(err).WithField("orderId", orderID).Warn("check gateway status before expiry")
			return true
		}
		return paid
	}
}
