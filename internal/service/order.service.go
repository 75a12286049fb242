package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"license-shop/internal/domain"
	"license-shop/internal/keygen"
	"license-shop/internal/logger"
	"license-shop/internal/repo"
)

type CreateOrderInput struct {
	TierCode      domain.TierCode
	Email         string
	PaymentMethod string
	Extra         map[string]string
}

// OrderQuery looks up by OrderID first, then falls back to the newest order
// for Email.
type OrderQuery struct {
	OrderID string
	Email   string
}

type Receipt struct {
	Order   domain.Order
	License domain.License
}

// ChargedFunc reports whether the payment provider holds a charge for the
// order. Such orders are left PENDING so they can still be confirmed.
type ChargedFunc func(orderID string) bool

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	ConfirmPayment(ctx context.Context, orderID string, evidence domain.PaymentEvidence) (*Receipt, error)
	CancelOrder(ctx context.Context, orderID string) error
	FindOrder(ctx context.Context, q OrderQuery) (*domain.Order, error)
	FindStalePending(ctx context.Context, window time.Duration) ([]domain.Order, error)
	ExpireStalePending(ctx context.Context, window time.Duration, charged ChargedFunc) ([]string, error)
}

type orderService struct {
	Deps
}

func NewOrderService(deps Deps) OrderService {
	return &orderService{Deps: deps.withDefaults()}
}

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	tier, err := domain.LookupTier(in.TierCode)
	if err != nil {
		return nil, errors.Wrapf(err, "create order for %q", in.TierCode)
	}

	now := s.Now()
	order := &domain.Order{
		ID:            keygen.NewOrderID(now),
		TierCode:      tier.Code,
		Status:        domain.OrderPending,
		BuyerEmail:    in.Email,
		Price:         tier.Price,
		PaymentMethod: in.PaymentMethod,
		CreatedAt:     now,
		Extra:         in.Extra,
		PaymentDetails: domain.PaymentDetails{
			Amount: tier.Price,
		},
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.Orders.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}
	stats, err := s.Stats.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	stats.Rollover(now)
	stats.RecordOrder()
	if err := s.Stats.Save(ctx, tx, stats); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.Logger.WithFields(log.Fields{
		logger.ActionKey: "ORDER_CREATED",
		"orderId":        order.ID,
		"type":           order.TierCode,
		"email":          order.BuyerEmail,
		"price":          order.Price,
	}).Info("order created")
	s.Metrics.OrderCreated(string(order.TierCode))

	return order, nil
}

// ConfirmPayment marks the order paid and issues its license in a single
// store transaction. A second confirmation fails with ErrAlreadyPaid and
// changes nothing.
func (s *orderService) ConfirmPayment(ctx context.Context, orderID string, evidence domain.PaymentEvidence) (*Receipt, error) {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := s.Orders.FindById(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.Wrapf(domain.ErrOrderNotFound, "confirm payment for %s", orderID)
	}
	if err := order.CanPay(); err != nil {
		return nil, errors.Wrapf(err, "confirm payment for %s", orderID)
	}

	now := s.Now()
	stats, err := s.Stats.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	stats.Rollover(now)

	license, err := s.issueLicense(ctx, tx, order, &stats, now)
	if err != nil {
		return nil, err
	}

	details := paymentDetails(order, evidence, now)
	if err := order.MarkPaid(license.Key, details, now); err != nil {
		return nil, err
	}
	if err := s.Orders.UpdateOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:         keygen.NewPaymentID(),
		OrderID:    order.ID,
		LicenseKey: license.Key,
		Amount:     order.Price,
		Method:     order.PaymentMethod,
		OccurredAt: now,
		Payer:      details.Payer,
	}
	if err := s.Payments.CreatePayment(ctx, tx, payment); err != nil {
		return nil, err
	}

	stats.RecordSale(order.TierCode, order.Price)
	if err := s.Stats.Save(ctx, tx, stats); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.Logger.WithFields(log.Fields{
		logger.ActionKey: "PAYMENT_SUCCESS",
		"orderId":        order.ID,
		"licenseKey":     license.Key,
		"amount":         order.Price,
		"method":         order.PaymentMethod,
	}).Info("payment confirmed")
	s.Metrics.PaymentConfirmed(string(order.TierCode), order.Price)
	if s.Sink != nil {
		s.Sink.Enqueue(*payment)
	}

	return &Receipt{Order: *order, License: *license}, nil
}

// issueLicense stages a new license for a paid order. It only runs inside
// ConfirmPayment's transaction.
func (s *orderService) issueLicense(ctx context.Context, tx *repo.Tx, order *domain.Order, stats *domain.Stats, now time.Time) (*domain.License, error) {
	tier, err := domain.LookupTier(order.TierCode)
	if err != nil {
		return nil, errors.Wrapf(err, "issue license for order %s", order.ID)
	}
	license := &domain.License{
		Key:             keygen.NewLicenseKey(tier.Code),
		TierCode:        tier.Code,
		Status:          domain.LicenseInactive,
		CreatedAt:       now,
		ExpiresAt:       domain.ExpiryFor(tier, now),
		OrderID:         order.ID,
		OwnerEmail:      order.BuyerEmail,
		ActivationCount: 0,
		MaxActivations:  s.MaxActivations,
		BoundDeviceIDs:  []string{},
	}
	if err := s.Licenses.CreateLicense(ctx, tx, license); err != nil {
		return nil, err
	}
	stats.RecordLicense()

	s.Logger.WithFields(log.Fields{
		logger.ActionKey: "LICENSE_CREATED",
		"licenseKey":     license.Key,
		"type":           license.TierCode,
		"orderId":        order.ID,
	}).Debug("license staged")
	return license, nil
}

func paymentDetails(order *domain.Order, ev domain.PaymentEvidence, now time.Time) domain.PaymentDetails {
	paidAt := now
	d := domain.PaymentDetails{
		TransactionID: ev.TransactionID,
		Payer:         ev.Payer,
		Amount:        ev.Amount,
		PaidAt:        &paidAt,
	}
	if d.TransactionID == "" {
		d.TransactionID = fmt.Sprintf("TRX%d", now.UnixMilli())
	}
	if d.Payer == "" {
		d.Payer = order.BuyerEmail
	}
	if d.Amount == 0 {
		d.Amount = order.Price
	}
	return d
}

// CancelOrder succeeds without change on an order that is already cancelled.
func (s *orderService) CancelOrder(ctx context.Context, orderID string) error {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	order, err := s.Orders.FindById(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return errors.Wrapf(domain.ErrOrderNotFound, "cancel %s", orderID)
	}
	if order.Status == domain.OrderCancelled {
		return nil
	}
	if err := order.Cancel(); err != nil {
		return errors.Wrapf(err, "cancel %s", orderID)
	}
	if err := s.Orders.UpdateOrder(ctx, tx, order); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.Logger.WithFields(log.Fields{logger.ActionKey: "ORDER_CANCELLED", "orderId": orderID}).Info("order cancelled")
	s.Metrics.OrderCancelled("user")
	return nil
}

// FindOrder returns nil, nil when nothing matches.
func (s *orderService) FindOrder(ctx context.Context, q OrderQuery) (*domain.Order, error) {
	if q.OrderID != "" {
		order, err := s.Orders.FindById(ctx, nil, q.OrderID)
		if err != nil || order != nil {
			return order, err
		}
	}
	if q.Email == "" {
		return nil, nil
	}
	return s.Orders.FindLatestByEmail(ctx, nil, q.Email)
}

// FindStalePending lists PENDING orders created more than window ago, newest first.
func (s *orderService) FindStalePending(ctx context.Context, window time.Duration) ([]domain.Order, error) {
	return s.Orders.FindStuckOrders(ctx, nil, s.Now().Add(-window))
}

// ExpireStalePending cancels PENDING orders created more than window ago
// and returns their ids. charged is consulted per order while the
// transaction is held; orders it reports as charged are skipped. A nil
// charged cancels every stale order.
func (s *orderService) ExpireStalePending(ctx context.Context, window time.Duration, charged ChargedFunc) ([]string, error) {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stuck, err := s.Orders.FindStuckOrders(ctx, tx, s.Now().Add(-window))
	if err != nil {
		return nil, err
	}
	if len(stuck) == 0 {
		return nil, nil
	}

	var ids []string
	for i := range stuck {
		order := &stuck[i]
		if charged != nil && charged(order.ID) {
			s.Logger.WithField("orderId", order.ID).Warn("stale order holds a charge, not expiring")
			continue
		}
		if err := order.Cancel(); err != nil {
			return nil, err
		}
		if err := s.Orders.UpdateOrder(ctx, tx, order); err != nil {
			return nil, err
		}
		ids = append(ids, order.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		s.Logger.WithFields(log.Fields{logger.ActionKey: "ORDER_EXPIRED", "orderId": id}).Info("pending order expired")
		s.Metrics.OrderCancelled("expired")
	}
	return ids, nil
}
