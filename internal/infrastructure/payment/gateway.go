package payment

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"license-shop/internal/domain"
)

var ErrCardDeclined = errors.New("card declined")

// PaymentGateway simulates the payer side of a checkout. Charges are keyed by
// order id, so a retried charge returns the first outcome.
type PaymentGateway interface {
	Charge(ctx context.Context, order domain.Order) (domain.PaymentEvidence, error)
	CheckStatus(ctx context.Context, orderID string) (bool, error)
}

type charge struct {
	evidence domain.PaymentEvidence
	ok       bool
}

type paymentGateway struct {
	mu          sync.RWMutex
	charges     map[string]charge
	declineRate float64
	roll        func() float64
}

type Option func(*paymentGateway)

// WithDeclineRate makes a fraction of first-time charges fail with ErrCardDeclined.
func WithDeclineRate(rate float64) Option {
	return func(pg *paymentGateway) { pg.declineRate = rate }
}

func WithRoll(roll func() float64) Option {
	return func(pg *paymentGateway) { pg.roll = roll }
}

func NewPaymentGateway(opts ...Option) PaymentGateway {
	pg := &paymentGateway{charges: map[string]charge{}, roll: rand.Float64}
	for _, opt := range opts {
		opt(pg)
	}
	return pg
}

func (pg *paymentGateway) Charge(ctx context.Context, order domain.Order) (domain.PaymentEvidence, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentEvidence{}, err
	}

	pg.mu.Lock()
	defer pg.mu.Unlock()

	if c, exists := pg.charges[order.ID]; exists {
		if !c.ok {
			return domain.PaymentEvidence{}, ErrCardDeclined
		}
		return c.evidence, nil
	}

	if pg.declineRate > 0 && pg.roll() < pg.declineRate {
		pg.charges[order.ID] = charge{ok: false}
		return domain.PaymentEvidence{}, ErrCardDeclined
	}

	ev := domain.PaymentEvidence{
		TransactionID: "TRX" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16]),
		Payer:         order.BuyerEmail,
		Amount:        order.Price,
	}
	pg.charges[order.ID] = charge{evidence: ev, ok: true}
	return ev, nil
}

func (pg *paymentGateway) CheckStatus(ctx context.Context, orderID string) (bool, error) {
	pg.mu.RLock()
	defer pg.mu.RUnlock()

	c, exists := pg.charges[orderID]
	return exists && c.ok, nil
}
