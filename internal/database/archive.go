package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"license-shop/internal/domain"
)

const archiveBuffer = 256

const schema = `
CREATE TABLE IF NOT EXISTS payment_archive (
	id          TEXT PRIMARY KEY,
	order_id    TEXT NOT NULL,
	license_key TEXT NOT NULL,
	amount      INTEGER NOT NULL,
	method      TEXT NOT NULL,
	payer       TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
)`

// PaymentArchive copies committed payment records into Postgres as an audit
// trail. It is write-only: the shop never reads state back from it, so a
// restart still starts from an empty store.
type PaymentArchive struct {
	db     *sql.DB
	logger log.FieldLogger
	queue  chan domain.Payment
}

func NewPaymentArchive(db *sql.DB, logger log.FieldLogger) *PaymentArchive {
	return &PaymentArchive{db: db, logger: logger, queue: make(chan domain.Payment, archiveBuffer)}
}

func (a *PaymentArchive) EnsureSchema(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, schema)
	return errors.Wrap(err, "create payment_archive")
}

// Enqueue never blocks; when the buffer is full the record is dropped and logged.
func (a *PaymentArchive) Enqueue(p domain.Payment) {
	select {
	case a.queue <- p:
	default:
		a.logger.WithField("paymentId", p.ID).Warn("payment archive queue full, record dropped")
	}
}

// Run drains the queue until ctx is done, then flushes what is left.
// Inserts already taken off the queue are not cut short by ctx.
func (a *PaymentArchive) Run(ctx context.Context) error {
	insertCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			a.flush()
			return nil
		case p := <-a.queue:
			if err := a.Insert(insertCtx, p); err != nil {
				a.logger.WithError(err).WithField("paymentId", p.ID).Error("archive payment")
			}
		}
	}
}

func (a *PaymentArchive) flush() {
	for {
		select {
		case p := <-a.queue:
			if err := a.Insert(context.Background(), p); err != nil {
				a.logger.WithError(err).WithField("paymentId", p.ID).Error("archive payment on shutdown")
			}
		default:
			return
		}
	}
}

func (a *PaymentArchive) Insert(ctx context.Context, p domain.Payment) error {
	query := `INSERT INTO payment_archive (id, order_id, license_key, amount, method, payer, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`
	_, err := a.db.ExecContext(ctx, query, p.ID, p.OrderID, p.LicenseKey, p.Amount, p.Method, p.Payer, p.OccurredAt)
	return errors.Wrapf(err, "insert payment %s", p.ID)
}

func (a *PaymentArchive) FindByOrderId(ctx context.Context, orderID string) ([]domain.Payment, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, order_id, license_key, amount, method, payer, occurred_at
		 FROM payment_archive WHERE order_id = $1 ORDER BY occurred_at`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "query payment_archive")
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.LicenseKey, &p.Amount, &p.Method, &p.Payer, &p.OccurredAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
