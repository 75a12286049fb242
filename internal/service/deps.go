package service

import (
	"time"

	log "github.com/sirupsen/logrus"

	"license-shop/internal/domain"
	"license-shop/internal/metrics"
	"license-shop/internal/repo"
)

const DefaultMaxActivations = 3

// PaymentSink receives payment records after they are committed. It must
// not block.
type PaymentSink interface {
	Enqueue(p domain.Payment)
}

type Deps struct {
	Store          *repo.Store
	Orders         repo.OrderRepo
	Licenses       repo.LicenseRepo
	Payments       repo.PaymentRepo
	Stats          repo.StatsRepo
	Logger         log.FieldLogger
	Metrics        metrics.Recorder
	Sink           PaymentSink
	MaxActivations int
	Now            func() time.Time
}

// NewDeps wires the repositories over store with default settings.
func NewDeps(store *repo.Store, logger log.FieldLogger) Deps {
	return Deps{
		Store:          store,
		Orders:         repo.NewOrderRepo(store),
		Licenses:       repo.NewLicenseRepo(store),
		Payments:       repo.NewPaymentRepo(store),
		Stats:          repo.NewStatsRepo(store),
		Logger:         logger,
		MaxActivations: DefaultMaxActivations,
		Now:            time.Now,
	}
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MaxActivations <= 0 {
		d.MaxActivations = DefaultMaxActivations
	}
	if d.Logger == nil {
		d.Logger = log.StandardLogger()
	}
	if d.Metrics == nil {
		d.Metrics = (*metrics.Metrics)(nil)
	}
	return d
}
