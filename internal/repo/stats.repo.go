package repo

import (
	"context"

	"license-shop/internal/domain"
)

type StatsRepo interface {
	Get(ctx context.Context, tx *Tx) (domain.Stats, error)
	Save(ctx context.Context, tx *Tx, stats domain.Stats) error
}

type statsRepo struct {
	store *Store
}

func NewStatsRepo(store *Store) StatsRepo {
	return &statsRepo{store: store}
}

func (r *statsRepo) Get(ctx context.Context, tx *Tx) (domain.Stats, error) {
	var out domain.Stats
	err := r.store.view(tx, func(rd reader) { out = rd.currentStats().Clone() })
	return out, err
}

func (r *statsRepo) Save(ctx context.Context, tx *Tx, stats domain.Stats) error {
	return r.store.write(ctx, tx, func(tx *Tx) {
		s := stats.Clone()
		tx.stats = &s
	})
}
