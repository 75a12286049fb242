package repo

import (
	"context"

	"license-shop/internal/domain"
)

type LicenseRepo interface {
	FindByKey(ctx context.Context, tx *Tx, key string) (*domain.License, error)
	CreateLicense(ctx context.Context, tx *Tx, license *domain.License) error
	UpdateLicense(ctx context.Context, tx *Tx, license *domain.License) error
	Count(ctx context.Context, tx *Tx) (int, error)
}

type licenseRepo struct {
	store *Store
}

func NewLicenseRepo(store *Store) LicenseRepo {
	return &licenseRepo{store: store}
}

// FindByKey returns nil, nil when no license has the key.
func (r *licenseRepo) FindByKey(ctx context.Context, tx *Tx, key string) (*domain.License, error) {
	var out *domain.License
	err := r.store.view(tx, func(rd reader) {
		if l, ok := rd.license(key); ok {
			c := l.Clone()
			out = &c
		}
	})
	return out, err
}

func (r *licenseRepo) CreateLicense(ctx context.Context, tx *Tx, license *domain.License) error {
	return r.store.write(ctx, tx, func(tx *Tx) {
		tx.licenses[license.Key] = license.Clone()
	})
}

func (r *licenseRepo) UpdateLicense(ctx context.Context, tx *Tx, license *domain.License) error {
	var missing bool
	err := r.store.write(ctx, tx, func(tx *Tx) {
		if _, ok := tx.license(license.Key); !ok {
			missing = true
			return
		}
		tx.licenses[license.Key] = license.Clone()
	})
	if err != nil {
		return err
	}
	if missing {
		return domain.ErrLicenseNotFound
	}
	return nil
}

func (r *licenseRepo) Count(ctx context.Context, tx *Tx) (int, error) {
	n := 0
	err := r.store.view(tx, func(rd reader) { n = rd.licenseCount() })
	return n, err
}
