package service

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"license-shop/internal/domain"
	"license-shop/internal/keygen"
	"license-shop/internal/logger"
)

// LicenseService checks issued licenses.
//
// Validate is a check that never consumes an activation slot. It does write:
// lastUsedAt on success, and status EXPIRED the first time it observes a
// license past its expiry. Activate is the only operation that binds devices
// and advances the activation count.
type LicenseService interface {
	Validate(ctx context.Context, key, deviceID string) (*domain.LicenseView, error)
	Activate(ctx context.Context, key, deviceID string) (*domain.LicenseView, error)
}

type licenseService struct {
	Deps
}

func NewLicenseService(deps Deps) LicenseService {
	return &licenseService{Deps: deps.withDefaults()}
}

// Validate runs, in order: existence, ban, expiry, activation quota, device
// binding. A device that is already bound passes the quota check.
func (s *licenseService) Validate(ctx context.Context, key, deviceID string) (*domain.LicenseView, error) {
	return s.check(ctx, "validate", key, func(l *domain.License) error {
		if l.IsBound(deviceID) {
			return nil
		}
		if !l.SlotsLeft() {
			return l.Fail(domain.ErrActivationLimitReached)
		}
		if !l.Unrestricted() {
			return l.Fail(domain.ErrDeviceNotAuthorized)
		}
		return nil
	})
}

// Activate binds deviceID to the license, consuming one slot. Activating an
// already bound device succeeds without consuming another.
func (s *licenseService) Activate(ctx context.Context, key, deviceID string) (*domain.LicenseView, error) {
	if deviceID == "" {
		return nil, errors.Wrap(domain.ErrDeviceNotAuthorized, "activate without device id")
	}
	bound := false
	view, err := s.check(ctx, "activate", key, func(l *domain.License) error {
		if l.IsBound(deviceID) {
			return nil
		}
		if !l.SlotsLeft() {
			return l.Fail(domain.ErrActivationLimitReached)
		}
		l.Bind(deviceID)
		bound = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if bound {
		s.Logger.WithFields(log.Fields{
			logger.ActionKey: "LICENSE_ACTIVATED",
			"licenseKey":     key,
			"deviceId":       deviceID,
			"activations":    view.ActivationCount,
		}).Info("device bound to license")
	}
	return view, nil
}

// check loads the license, applies the shared existence/ban/expiry checks
// and then rule. Writes made by rule are committed only when it succeeds;
// the EXPIRED status write is committed even though the call fails.
func (s *licenseService) check(ctx context.Context, op, key string, rule func(l *domain.License) error) (*domain.LicenseView, error) {
	view, err := s.checkTx(ctx, key, rule)
	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
	}
	s.Metrics.LicenseChecked(op, outcome)
	return view, err
}

func (s *licenseService) checkTx(ctx context.Context, key string, rule func(l *domain.License) error) (*domain.LicenseView, error) {
	if !keygen.VerifyChecksum(key) {
		return nil, errors.Wrapf(domain.ErrLicenseNotFound, "license %q", key)
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	l, err := s.Licenses.FindByKey(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, errors.Wrapf(domain.ErrLicenseNotFound, "license %q", key)
	}
	if l.Status == domain.LicenseBanned {
		return nil, l.Fail(domain.ErrLicenseBanned)
	}

	now := s.Now()
	if l.IsExpired(now) {
		if l.Status != domain.LicenseExpired {
			l.Status = domain.LicenseExpired
			if err := s.Licenses.UpdateLicense(ctx, tx, l); err != nil {
				return nil, err
			}
			if err := tx.Commit(); err != nil {
				return nil, err
			}
			s.Logger.WithFields(log.Fields{logger.ActionKey: "LICENSE_EXPIRED", "licenseKey": l.Key}).Info("license marked expired")
		}
		return nil, l.Fail(domain.ErrLicenseExpired)
	}

	if err := rule(l); err != nil {
		return nil, err
	}

	l.Touch(now)
	if err := s.Licenses.UpdateLicense(ctx, tx, l); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	view := l.View(now)
	return &view, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrLicenseNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrLicenseBanned):
		return "banned"
	case errors.Is(err, domain.ErrLicenseExpired):
		return "expired"
	case errors.Is(err, domain.ErrActivationLimitReached):
		return "limit_reached"
	case errors.Is(err, domain.ErrDeviceNotAuthorized):
		return "device_rejected"
	}
	return "error"
}
