package domain

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrAlreadyPaid            = errors.New("order already paid")
	ErrOrderCancelled         = errors.New("order is cancelled")
	ErrInvalidTier            = errors.New("invalid product tier")
	ErrLicenseNotFound        = errors.New("license not found")
	ErrLicenseBanned          = errors.New("license banned")
	ErrLicenseExpired         = errors.New("license expired")
	ErrActivationLimitReached = errors.New("activation limit reached")
	ErrDeviceNotAuthorized    = errors.New("device not authorized")
)

// LicenseError carries the license state observed when a check failed, so
// callers can build a message without a second lookup.
type LicenseError struct {
	Kind            error
	Key             string
	ActivationCount int
	MaxActivations  int
	ExpiresAt       time.Time
}

func (e *LicenseError) Error() string {
	return fmt.Sprintf("%s: %s (%d/%d activations)", e.Kind, e.Key, e.ActivationCount, e.MaxActivations)
}

func (e *LicenseError) Unwrap() error { return e.Kind }

// Cause lets errors.Cause from pkg/errors reach the sentinel.
func (e *LicenseError) Cause() error { return e.Kind }
