package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-shop/internal/domain"
	"license-shop/internal/keygen"
)

func TestValidate_FreshLicenseAnyDevice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.paidOrder(t, domain.TierMonth, "a@x.com")
	f.clock.Advance(time.Hour)

	view, err := f.licenses.Validate(ctx, r.License.Key, "device-1")
	require.NoError(t, err)
	assert.Equal(t, 30, view.RemainingDays)
	assert.Equal(t, 0, view.ActivationCount)

	_, err = f.licenses.Validate(ctx, r.License.Key, "device-2")
	require.NoError(t, err)

	stored, err := f.deps.Licenses.FindByKey(ctx, nil, r.License.Key)
	require.NoError(t, err)
	require.NotNil(t, stored.LastUsedAt)
	assert.Equal(t, f.clock.Now(), *stored.LastUsedAt)
	assert.Equal(t, 0, stored.ActivationCount)
	assert.Empty(t, stored.BoundDeviceIDs)
}

func TestValidate_WeekScenario(t *testing.T) {
	f := setup(t)
	r := f.paidOrder(t, domain.TierWeek, "a@x.com")
	f.clock.Advance(time.Second)

	view, err := f.licenses.Validate(context.Background(), r.License.Key, "pc")
	require.NoError(t, err)
	assert.Equal(t, 7, view.RemainingDays)
	assert.Equal(t, domain.TierWeek, view.TierCode)
}

func TestValidate_NotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.licenses.Validate(ctx, "garbage", "pc")
	assert.ErrorIs(t, err, domain.ErrLicenseNotFound)

	_, err = f.licenses.Validate(ctx, keygen.NewLicenseKey(domain.TierDay), "pc")
	assert.ErrorIs(t, err, domain.ErrLicenseNotFound)
}

func TestValidate_Banned(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.paidOrder(t, domain.TierYear, "a@x.com")

	l := r.License
	l.Status = domain.LicenseBanned
	require.NoError(t, f.deps.Licenses.UpdateLicense(ctx, nil, &l))

	_, err := f.licenses.Validate(ctx, l.Key, "pc")
	assert.ErrorIs(t, err, domain.ErrLicenseBanned)
	_, err = f.licenses.Activate(ctx, l.Key, "pc")
	assert.ErrorIs(t, err, domain.ErrLicenseBanned)
}

func TestValidate_LazyExpiry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	r := f.paidOrder(t, domain.TierDay, "a@x.com")

	f.clock.Advance(24*time.Hour + time.Second)
	_, err := f.licenses.Validate(ctx, r.License.Key, "pc")
	require.ErrorIs(t, err, domain.ErrLicenseExpired)

	var lerr *domain.LicenseError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, r.License.ExpiresAt, lerr.ExpiresAt)

	stored, err := f.deps.Licenses.FindByKey(ctx, nil, r.License.Key)
	require.NoError(t, err)
	assert.Equal(t, domain.LicenseExpired, stored.Status)

	_, err = f.licenses.Validate(ctx, r.License.Key, "pc")
	assert.ErrorIs(t, err, domain.ErrLicenseExpired)
}

func TestValidate_ExactlyAtExpiryStillValid(t *testing.T) {
	f := setup(t)
	r := f.paidOrder(t, domain.TierDay, "a@x.com")
	f.clock.Advance(24 * time.Hour)

	view, err := f.licenses.Validate(context.Background(), r.License.Key, "pc")
	require.NoError(t, err)
	assert.Equal(t, 0, view.RemainingDays)
}

func TestActivate_BindsUntilLimit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	key := f.paidOrder(t, domain.TierYear, "a@x.com").License.Key

	view, err := f.licenses.Activate(ctx, key, "pc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.ActivationCount)
	assert.Equal(t, domain.LicenseActive, view.Status)

	view, err = f.licenses.Activate(ctx, key, "pc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.ActivationCount)

	_, err = f.licenses.Validate(ctx, key, "pc-2")
	assert.ErrorIs(t, err, domain.ErrDeviceNotAuthorized)

	for _, device := range []string{"pc-2", "pc-3"} {
		_, err := f.licenses.Activate(ctx, key, device)
		require.NoError(t, err)
	}

	_, err = f.licenses.Activate(ctx, key, "pc-4")
	require.ErrorIs(t, err, domain.ErrActivationLimitReached)
	var lerr *domain.LicenseError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 3, lerr.ActivationCount)
	assert.Equal(t, 3, lerr.MaxActivations)

	_, err = f.licenses.Validate(ctx, key, "pc-4")
	assert.ErrorIs(t, err, domain.ErrActivationLimitReached)

	view, err = f.licenses.Validate(ctx, key, "pc-3")
	require.NoError(t, err)
	assert.Equal(t, 3, view.ActivationCount)

	stored, err := f.deps.Licenses.FindByKey(ctx, nil, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"pc-1", "pc-2", "pc-3"}, stored.BoundDeviceIDs)
	assert.LessOrEqual(t, stored.ActivationCount, stored.MaxActivations)
}

func TestActivate_RequiresDevice(t *testing.T) {
	f := setup(t)
	key := f.paidOrder(t, domain.TierDay, "a@x.com").License.Key

	_, err := f.licenses.Activate(context.Background(), key, "")
	assert.ErrorIs(t, err, domain.ErrDeviceNotAuthorized)
}

func TestActivate_Expired(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	key := f.paidOrder(t, domain.TierWeek, "a@x.com").License.Key
	f.clock.Advance(8 * 24 * time.Hour)

	_, err := f.licenses.Activate(ctx, key, "pc")
	assert.ErrorIs(t, err, domain.ErrLicenseExpired)

	stored, _ := f.deps.Licenses.FindByKey(ctx, nil, key)
	assert.Equal(t, domain.LicenseExpired, stored.Status)
	assert.Zero(t, stored.ActivationCount)
}

func TestValidate_ConfiguredLimit(t *testing.T) {
	f := setup(t)
	f.deps.MaxActivations = 1
	f.orders = NewOrderService(f.deps)
	f.licenses = NewLicenseService(f.deps)
	ctx := context.Background()
	key := f.paidOrder(t, domain.TierDay, "a@x.com").License.Key

	_, err := f.licenses.Activate(ctx, key, "only")
	require.NoError(t, err)
	_, err = f.licenses.Activate(ctx, key, "second")
	assert.ErrorIs(t, err, domain.ErrActivationLimitReached)
}
