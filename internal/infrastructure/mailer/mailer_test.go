package mailer

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"license-shop/internal/domain"
)

func TestSendLicense(t *testing.T) {
	l, hook := test.NewNullLogger()
	m := NewLogMailer(l)

	err := m.SendLicense(context.Background(),
		domain.Order{ID: "SNK1", BuyerEmail: "a@x.com", Price: 77},
		domain.License{Key: "SNK-W-0123456789ABCDEF-ABCDEF"})
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "a@x.com", entry.Data["to"])
	assert.Equal(t, "SNK-W-0123456789ABCDEF-ABCDEF", entry.Data["licenseKey"])
}

func TestSendLicense_Cancelled(t *testing.T) {
	l, hook := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLogMailer(l).SendLicense(ctx, domain.Order{}, domain.License{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, hook.AllEntries())
}
