//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"license-shop/internal/domain"
	"license-shop/internal/logger"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("shop"),
		postgres.WithUsername("shop"),
		postgres.WithPassword("shop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func TestPaymentArchive_Postgres(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()

	db, err := NewPostgres(ctx, url)
	require.NoError(t, err)
	svc := New(db)
	defer svc.Close()
	assert.Equal(t, "up", svc.Health(ctx)["status"])

	archive := NewPaymentArchive(db, logger.Discard())
	require.NoError(t, archive.EnsureSchema(ctx))
	require.NoError(t, archive.EnsureSchema(ctx))

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- archive.Run(runCtx) }()

	at := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	p := domain.Payment{ID: "PAY1", OrderID: "SNK1", LicenseKey: "SNK-W-X-Y", Amount: 77, Method: "alipay", Payer: "a@x.com", OccurredAt: at}
	archive.Enqueue(p)
	archive.Enqueue(p)

	stop()
	require.NoError(t, <-done)

	got, err := archive.FindByOrderId(ctx, "SNK1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 77, got[0].Amount)
	assert.True(t, at.Equal(got[0].OccurredAt))
}
