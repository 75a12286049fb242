package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"license-shop/internal/config"
	"license-shop/internal/database"
	"license-shop/internal/infrastructure/mailer"
	"license-shop/internal/infrastructure/payment"
	"license-shop/internal/logger"
	"license-shop/internal/metrics"
	"license-shop/internal/repo"
	"license-shop/internal/server"
	"license-shop/internal/service"
	"license-shop/internal/worker"
)

func main() {
	app := &cli.App{
		Name:  "license-shop",
		Usage: "serve the license shop HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "listen port, overrides SHOP_PORT"},
			&cli.StringFlag{Name: "log-level", Usage: "overrides SHOP_LOG_LEVEL"},
			&cli.BoolFlag{Name: "no-reaper", Usage: "do not expire stale pending orders"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	loc, err := cfg.TimeLocation()
	if err != nil {
		return err
	}

	l, journal, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		JournalSize: cfg.Log.JournalSize,
	})
	if err != nil {
		return err
	}
	if l.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	now := func() time.Time { return time.Now().In(loc) }
	m := metrics.New()
	deps := service.NewDeps(repo.NewStore(now()), l)
	deps.Metrics = m
	deps.MaxActivations = cfg.MaxActivations
	deps.Now = now

	var (
		archive *database.PaymentArchive
		health  func(context.Context) map[string]string
	)
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		dbService := database.New(db)
		defer dbService.Close()

		archive = database.NewPaymentArchive(db, l)
		if err := archive.EnsureSchema(ctx); err != nil {
			return err
		}
		deps.Sink = archive
		health = dbService.Health
		l.Info("payment archive enabled")
	}

	orders := service.NewOrderService(deps)
	gateway := payment.NewPaymentGateway()

	srv := server.New(server.Config{
		AdminPassword:  cfg.AdminPassword,
		AllowedOrigins: cfg.Security.AllowedOrigins,
		ValidateRPS:    cfg.Security.ValidateRPS,
		ValidateBurst:  cfg.Security.ValidateBurst,
	}, server.Deps{
		Orders:   orders,
		Licenses: service.NewLicenseService(deps),
		Stats:    service.NewStatsService(deps),
		Gateway:  gateway,
		Mailer:   mailer.NewLogMailer(l),
		Journal:  journal,
		Metrics:  m,
		Logger:   l,
		Health:   health,
	})
	httpServer := srv.HTTPServer(fmt.Sprintf(":%d", cfg.Port))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.WithField("addr", httpServer.Addr).Info("license shop listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		return errors.Wrap(httpServer.Shutdown(shutdownCtx), "shutdown http server")
	})
	if !c.Bool("no-reaper") {
		reaper := worker.NewPendingOrderReaper(orders, gateway, l, cfg.PaymentWindow, cfg.ReaperInterval)
		g.Go(func() error { return reaper.Run(gctx) })
	}
	if archive != nil {
		g.Go(func() error { return archive.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	l.Info("license shop stopped")
	return nil
}
