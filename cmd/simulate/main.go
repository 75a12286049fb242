package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"license-shop/internal/domain"
	"license-shop/internal/infrastructure/payment"
	"license-shop/internal/logger"
	"license-shop/internal/repo"
	"license-shop/internal/service"
	"license-shop/internal/worker"
)

func main() {
	app := &cli.App{
		Name:  "simulate",
		Usage: "drive random purchases through the shop in memory and print the totals",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "orders", Value: 20, Usage: "number of orders to create"},
			&cli.Float64Flag{Name: "decline-rate", Value: 0.2, Usage: "share of charges the gateway declines"},
			&cli.Float64Flag{Name: "abandon-rate", Value: 0.1, Usage: "share of orders never charged"},
			&cli.IntFlag{Name: "devices", Value: 4, Usage: "devices tried per license"},
			&cli.StringFlag{Name: "log-level", Value: "warn"},
		},
		Action: simulate,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func simulate(c *cli.Context) error {
	ctx := c.Context
	l, _, err := logger.New(logger.Config{Level: c.String("log-level"), Format: "text"})
	if err != nil {
		return err
	}

	// Simulated clock. It jumps an hour before the reaper pass so abandoned
	// orders are past the payment window.
	clock := time.Now()
	deps := service.NewDeps(repo.NewStore(clock), l)
	deps.Now = func() time.Time { return clock }

	orders := service.NewOrderService(deps)
	licenses := service.NewLicenseService(deps)
	stats := service.NewStatsService(deps)
	gateway := payment.NewPaymentGateway(payment.WithDeclineRate(c.Float64("decline-rate")))

	tiers := domain.Tiers()
	methods := domain.PaymentMethods()

	fmt.Printf("--- SIMULATING %d ORDERS ---\n", c.Int("orders"))
	for i := 0; i < c.Int("orders"); i++ {
		tier := tiers[rand.Intn(len(tiers))]
		order, err := orders.CreateOrder(ctx, service.CreateOrderInput{
			TierCode:      tier.Code,
			Email:         fmt.Sprintf("buyer%02d@example.com", i%7),
			PaymentMethod: methods[rand.Intn(len(methods))].ID,
		})
		if err != nil {
			return err
		}
		fmt.Printf("[%02d] %s %-8s ", i+1, order.ID, tier.Code)

		if rand.Float64() < c.Float64("abandon-rate") {
			fmt.Println("ABANDONED")
			continue
		}

		evidence, err := gateway.Charge(ctx, *order)
		if errors.Is(err, payment.ErrCardDeclined) {
			fmt.Println("DECLINED")
			if err := orders.CancelOrder(ctx, order.ID); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		receipt, err := orders.ConfirmPayment(ctx, order.ID, evidence)
		if err != nil {
			return err
		}
		fmt.Printf("PAID %s\n", receipt.License.Key)
		useLicense(ctx, licenses, receipt.License.Key, c.Int("devices"))

		clock = clock.Add(time.Minute)
	}

	clock = clock.Add(time.Hour)
	reaper := worker.NewPendingOrderReaper(orders, gateway, l, 15*time.Minute, time.Minute)
	expired, err := reaper.Process(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("--- REAPER EXPIRED %d ORDERS ---\n", len(expired))

	snap, err := stats.Snapshot(ctx)
	if err != nil {
		return err
	}
	printStats(snap)
	return nil
}

func useLicense(ctx context.Context, licenses service.LicenseService, key string, devices int) {
	for d := 1; d <= devices; d++ {
		device := fmt.Sprintf("device-%d", d)
		view, err := licenses.Activate(ctx, key, device)
		if err != nil {
			var lerr *domain.LicenseError
			if errors.As(err, &lerr) {
				fmt.Printf("     %s rejected: %s\n", device, lerr.Kind)
				continue
			}
			fmt.Printf("     %s failed: %v\n", device, err)
			continue
		}
		fmt.Printf("     %s activated (%d/%d, %d days left)\n",
			device, view.ActivationCount, view.MaxActivations, view.RemainingDays)
	}
}

func printStats(s *domain.StatsSnapshot) {
	fmt.Println("--- STATS ---")
	fmt.Printf("orders:   %d total, %d today\n", s.Stats.TotalOrders, s.Stats.TodayOrders)
	fmt.Printf("sales:    %d total, %d today\n", s.Stats.TotalSales, s.Stats.TodaySales)
	fmt.Printf("licenses: %d total, %d today\n", s.Stats.TotalLicenses, s.Stats.TodayLicenses)
	for _, t := range domain.Tiers() {
		fmt.Printf("  %-8s %d\n", t.Code, s.Stats.Revenue[t.Code])
	}
	fmt.Printf("store:    %d orders, %d licenses, %d payments\n", s.Orders, s.Licenses, s.Payments)
}
