// Package scheduler runs the daily subscription jobs and the stale-payment
// reconcile on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"majibill_backend/internals/configs"
	subscriptionService "majibill_backend/internals/features/subscriptions/service"
)

type Subscriptions interface {
	ExpirySweep(ctx context.Context) (subscriptionService.SweepResult, error)
	AutoRenew(ctx context.Context) (subscriptionService.RenewResult, error)
}

type StaleReconciler interface {
	ReconcileStale(ctx context.Context, olderThan time.Duration) (int, error)
}

const jobTimeout = 4 * time.Minute

// Start registers every job and starts the cron. Callers Stop() it on shutdown.
func Start(cfg configs.CronConfig, loc *time.Location, subs Subscriptions, rec StaleReconciler) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	jobs := []struct {
		name     string
		schedule string
		run      func(ctx context.Context) error
	}{
		{"expiry-sweep", cfg.ExpirySweep, func(ctx context.Context) error {
			_, err := subs.ExpirySweep(ctx)
			return err
		}},
		{"auto-renew", cfg.AutoRenew, func(ctx context.Context) error {
			_, err := subs.AutoRenew(ctx)
			return err
		}},
		{"reconcile-stale", cfg.ReconcileStale, func(ctx context.Context) error {
			_, err := rec.ReconcileStale(ctx, cfg.StaleAfter)
			return err
		}},
	}

	for _, j := range jobs {
		if j.schedule == "" || j.schedule == "off" {
			log.Printf("[CRON] %s disabled", j.name)
			continue
		}
		j := j
		if _, err := c.AddFunc(j.schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			start := time.Now()
			if err := j.run(ctx); err != nil {
				log.Printf("[CRON] %s error: %v", j.name, err)
				return
			}
			log.Printf("[CRON] %s done in %s", j.name, time.Since(start))
		}); err != nil {
			return nil, fmt.Errorf("add cron %s (%q): %w", j.name, j.schedule, err)
		}
		log.Printf("[CRON] %s scheduled %q tz=%s", j.name, j.schedule, loc)
	}

	c.Start()
	return c, nil
}
