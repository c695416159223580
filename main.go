package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"majibill_backend/internals/configs"
	database "majibill_backend/internals/databases"
	"majibill_backend/internals/features/subscriptions/scheduler"
	helper "majibill_backend/internals/helpers"
	ossHelper "majibill_backend/internals/helpers/oss"
	"majibill_backend/internals/middlewares"
	routes "majibill_backend/internals/route"
)

func main() {
	configs.LoadEnv()

	root := &cobra.Command{
		Use:          "majibill",
		Short:        "Water and rent billing API",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), sweepCmd(), renewCmd(), reconcileCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

/* =========================================================
   serve
========================================================= */

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, SMS workers and cron jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.Load()
			rt, err := bootstrap(cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			if migrate {
				if err := database.AutoMigrate(rt.db); err != nil {
					return err
				}
			}
			database.WarmUpQueries(rt.db)
			rt.startDelivery()

			c, err := scheduler.Start(cfg.Cron, cfg.Location(), rt.services.Subscriptions, rt.services.Reconciler)
			if err != nil {
				return err
			}
			rt.crons = append(rt.crons, c)
			if rt.archive != nil {
				reaper, err := ossHelper.StartArchiveReaperCron(rt.archive, cfg.OSS.ReaperSchedule, cfg.OSS.Retention)
				if err != nil {
					return err
				}
				rt.crons = append(rt.crons, reaper)
			}

			app := fiber.New(fiber.Config{
				JSONEncoder:           sonic.Marshal,
				JSONDecoder:           sonic.Unmarshal,
				DisableStartupMessage: true,
				ProxyHeader:           fiber.HeaderXForwardedFor,
				BodyLimit:             4 << 20,
				ReadTimeout:           15 * time.Second,
				WriteTimeout:          30 * time.Second,
				IdleTimeout:           90 * time.Second,
				ErrorHandler: func(c *fiber.Ctx, err error) error {
					return helper.FromServiceError(c, err)
				},
			})
			middlewares.SetupMiddlewares(app, cfg)
			routes.SetupRoutes(app, rt.db, cfg, rt.services)

			go func() {
				log.Printf("✅ Listening on :%s", cfg.Port)
				if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
					log.Fatalf("server error: %v", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return app.ShutdownWithContext(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run auto-migrate before serving")
	return cmd
}

/* =========================================================
   migrate
========================================================= */

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.Load()
			db, err := database.ConnectDB(cfg.DB)
			if err != nil {
				return err
			}
			defer database.Close(db)
			if err := database.AutoMigrate(db); err != nil {
				return err
			}
			log.Println("✅ migration finished")
			return nil
		},
	}
}

/* =========================================================
   one-shot jobs
========================================================= */

// oneShot runs job with SMS delivery live, then drains the queue.
func oneShot(name string, job func(ctx context.Context, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(configs.Load())
		if err != nil {
			return err
		}
		defer rt.close()
		rt.startDelivery()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()
		if err := job(ctx, rt); err != nil {
			log.Printf("[CRON] %s failed: %v", name, err)
			return err
		}
		return nil
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire lapsed subscriptions and send renewal reminders",
		RunE: oneShot("expiry-sweep", func(ctx context.Context, rt *runtime) error {
			res, err := rt.services.Subscriptions.ExpirySweep(ctx)
			log.Printf("[CRON] expiry-sweep %+v", res)
			return err
		}),
	}
}

func renewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renew",
		Short: "Start auto-renew charges for subscriptions ending soon",
		RunE: oneShot("auto-renew", func(ctx context.Context, rt *runtime) error {
			res, err := rt.services.Subscriptions.AutoRenew(ctx)
			log.Printf("[CRON] auto-renew %+v", res)
			return err
		}),
	}
}

func reconcileCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Re-verify pending subscription payments with the gateway",
		RunE: oneShot("reconcile-stale", func(ctx context.Context, rt *runtime) error {
			if olderThan <= 0 {
				olderThan = rt.cfg.Cron.StaleAfter
			}
			n, err := rt.services.Reconciler.ReconcileStale(ctx, olderThan)
			log.Printf("[CRON] reconcile-stale settled=%d", n)
			return err
		}),
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "only payments pending longer than this (default RECONCILE_STALE_AFTER)")
	return cmd
}
