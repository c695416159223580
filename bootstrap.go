package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"majibill_backend/internals/configs"
	database "majibill_backend/internals/databases"
	adminService "majibill_backend/internals/features/admins/service"
	billingService "majibill_backend/internals/features/billing/service"
	notifService "majibill_backend/internals/features/notifications/service"
	"majibill_backend/internals/features/notifications/sms"
	"majibill_backend/internals/features/payments/gateway"
	paymentService "majibill_backend/internals/features/payments/service"
	propertyService "majibill_backend/internals/features/properties/service"
	subscriptionService "majibill_backend/internals/features/subscriptions/service"
	tenantService "majibill_backend/internals/features/tenants/service"
	"majibill_backend/internals/helpers/clock"
	ossHelper "majibill_backend/internals/helpers/oss"
	routes "majibill_backend/internals/route"
)

// runtime owns every long-lived dependency of one process.
type runtime struct {
	cfg        configs.AppConfig
	db         *gorm.DB
	clock      clock.Clock
	dispatcher *notifService.Dispatcher
	queue      *notifService.AMQPQueue
	archive    *ossHelper.OSSService
	services   routes.Services

	stopConsumer context.CancelFunc
	crons        []*cron.Cron
}

func bootstrap(cfg configs.AppConfig) (*runtime, error) {
	db, err := database.ConnectDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	database.TunePool(db)

	rt := &runtime{cfg: cfg, db: db, clock: clock.NewSystem(cfg.Location())}

	rt.dispatcher = notifService.NewDispatcher(sms.NewClient(cfg.SMS), notifService.NewGormRecorder(db), notifService.DispatcherConfig{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		MaxAttempts: cfg.SMS.MaxAttempts,
		Backoff:     2 * time.Second,
		SendTimeout: cfg.SMS.Timeout,
	})
	var notifier notifService.Notifier = rt.dispatcher
	if cfg.Notify.QueueURL != "" {
		q, err := notifService.NewAMQPQueue(cfg.Notify.QueueURL, cfg.Notify.QueueName)
		if err != nil {
			database.Close(db)
			return nil, err
		}
		rt.queue = q
		notifier = q
		log.Printf("[NOTIFY] using durable queue %s", cfg.Notify.QueueName)
	}

	providers := gateway.NewRegistry(gatewayFor(cfg, gateway.PaystackName), gatewayFor(cfg, gateway.MidtransName))
	active, err := providers.Get(cfg.GatewayProvider)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("gateway %q: %w", cfg.GatewayProvider, err)
	}

	gate := subscriptionService.NewGate(db, rt.clock, cfg.GateFailOpen)
	ledger := billingService.NewLedger(db, rt.clock, billingService.NewTariff(db, cfg.DefaultWaterRate), notifier,
		billingService.LedgerConfig{DueDays: cfg.BillDueDays, CacheTTL: cfg.SummaryCacheTTL})
	occupancy := tenantService.NewOccupancy(db, ledger, gate, cfg.CountryPrefix)

	if cfg.OSS.Enabled() {
		archive, err := ossHelper.NewOSSService(cfg.OSS)
		if err != nil {
			log.Printf("[OSS] import archive disabled: %v", err)
		} else {
			rt.archive = archive
			occupancy.WithArchiver(archive)
		}
	}

	rt.services = routes.Services{
		Admins:        adminService.NewService(db, rt.clock, cfg.JWTSecret, cfg.JWTTTL, cfg.CountryPrefix),
		Properties:    propertyService.NewService(db, gate),
		Occupancy:     occupancy,
		Ledger:        ledger,
		Subscriptions: subscriptionService.NewService(db, rt.clock, active, notifier, cfg.Paystack.CallbackURL),
		Reconciler:    paymentService.NewReconciler(db, rt.clock, providers, notifier),
	}
	return rt, nil
}

// gatewayFor returns nil for a provider that has no credentials.
func gatewayFor(cfg configs.AppConfig, name string) gateway.Provider {
	switch name {
	case gateway.PaystackName:
		if cfg.Paystack.SecretKey != "" {
			return gateway.NewPaystack(cfg.Paystack)
		}
	case gateway.MidtransName:
		if cfg.Midtrans.ServerKey != "" {
			return gateway.NewMidtrans(cfg.Midtrans)
		}
	}
	return nil
}

// startDelivery runs the SMS workers and, with a durable queue, its consumer.
func (rt *runtime) startDelivery() {
	rt.dispatcher.Start()
	if rt.queue == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	rt.stopConsumer = cancel
	go func() {
		if err := rt.queue.Consume(ctx, rt.dispatcher); err != nil {
			log.Printf("[NOTIFY] consumer stopped: %v", err)
		}
	}()
}

func (rt *runtime) close() {
	for _, c := range rt.crons {
		<-c.Stop().Done()
	}
	if rt.stopConsumer != nil {
		rt.stopConsumer()
	}
	if rt.dispatcher != nil {
		rt.dispatcher.Stop()
	}
	if rt.queue != nil {
		if err := rt.queue.Close(); err != nil {
			log.Printf("[NOTIFY] queue close: %v", err)
		}
	}
	database.Close(rt.db)
}
