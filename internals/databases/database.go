package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"majibill_backend/internals/configs"
	adminModel "majibill_backend/internals/features/admins/model"
	billingModel "majibill_backend/internals/features/billing/model"
	paymentModel "majibill_backend/internals/features/payments/model"
	propertyModel "majibill_backend/internals/features/properties/model"
	subscriptionModel "majibill_backend/internals/features/subscriptions/model"
	tenantModel "majibill_backend/internals/features/tenants/model"
)

func ConnectDB(cfg configs.DBConfig) (*gorm.DB, error) {
	log.Println("🔌 Connecting to PostgreSQL...")

	// statement_timeout keeps a stuck query from holding a pool slot past the HTTP timeout
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=%s&options=-c statement_timeout=3000",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode, cfg.AppName,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	log.Println("✅ DB connected.")
	return db, nil
}

func TunePool(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries(db *gorm.DB) {
	go func() {
		time.Sleep(500 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := Ping(ctx, db); err != nil {
			log.Printf("warm-up ping err: %v", err)
			return
		}
		// hot path: house chain lookup on every reading
		db.WithContext(ctx).Exec("SELECT 1 FROM readings WHERE reading_house_id IS NOT NULL LIMIT 1")
	}()
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&adminModel.AdminModel{},
		&propertyModel.PropertyModel{},
		&propertyModel.HouseModel{},
		&tenantModel.TenantModel{},
		&billingModel.ReadingModel{},
		&billingModel.BillModel{},
		&billingModel.BillPaymentModel{},
		&subscriptionModel.SubscriptionPaymentModel{},
		&paymentModel.PaymentGatewayEventModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// IsUniqueViolation recognises duplicate-key failures from either the
// translated gorm error or a raw postgres 23505.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
