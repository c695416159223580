package configs

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ .env file not found, using system ENV")
		} else {
			log.Println("✅ .env file loaded")
		}
	} else {
		log.Println("🚀 Running in Railway, using system ENV")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

func getEnvInt(key string, def int) int {
	if v := GetEnv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[CONFIG] %s=%q is not an integer, using %d", key, v, def)
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := GetEnv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := GetEnv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[CONFIG] %s=%q is not a duration, using %s", key, v, def)
	}
	return def
}

// getEnvDecimal returns nil when the key is unset or not a number.
func getEnvDecimal(key string) *decimal.Decimal {
	v := GetEnv(key)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Printf("[CONFIG] %s=%q is not a decimal, ignored", key, v)
		return nil
	}
	return &d
}

// =======================
// APP CONFIG
// =======================

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
	AppName  string
}

type SMSConfig struct {
	APIURL      string
	APIKey      string
	SenderID    string
	MaxAttempts int
	Timeout     time.Duration
}

type NotifyConfig struct {
	Workers   int
	QueueSize int
	QueueURL  string // amqp://... ; empty = in-process queue
	QueueName string
}

type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Currency    string
}

type MidtransConfig struct {
	ServerKey string
	UseProd   bool
}

type CronConfig struct {
	ExpirySweep    string
	AutoRenew      string
	ReconcileStale string
	StaleAfter     time.Duration
}

type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Prefix          string
	SecurityToken   string
	// Archived import files older than Retention are pruned on ReaperSchedule.
	Retention      time.Duration
	ReaperSchedule string
}

func (o OSSConfig) Enabled() bool {
	return o.Endpoint != "" && o.AccessKeyID != "" && o.AccessKeySecret != "" && o.Bucket != ""
}

type AppConfig struct {
	Port          string
	JWTSecret     string
	JWTTTL        time.Duration
	Timezone      string
	CountryPrefix string
	CORSOrigins   string
	// RequestTimeout bounds the context every handler runs under.
	RequestTimeout time.Duration

	DefaultWaterRate *decimal.Decimal
	DefaultRent      *decimal.Decimal
	BillDueDays      int
	SummaryCacheTTL  time.Duration

	// GateFailOpen lets resource creation through when the tier lookup itself fails.
	GateFailOpen bool

	GatewayProvider string // "paystack" | "midtrans"

	DB       DBConfig
	SMS      SMSConfig
	Notify   NotifyConfig
	Paystack PaystackConfig
	Midtrans MidtransConfig
	Cron     CronConfig
	OSS      OSSConfig
}

// Load reads every setting once. Nothing else in the app touches os.Getenv.
func Load() AppConfig {
	cfg := AppConfig{
		Port:          GetEnv("PORT", "3000"),
		JWTSecret:     GetEnv("JWT_SECRET"),
		JWTTTL:        getEnvDuration("JWT_TTL", 24*time.Hour),
		Timezone:      GetEnv("APP_TIMEZONE", "Africa/Nairobi"),
		CountryPrefix: GetEnv("COUNTRY_PREFIX", "254"),
		CORSOrigins:   GetEnv("CORS_ORIGINS", "http://localhost:5173"),

		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),

		DefaultWaterRate: getEnvDecimal("DEFAULT_WATER_RATE"),
		DefaultRent:      getEnvDecimal("DEFAULT_RENT"),
		BillDueDays:      getEnvInt("BILL_DUE_DAYS", 30),
		SummaryCacheTTL:  getEnvDuration("SUMMARY_CACHE_TTL", 60*time.Second),

		GateFailOpen:    getEnvBool("SUBSCRIPTION_GATE_FAIL_OPEN", false),
		GatewayProvider: strings.ToLower(GetEnv("GATEWAY_PROVIDER", "paystack")),

		DB: DBConfig{
			User:     GetEnv("DB_USER"),
			Password: GetEnv("DB_PASSWORD"),
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "5432"),
			Name:     GetEnv("DB_NAME"),
			SSLMode:  GetEnv("DB_SSLMODE", "require"),
			AppName:  GetEnv("DB_APP_NAME", "majibill"),
		},
		SMS: SMSConfig{
			APIURL:      GetEnv("SMS_API_URL", "https://bulksms.talksasa.com/api/v3/sms/send"),
			APIKey:      GetEnv("SMS_API_KEY"),
			SenderID:    GetEnv("SMS_SENDER_ID"),
			MaxAttempts: getEnvInt("SMS_MAX_ATTEMPTS", 3),
			Timeout:     getEnvDuration("SMS_TIMEOUT", 10*time.Second),
		},
		Notify: NotifyConfig{
			Workers:   getEnvInt("NOTIFY_WORKERS", 4),
			QueueSize: getEnvInt("NOTIFY_QUEUE_SIZE", 256),
			QueueURL:  GetEnv("NOTIFY_QUEUE_URL"),
			QueueName: GetEnv("NOTIFY_QUEUE_NAME", "sms_jobs"),
		},
		Paystack: PaystackConfig{
			SecretKey:   GetEnv("PAYSTACK_SECRET_KEY"),
			BaseURL:     GetEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			CallbackURL: GetEnv("PAYSTACK_CALLBACK_URL"),
			Currency:    GetEnv("PAYSTACK_CURRENCY", "KES"),
		},
		Midtrans: MidtransConfig{
			ServerKey: GetEnv("MIDTRANS_SERVER_KEY"),
			UseProd:   getEnvBool("MIDTRANS_USE_PROD", false),
		},
		Cron: CronConfig{
			ExpirySweep:    GetEnv("CRON_EXPIRY_SWEEP", "0 8 * * *"),
			AutoRenew:      GetEnv("CRON_AUTO_RENEW", "0 6 * * *"),
			ReconcileStale: GetEnv("CRON_RECONCILE_STALE", "*/15 * * * *"),
			StaleAfter:     getEnvDuration("RECONCILE_STALE_AFTER", 30*time.Minute),
		},
		OSS: OSSConfig{
			Endpoint:        GetEnv("ALI_OSS_ENDPOINT"),
			AccessKeyID:     GetEnv("ALI_OSS_ACCESS_KEY"),
			AccessKeySecret: GetEnv("ALI_OSS_SECRET_KEY"),
			Bucket:          GetEnv("ALI_OSS_BUCKET"),
			Prefix:          GetEnv("ALI_OSS_IMPORT_PREFIX", "imports/"),
			SecurityToken:   GetEnv("ALI_OSS_SECURITY_TOKEN"),
			Retention:       getEnvDuration("ALI_OSS_IMPORT_RETENTION", 90*24*time.Hour),
			ReaperSchedule:  GetEnv("CRON_IMPORT_REAPER", "15 2 * * *"),
		},
	}

	if cfg.JWTSecret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	} else {
		log.Println("✅ JWT_SECRET loaded.")
	}
	if cfg.SMS.APIKey == "" {
		log.Println("⚠️ SMS_API_KEY is not set, outbound SMS will fail")
	}
	if cfg.GateFailOpen {
		log.Println("⚠️ SUBSCRIPTION_GATE_FAIL_OPEN=true, tier checks let requests through on lookup errors")
	}
	return cfg
}

// Location resolves APP_TIMEZONE, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	log.Printf("[CONFIG] unknown timezone %q, using UTC", c.Timezone)
	return time.UTC
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger() gormLogger.Interface {
	level := gormLogger.Warn
	if getEnvBool("DB_LOG_QUERIES", false) {
		level = gormLogger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	nl := *l
	nl.LogLevel = level
	return &nl
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Printf("[INFO] "+msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Printf("[WARN] "+msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Printf("[ERROR] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.LogLevel >= gormLogger.Error:
		log.Printf("[ERROR] %s | %v | %s | %d rows | %s", file, err, elapsed, rows, sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Printf("[SLOW SQL] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	case l.LogLevel >= gormLogger.Info:
		log.Printf("[QUERY] %s | %s | %d rows | %s", file, elapsed, rows, sql)
	}
}
