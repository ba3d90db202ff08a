package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/farellandr/hydrovibe/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/xendit/xendit-go/v6"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins []string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	OTPTTL             time.Duration
	OTPRateLimit       int
	OTPRateLimitWindow time.Duration

	TicketSigningKey string

	PaymentProvider    string
	PaymentCurrency    string
	PaymentTimeout     time.Duration
	PaymentCallbackURL string
	PaymentRedirectURL string

	Razorpay RazorpayConfig
	Xendit   XenditConfig
	Twilio   TwilioConfig
}

type RazorpayConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
}

type XenditConfig struct {
	BaseURL   string
	SecretKey string
	PublicKey string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "hydrovibe"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 60*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		OTPTTL:             getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPRateLimit:       getEnvInt("OTP_RATE_LIMIT", 5),
		OTPRateLimitWindow: getEnvDuration("OTP_RATE_LIMIT_WINDOW", time.Minute),

		TicketSigningKey: os.Getenv("TICKET_SIGNING_KEY"),

		PaymentProvider:    strings.ToLower(getEnv("PAYMENT_PROVIDER", "razorpay")),
		PaymentCurrency:    getEnv("PAYMENT_CURRENCY", "INR"),
		PaymentTimeout:     getEnvDuration("PAYMENT_TIMEOUT", 15*time.Second),
		PaymentCallbackURL: os.Getenv("PAYMENT_CALLBACK_URL"),
		PaymentRedirectURL: getEnv("PAYMENT_REDIRECT_URL", "/"),

		Razorpay: RazorpayConfig{
			BaseURL:   getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			KeyID:     os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		},
		Xendit: XenditConfig{
			BaseURL:   os.Getenv("XENDIT_BASE_URL"),
			SecretKey: os.Getenv("XENDIT_SECRET_KEY"),
			PublicKey: os.Getenv("XENDIT_PUBLIC_KEY"),
		},
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.TicketSigningKey == "" {
		cfg.TicketSigningKey = cfg.JWTSecret
	}
	if cfg.PaymentCallbackURL == "" {
		return nil, fmt.Errorf("PAYMENT_CALLBACK_URL is required")
	}
	switch cfg.PaymentProvider {
	case "razorpay", "xendit":
	default:
		return nil, fmt.Errorf("unsupported PAYMENT_PROVIDER %q", cfg.PaymentProvider)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func InitXenditClient(config XenditConfig) (*xendit.APIClient, error) {
	if config.SecretKey == "" {
		return nil, fmt.Errorf("XENDIT_SECRET_KEY is required for the xendit provider")
	}
	client := xendit.NewClient(config.SecretKey)

	if config.BaseURL != "" {
		cfg, ok := client.GetConfig().(*xendit.Configuration)
		if !ok {
			return nil, fmt.Errorf("unexpected xendit configuration type %T", client.GetConfig())
		}
		cfg.Servers = xendit.ServerConfigurations{{URL: strings.TrimRight(config.BaseURL, "/")}}
	}

	return client, nil
}

// InitRedisClient returns nil when no address is configured.
func InitRedisClient(cfg *Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func InitDatabase(cfg *Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
	)

	logLevel := gormlogger.Warn
	if !cfg.IsProduction() {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return nil, err
	}

	logger.Info("database ready",
		zap.String("host", cfg.DBHost),
		zap.String("name", cfg.DBName),
		zap.Int("max_open_conns", cfg.DBMaxOpenConns),
	)

	return db, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
