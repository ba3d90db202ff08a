package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farellandr/hydrovibe/config"
	"github.com/farellandr/hydrovibe/internal/handlers"
	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/jobs"
	"github.com/farellandr/hydrovibe/internal/middleware"
	"github.com/farellandr/hydrovibe/internal/payments"
	"github.com/farellandr/hydrovibe/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RouterOptions struct {
	CORSOrigins  []string
	Redis        *redis.Client
	OTPRateLimit middleware.RateLimitConfig
}

func Start(logger *zap.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDatabase(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	rdb, err := config.InitRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %v", err)
	}

	gateway, err := newGateway(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway: %v", err)
	}

	svc, scheduler, err := buildServices(cfg, db, rdb, gateway, logger)
	if err != nil {
		return err
	}

	r := NewRouter(svc, RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		Redis:       rdb,
		OTPRateLimit: middleware.RateLimitConfig{
			Name:        "otp",
			MaxRequests: cfg.OTPRateLimit,
			Window:      cfg.OTPRateLimitWindow,
		},
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("payment_provider", gateway.Name()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %v", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %v", err)
	}
	if rdb != nil {
		rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}

func newGateway(cfg *config.Config) (payments.Gateway, error) {
	switch cfg.PaymentProvider {
	case "xendit":
		client, err := config.InitXenditClient(cfg.Xendit)
		if err != nil {
			return nil, err
		}
		return payments.NewXendit(payments.NewXenditInvoiceClient(client)), nil
	default:
		if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
			return nil, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required for the razorpay provider")
		}
		return payments.NewRazorpay(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret), nil
	}
}

func newSMSSender(cfg *config.Config, logger *zap.Logger) (services.SMSSender, error) {
	if cfg.Twilio.Enabled() {
		sender, err := services.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, logger)
		if err != nil {
			return nil, err
		}
		return sender, nil
	}
	if cfg.IsProduction() {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER are required in production")
	}
	logger.Warn("twilio not configured, OTP messages are written to the debug log")
	return services.NewLogSender(logger), nil
}

func buildServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, gateway payments.Gateway, logger *zap.Logger) (*services.Services, *cron.Cron, error) {
	sms, err := newSMSSender(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var revoked services.RevocationStore
	var scheduler *cron.Cron
	if rdb != nil {
		revoked = services.NewRedisRevocationStore(rdb)
	} else {
		store := services.NewGormRevocationStore(db)
		c, err := jobs.StartRevocationCleanup(store, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to schedule cleanup: %v", err)
		}
		revoked = store
		scheduler = c
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, revoked)
	renderer := services.NewTicketRenderer(cfg.TicketSigningKey)

	return &services.Services{
		DB:     db,
		Logger: logger,
		OTP:    services.NewOTPService(db, sms, tokens, renderer, cfg.OTPTTL, logger),
		Tokens: tokens,
		Bookings: services.NewBookingService(db, gateway, renderer, services.BookingConfig{
			Currency:    cfg.PaymentCurrency,
			CallbackURL: cfg.PaymentCallbackURL,
			Timeout:     cfg.PaymentTimeout,
		}, logger),
		Payments:           services.NewPaymentService(db, gateway, renderer, cfg.PaymentTimeout, logger),
		Events:             services.NewEventService(db),
		Tickets:            renderer,
		PaymentRedirectURL: cfg.PaymentRedirectURL,
	}, scheduler, nil
}

// NewRouter wires middleware and routes around svc.
func NewRouter(svc *services.Services, opts RouterOptions, logger *zap.Logger) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		helpers.RegisterCustomValidations(v)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(middleware.ServicesMiddleware(svc))

	setupRoutes(r, svc, opts, logger)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func setupRoutes(r *gin.Engine, svc *services.Services, opts RouterOptions, logger *zap.Logger) {
	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := svc.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			logger.Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": true})
	})

	otpLimit := middleware.RateLimiter(opts.Redis, opts.OTPRateLimit, logger)

	public := r.Group("/event-registration")
	{
		public.POST("/send-otp", otpLimit, handlers.SendOTP)
		public.POST("/verify-otp", otpLimit, handlers.VerifyOTP)
		public.GET("/latest-event-details", handlers.GetLatestEvent)
		public.GET("/callback-for-razorpay", handlers.PaymentCallback)
		public.GET("/check-payment-status", handlers.CheckPaymentStatus)
		public.POST("/verify-token", handlers.VerifyToken)
		public.POST("/refresh-token", handlers.RefreshToken)
		public.POST("/logout", handlers.Logout)
	}

	protected := r.Group("/event-registration")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.POST("/book-tickets", handlers.BookTickets)
		protected.GET("/user-event-booking", handlers.ListUserBookings)
		protected.GET("/profile", handlers.GetProfile)
		protected.GET("/tickets/:reference", handlers.GetTicketImage)
		protected.POST("/tickets/verify", middleware.StaffOnly(), handlers.ValidateTicket)
	}
}
