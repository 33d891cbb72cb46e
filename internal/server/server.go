package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tunegift/checkout-api/internal/config"
	"github.com/tunegift/checkout-api/internal/currency"
	"github.com/tunegift/checkout-api/internal/handler"
	"github.com/tunegift/checkout-api/internal/middleware"
	"github.com/tunegift/checkout-api/internal/ratelimit"
	"github.com/tunegift/checkout-api/internal/repository"
	"github.com/tunegift/checkout-api/internal/service"
	"github.com/tunegift/checkout-api/internal/storage"
)

type Server struct {
	router      *gin.Engine
	config      *config.Config
	redis       *storage.RedisClient
	postgres    *storage.Postgres
	authService *service.AuthService

	stripeHandler   *handler.StripeHandler
	razorpayHandler *handler.RazorpayHandler
	payuHandler     *handler.PayUHandler
	currencyHandler *handler.CurrencyHandler
	adminHandler    *handler.AdminHandler

	httpServer *http.Server
}

func New(cfg *config.Config, redis *storage.RedisClient, postgres *storage.Postgres) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	paymentRepo := repository.NewPaymentRepository(postgres)
	eventRepo := repository.NewWebhookEventRepository(postgres)
	userRepo := repository.NewUserRepository(postgres)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, 24)
	currencyService := currency.NewService(cfg.Currency.ProviderURL, redis)

	stripeService := service.NewStripeService(
		paymentRepo, eventRepo,
		cfg.Providers.StripeSecretKey,
		cfg.Providers.StripeWebhookSecret,
		cfg.Redirect.BaseURL,
	)
	razorpayService := service.NewRazorpayService(
		paymentRepo, eventRepo,
		cfg.Providers.RazorpayKeyID,
		cfg.Providers.RazorpayKeySecret,
		cfg.Providers.RazorpayWebhookSecret,
	)
	payuService := service.NewPayUService(
		paymentRepo, eventRepo,
		cfg.Providers.PayUMerchantKey,
		cfg.Providers.PayUSalt,
		cfg.Server.PublicURL,
	)

	s := &Server{
		router:          router,
		config:          cfg,
		redis:           redis,
		postgres:        postgres,
		authService:     authService,
		stripeHandler:   handler.NewStripeHandler(stripeService),
		razorpayHandler: handler.NewRazorpayHandler(razorpayService),
		payuHandler:     handler.NewPayUHandler(payuService, cfg.Redirect.BaseURL),
		currencyHandler: handler.NewCurrencyHandler(currencyService),
		adminHandler:    handler.NewAdminHandler(authService, paymentRepo),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// EnsureAdmin seeds the support-lookup account from the configured
// credentials. Called once at startup; re-seeding an existing email is a
// no-op.
func (s *Server) EnsureAdmin(ctx context.Context) error {
	if s.config.Admin.Email == "" {
		return nil
	}
	return s.authService.EnsureAdmin(ctx, s.config.Admin.Email, s.config.Admin.Password, "Support")
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS(s.config.CORS.AllowedOrigins))
}

func (s *Server) limiter(profile ratelimit.Profile) gin.HandlerFunc {
	return middleware.RateLimit(
		ratelimit.NewLimiter(s.config.RateLimit.Backend, s.redis, profile),
	)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	orderLimit := s.limiter(ratelimit.OrderCreation)
	verifyLimit := s.limiter(ratelimit.PaymentVerification)
	webhookLimit := s.limiter(ratelimit.WebhookIngestion)
	strictLimit := s.limiter(ratelimit.Strict)

	payments := s.router.Group("/api/payments")
	{
		payments.POST("/stripe/orders", orderLimit, s.stripeHandler.CreateOrder)
		payments.POST("/stripe/webhook", webhookLimit, s.stripeHandler.Webhook)

		payments.POST("/razorpay/orders", orderLimit, s.razorpayHandler.CreateOrder)
		payments.POST("/razorpay/verify", verifyLimit, s.razorpayHandler.Verify)
		payments.POST("/razorpay/webhook", webhookLimit, s.razorpayHandler.Webhook)

		payments.POST("/payu/orders", orderLimit, s.payuHandler.CreateOrder)
		payments.POST("/payu/success", verifyLimit, s.payuHandler.SuccessCallback)
		payments.POST("/payu/failure", verifyLimit, s.payuHandler.FailureCallback)
		payments.POST("/payu/webhook", webhookLimit, s.payuHandler.Webhook)
	}

	curr := s.router.Group("/api/currency")
	{
		curr.GET("/rates", s.currencyHandler.Rates)
		curr.POST("/convert", s.currencyHandler.Convert)
	}

	admin := s.router.Group("/admin")
	{
		admin.POST("/login", strictLimit, s.adminHandler.Login)

		authed := admin.Group("", middleware.RequireAuth(s.authService))
		authed.GET("/payments", s.adminHandler.ListPayments)
		authed.GET("/payments/:txnid", s.adminHandler.GetPayment)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	dbHealthy := true
	if err := s.postgres.Ping(c.Request.Context()); err != nil {
		dbHealthy = false
		log.Printf("Database health check failed: %v", err)
	}

	redisHealthy := true
	if s.redis != nil {
		if err := s.redis.Ping(c.Request.Context()); err != nil {
			redisHealthy = false
			log.Printf("Redis health check failed: %v", err)
		}
	}

	status := "healthy"
	statusCode := http.StatusOK

	if !dbHealthy || !redisHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"service":   "checkout-api",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
		"checks": gin.H{
			"database": dbHealthy,
			"redis":    redisHealthy,
		},
	})
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	log.Printf("Starting checkout API on %s", addr)
	log.Printf("Environment: %s", s.config.Server.Environment)

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
