package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"courtslot/internal/auth"
	"courtslot/internal/config"
	"courtslot/internal/court"
	"courtslot/internal/email"
	"courtslot/internal/order"
	"courtslot/internal/payment"
	"courtslot/internal/reservation"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	repo := reservation.NewRepository(db)
	gateway := payment.NewRazorpayClient(cfg.GatewayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayTimeout)
	reconciler := payment.NewReconciler(repo, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret, emailService)

	orderHandler := order.NewHandler(order.NewService(repo, gateway, order.Settings{
		CourtID:                  cfg.DefaultCourtID,
		OpeningMinute:            cfg.OpeningMinute,
		ClosingMinute:            cfg.ClosingMinute,
		SessionMinutes:           cfg.SessionMinutes,
		PricePerMinutePadel:      cfg.PricePerMinutePadel,
		PricePerMinutePickleball: cfg.PricePerMinutePickleball,
		MinimumCharge:            cfg.MinimumCharge,
		Currency:                 cfg.Currency,
		GatewayKeyID:             cfg.RazorpayKeyID,
	}))
	paymentHandler := payment.NewHandler(reconciler)
	reservationHandler := reservation.NewHandler(repo, cfg.DefaultCourtID, cfg.PendingTTL)
	courtHandler := court.NewHandler(court.NewRepository(db))
	authHandler := auth.NewHandler(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecret)

	publicLimit := RateLimitMiddleware(5, 10)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/availability", orderHandler.Availability)
		apiGroup.POST("/orders", publicLimit, orderHandler.CreateOrder)
		apiGroup.POST("/payments/verify", publicLimit, paymentHandler.VerifyPayment)
	}

	// Webhook deliveries come from the processor's servers, not end users,
	// so they bypass the per-IP limiter.
	router.POST("/api/webhooks/razorpay", paymentHandler.Webhook)

	router.POST("/admin/login", publicLimit, authHandler.Login)

	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(cfg.JWTSecret), auth.RequireRole("admin"))
	{
		admin.GET("/reservations", reservationHandler.ListByDate)
		admin.POST("/sweep", reservationHandler.Sweep)
		admin.GET("/courts", courtHandler.List)
		admin.POST("/courts", courtHandler.Create)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		http: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
	}
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Razorpay-Signature, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
