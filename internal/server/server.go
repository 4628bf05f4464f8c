package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/raihanpk/tiketku/config"
	"github.com/raihanpk/tiketku/internal/clock"
	"github.com/raihanpk/tiketku/internal/handlers"
	"github.com/raihanpk/tiketku/internal/helpers"
	"github.com/raihanpk/tiketku/internal/ledger"
	"github.com/raihanpk/tiketku/internal/middleware"
	"github.com/raihanpk/tiketku/internal/models"
	"github.com/raihanpk/tiketku/internal/orders"
	"github.com/raihanpk/tiketku/internal/payment"
	"github.com/raihanpk/tiketku/internal/storage"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	xenditCfg, err := config.LoadXenditConfig()
	if err != nil {
		return fmt.Errorf("failed to load xendit config: %v", err)
	}

	xenditClient, err := config.InitXenditClient(xenditCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize xendit client: %v", err)
	}
	gateway := payment.NewXenditGateway(xenditClient)

	manager, led, err := buildEngine(db)
	if err != nil {
		return fmt.Errorf("failed to build order engine: %v", err)
	}

	r := gin.Default()

	setupRoutes(r, db, manager, led, gateway)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

// buildEngine loads the ticket catalog into the inventory ledger and
// replays persisted orders so holds and deadlines survive a restart.
func buildEngine(db *gorm.DB) (*orders.Manager, *ledger.Ledger, error) {
	ctx := context.Background()

	catalog := storage.NewCatalog(db)
	repo := storage.NewOrderRepository(db)
	counter := storage.NewPurchaseCounter(db)

	led := ledger.New()

	var ticketTypes []models.TicketType
	if err := db.Find(&ticketTypes).Error; err != nil {
		return nil, nil, err
	}
	for _, ticketType := range ticketTypes {
		sold, err := repo.SoldQuantity(ctx, ticketType.ID)
		if err != nil {
			return nil, nil, err
		}
		if err := led.Register(ticketType.ID, ticketType.TotalQuantity, sold); err != nil {
			return nil, nil, err
		}
	}

	opts := []orders.Option{}
	if raw := os.Getenv("HOLD_DURATION_SECONDS"); raw != "" {
		seconds, err := helpers.StringToInt(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid HOLD_DURATION_SECONDS: %v", err)
		}
		opts = append(opts, orders.WithHoldDuration(time.Duration(seconds)*time.Second))
	}

	manager := orders.NewManager(led, catalog, counter, repo, clock.NewSystem(), opts...)

	persisted, err := repo.AllOrders(ctx)
	if err != nil {
		return nil, nil, err
	}
	refunds, err := repo.AllRefunds(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := manager.Restore(ctx, persisted, refunds); err != nil {
		return nil, nil, err
	}

	return manager, led, nil
}

func setupRoutes(r *gin.Engine, db *gorm.DB, manager *orders.Manager, led *ledger.Ledger, gateway payment.Gateway) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.OrdersMiddleware(manager))
	r.Use(middleware.LedgerMiddleware(led))
	r.Use(middleware.GatewayMiddleware(gateway))

	public := r.Group("/v1")
	{
		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
		}

		callback := public.Group("/payments")
		callback.Use(middleware.CallbackTokenMiddleware())
		{
			callback.POST("/callback", handlers.PaymentCallback)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		orderProtected := protected.Group("/orders")
		{
			orderProtected.POST("", handlers.CreateOrder)
			orderProtected.GET("", handlers.ListMyOrders)
			orderProtected.GET("/:id", handlers.GetOrder)
			orderProtected.DELETE("/:id", handlers.CancelOrder)
			orderProtected.POST("/:id/pay", handlers.InitiatePayment)
			orderProtected.POST("/:id/refund", handlers.RequestRefund)
			orderProtected.GET("/:id/qr", handlers.GenerateTicketQR)
		}

		refundProtected := protected.Group("/refunds")
		{
			refundProtected.GET("/:id", handlers.GetRefund)
		}
	}

	operator := r.Group("/v1")
	operator.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole("operator"))
	{
		operator.POST("/orders/:id/complete", handlers.CompleteOrder)
		operator.POST("/refunds/:id/review", handlers.ReviewRefund)
		operator.POST("/refunds/:id/settle", handlers.SettleRefund)
		operator.POST("/tickets/validate", handlers.ValidateTicket)
	}
}
