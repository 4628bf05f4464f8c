package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/raihanpk/tiketku/internal/ledger"
	"github.com/raihanpk/tiketku/internal/orders"
	"github.com/raihanpk/tiketku/internal/payment"
)

func OrdersMiddleware(manager *orders.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("orders", manager)
		c.Next()
	}
}

func LedgerMiddleware(led *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("ledger", led)
		c.Next()
	}
}

func GatewayMiddleware(gateway payment.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("gateway", gateway)
		c.Next()
	}
}
