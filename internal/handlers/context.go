package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raihanpk/tiketku/internal/helpers"
	"github.com/raihanpk/tiketku/internal/ledger"
	"github.com/raihanpk/tiketku/internal/orders"
	"github.com/raihanpk/tiketku/internal/payment"
	"github.com/raihanpk/tiketku/internal/refund"
)

func databaseFrom(c *gin.Context) (*gorm.DB, bool) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return nil, false
	}
	return db.(*gorm.DB), true
}

func managerFrom(c *gin.Context) (*orders.Manager, bool) {
	manager, exists := c.Get("orders")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Order engine not found.")
		return nil, false
	}
	return manager.(*orders.Manager), true
}

func ledgerFrom(c *gin.Context) (*ledger.Ledger, bool) {
	led, exists := c.Get("ledger")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Inventory ledger not found.")
		return nil, false
	}
	return led.(*ledger.Ledger), true
}

func gatewayFrom(c *gin.Context) (payment.Gateway, bool) {
	gateway, exists := c.Get("gateway")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Payment gateway not found.")
		return nil, false
	}
	return gateway.(payment.Gateway), true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return uuid.Nil, false
	}
	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Invalid user ID type.")
		return uuid.Nil, false
	}
	return userUUID, true
}

// respondEngineError maps the engine's sentinel errors to HTTP
// statuses. State conflicts (race losers, sold out, late settlements)
// are 409s; policy refusals and bad input are 400s.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrRefundNotFound),
		errors.Is(err, orders.ErrTicketTypeNotFound),
		errors.Is(err, orders.ErrEventNotFound):
		helpers.RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidRefundReason),
		errors.Is(err, orders.ErrNoteTooLong),
		errors.Is(err, refund.ErrTooCloseToEvent),
		errors.Is(err, refund.ErrOrderNotRefundable):
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrNotOrderOwner):
		helpers.RespondWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, orders.ErrSoldOut),
		errors.Is(err, orders.ErrLimitExceeded),
		errors.Is(err, orders.ErrInvalidOrderState),
		errors.Is(err, orders.ErrInvalidRefundState),
		errors.Is(err, orders.ErrLateSettlement),
		errors.Is(err, orders.ErrTicketUsed):
		helpers.RespondWithError(c, http.StatusConflict, err.Error())
	default:
		helpers.RespondWithError(c, http.StatusInternalServerError, "Something went wrong.")
	}
}
