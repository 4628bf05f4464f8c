package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/raihanpk/tiketku/internal/helpers"
	"github.com/raihanpk/tiketku/internal/models"
)

// InitiatePayment asks the gateway for a payment intent on an unpaid
// order. The gateway call happens outside any engine lock; the order's
// deadline keeps running regardless.
func InitiatePayment(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order ID.")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	manager, ok := managerFrom(c)
	if !ok {
		return
	}
	gateway, ok := gatewayFrom(c)
	if !ok {
		return
	}

	order, err := manager.GetOrder(orderID)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	if order.BuyerID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to pay this order.")
		return
	}
	if order.Status != models.OrderPendingPayment {
		helpers.RespondWithError(c, http.StatusConflict, "Order is not awaiting payment.")
		return
	}

	intent, err := gateway.Initiate(c.Request.Context(), &order)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadGateway, "Failed to create payment intent.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id":  intent.ID,
		"payment_url": intent.URL,
		"deadline":    order.PaymentDeadline,
	})
}

type PaymentCallbackRequest struct {
	ExternalID string `json:"external_id" binding:"required"`
	Status     string `json:"status" binding:"required"`
}

// PaymentCallback is the provider's webhook: exactly one terminal
// notification per order. Late settlements come back as 409 so the
// provider's reconciliation picks them up.
func PaymentCallback(c *gin.Context) {
	var req PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid callback payload.")
		return
	}

	orderID, err := uuid.Parse(req.ExternalID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Callback external_id is not an order ID.")
		return
	}

	manager, ok := managerFrom(c)
	if !ok {
		return
	}

	switch req.Status {
	case "PAID", "SETTLED":
		if err := manager.OnPaymentSettled(c.Request.Context(), orderID); err != nil {
			respondEngineError(c, err)
			return
		}
	case "EXPIRED", "FAILED":
		if err := manager.OnPaymentFailed(c.Request.Context(), orderID); err != nil {
			respondEngineError(c, err)
			return
		}
	default:
		helpers.RespondWithError(c, http.StatusBadRequest, "Unknown callback status.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Callback processed."})
}
