package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/raihanpk/tiketku/internal/helpers"
	"github.com/raihanpk/tiketku/internal/models"
)

type RefundRequest struct {
	Reason string `json:"reason" binding:"required"`
	Note   string `json:"note"`
}

func RequestRefund(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order ID.")
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
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

	refundRecord, err := manager.RequestRefund(c.Request.Context(), orderID, userID, models.RefundReason(req.Reason), req.Note)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Refund requested. It will be reviewed shortly.",
		"refund":  refundRecord,
	})
}

func GetRefund(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid refund ID.")
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

	refundRecord, err := manager.GetRefund(refundID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	order, err := manager.GetOrder(refundRecord.OrderID)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	if order.BuyerID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this refund.")
		return
	}

	c.JSON(http.StatusOK, refundRecord)
}

type RefundReviewRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// ReviewRefund is the operator's approve/reject decision.
func ReviewRefund(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid refund ID.")
		return
	}

	var req RefundReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	manager, ok := managerFrom(c)
	if !ok {
		return
	}

	refundRecord, err := manager.ReviewRefund(c.Request.Context(), refundID, *req.Approved)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	message := "Refund approved."
	if refundRecord.Status == models.RefundRejected {
		message = "Refund rejected."
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"refund":  refundRecord,
	})
}

// SettleRefund records the payout as done and closes the order.
func SettleRefund(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid refund ID.")
		return
	}

	manager, ok := managerFrom(c)
	if !ok {
		return
	}

	refundRecord, err := manager.SettleRefund(c.Request.Context(), refundID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Refund settled.",
		"refund":  refundRecord,
	})
}
