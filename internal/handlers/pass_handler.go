package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/raihanpk/tiketku/internal/helpers"
	"github.com/raihanpk/tiketku/internal/models"
)

// GenerateTicketQR renders the entry pass for a paid order as a PNG.
func GenerateTicketQR(c *gin.Context) {
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

	order, err := manager.GetOrder(orderID)
	if err != nil {
		respondEngineError(c, err)
		return
	}
	if order.BuyerID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this ticket.")
		return
	}
	if order.Status != models.OrderPaid && order.Status != models.OrderCompleted {
		helpers.RespondWithError(c, http.StatusConflict, "Ticket is only available for paid orders.")
		return
	}

	qrData := helpers.TicketQRData(order.ID, order.TicketTypeID, order.BuyerID, os.Getenv("JWT_SECRET"))
	png, err := qrcode.Encode(qrData, qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

type TicketValidationRequest struct {
	QRData string `json:"qr_data" binding:"required"`
}

// ValidateTicket is the gate-scan endpoint: verify the pass signature,
// then burn the ticket so the same QR cannot enter twice.
func ValidateTicket(c *gin.Context) {
	var req TicketValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	manager, ok := managerFrom(c)
	if !ok {
		return
	}

	orderID, err := helpers.ParseTicketQRData(req.QRData)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid QR data.")
		return
	}

	order, err := manager.GetOrder(orderID)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	if !helpers.ValidateTicketQRData(req.QRData, order.ID, order.TicketTypeID, order.BuyerID, os.Getenv("JWT_SECRET")) {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Ticket signature does not match.")
		return
	}

	if err := manager.MarkTicketUsed(c.Request.Context(), orderID); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Ticket is valid.",
		"order_id": order.ID,
		"quantity": order.Quantity,
	})
}
