package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/raihanpk/tiketku/internal/helpers"
)

type OrderRequest struct {
	TicketTypeID uuid.UUID `json:"ticket_type_id" binding:"required"`
	Quantity     int       `json:"quantity" binding:"required,min=1"`
}

func CreateOrder(c *gin.Context) {
	var req OrderRequest
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

	order, err := manager.CreateOrder(c.Request.Context(), userID, req.TicketTypeID, req.Quantity)
	if err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created. Complete payment before the deadline.",
		"order":   order,
	})
}

func GetOrder(c *gin.Context) {
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
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to view this order.")
		return
	}

	c.JSON(http.StatusOK, order)
}

func ListMyOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	manager, ok := managerFrom(c)
	if !ok {
		return
	}

	orderList, err := manager.ListBuyerOrders(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving orders.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orderList})
}

func CancelOrder(c *gin.Context) {
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

	if err := manager.CancelOrder(c.Request.Context(), orderID, userID); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled."})
}

// CompleteOrder is the operator's post-event trigger.
func CompleteOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order ID.")
		return
	}

	manager, ok := managerFrom(c)
	if !ok {
		return
	}

	if err := manager.CompleteOrder(c.Request.Context(), orderID); err != nil {
		respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order completed."})
}
