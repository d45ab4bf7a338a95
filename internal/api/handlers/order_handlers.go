package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bazaar-service/bazaar_service/internal/domain/services/order"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// OrderHandlers exposes the purchase order lifecycle.
type OrderHandlers struct {
	service *order.Service
	logger  *logger.Logger
}

// NewOrderHandlers creates order handlers.
func NewOrderHandlers(service *order.Service, log *logger.Logger) *OrderHandlers {
	return &OrderHandlers{service: service, logger: log}
}

type createOrderRequest struct {
	BuyerID        uuid.UUID `json:"buyer_id" binding:"required"`
	ProductID      uuid.UUID `json:"product_id" binding:"required"`
	OrderReference string    `json:"order_reference" binding:"required"`
	BuyerWallet    string    `json:"buyer_wallet" binding:"required"`
}

// Create creates a draft purchase order with the product's price and
// commission snapshotted at order time.
func (h *OrderHandlers) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request payload", nil)
		return
	}

	ord, err := h.service.CreateOrder(c.Request.Context(), req.BuyerID, req.ProductID, req.OrderReference, req.BuyerWallet)
	if err != nil {
		h.logger.Warn("order creation rejected", "product_id", req.ProductID, "error", err)
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ord)
}

type submitTransactionRequest struct {
	Hash          string `json:"hash" binding:"required"`
	SenderAddress string `json:"sender_address" binding:"required"`
}

// Submit attaches the buyer's settlement transaction to the order and moves
// it to awaiting confirmation.
func (h *OrderHandlers) Submit(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req submitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request payload", nil)
		return
	}

	tx, err := h.service.SubmitOrder(c.Request.Context(), orderID, req.Hash, req.SenderAddress)
	if err != nil {
		h.logger.Warn("order submission rejected", "order_id", orderID, "error", err)
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// Cancel cancels an unsettled order.
func (h *OrderHandlers) Cancel(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.CancelOrder(c.Request.Context(), orderID); err != nil {
		h.logger.Warn("order cancellation rejected", "order_id", orderID, "error", err)
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "order_id": orderID})
}
