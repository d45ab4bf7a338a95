package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bazaar-service/bazaar_service/internal/domain/services/balance"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// BalanceHandlers exposes seller payout balances.
type BalanceHandlers struct {
	service *balance.Service
	logger  *logger.Logger
}

// NewBalanceHandlers creates balance handlers.
func NewBalanceHandlers(service *balance.Service, log *logger.Logger) *BalanceHandlers {
	return &BalanceHandlers{service: service, logger: log}
}

// SellerBalances returns the seller's withdrawable balance per marketplace
// and token. Pairs with no recorded income are omitted; fully withdrawn
// pairs appear with a zero amount.
func (h *BalanceHandlers) SellerBalances(c *gin.Context) {
	sellerID, ok := parseID(c, "id")
	if !ok {
		return
	}

	balances, err := h.service.AvailableBalance(c.Request.Context(), sellerID)
	if err != nil {
		h.logger.Error("balance lookup failed", "seller_id", sellerID, "error", err)
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"seller_id": sellerID, "balances": balances})
}
