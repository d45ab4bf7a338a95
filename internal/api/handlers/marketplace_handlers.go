package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bazaar-service/bazaar_service/internal/domain/services/marketplace"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// MarketplaceHandlers exposes marketplace activation.
type MarketplaceHandlers struct {
	service *marketplace.Service
	logger  *logger.Logger
}

// NewMarketplaceHandlers creates marketplace handlers.
func NewMarketplaceHandlers(service *marketplace.Service, log *logger.Logger) *MarketplaceHandlers {
	return &MarketplaceHandlers{service: service, logger: log}
}

// Activate registers the owner's activation transaction for the marketplace
// and moves it to awaiting confirmation.
func (h *MarketplaceHandlers) Activate(c *gin.Context) {
	marketplaceID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req submitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request payload", nil)
		return
	}

	tx, err := h.service.RequestActivation(c.Request.Context(), marketplaceID, req.Hash, req.SenderAddress)
	if err != nil {
		h.logger.Warn("marketplace activation rejected", "marketplace_id", marketplaceID, "error", err)
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}
