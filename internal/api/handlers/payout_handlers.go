package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bazaar-service/bazaar_service/internal/domain/services/payout"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// PayoutHandlers exposes the payout lifecycle.
type PayoutHandlers struct {
	service *payout.Service
	logger  *logger.Logger
}

// NewPayoutHandlers creates payout handlers.
func NewPayoutHandlers(service *payout.Service, log *logger.Logger) *PayoutHandlers {
	return &PayoutHandlers{service: service, logger: log}
}

type requestPayoutRequest struct {
	SellerID      uuid.UUID `json:"seller_id" binding:"required"`
	MarketplaceID uuid.UUID `json:"marketplace_id" binding:"required"`
	TokenID       uuid.UUID `json:"token_id" binding:"required"`
	WalletAddress string    `json:"wallet_address" binding:"required"`
}

// Request creates a draft payout reserving the seller's full withdrawable
// balance for the (marketplace, token) pair.
func (h *PayoutHandlers) Request(c *gin.Context) {
	var req requestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request payload", nil)
		return
	}

	p, err := h.service.RequestPayout(c.Request.Context(), req.SellerID, req.MarketplaceID, req.TokenID, req.WalletAddress)
	if err != nil {
		h.logger.Warn("payout request rejected", "marketplace_id", req.MarketplaceID, "token_id", req.TokenID, "error", err)
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// Submit attaches the on-chain payout transaction and moves the payout to
// awaiting confirmation.
func (h *PayoutHandlers) Submit(c *gin.Context) {
	payoutID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req submitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request payload", nil)
		return
	}

	tx, err := h.service.SubmitPayout(c.Request.Context(), payoutID, req.Hash, req.SenderAddress)
	if err != nil {
		h.logger.Warn("payout submission rejected", "payout_id", payoutID, "error", err)
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

// Cancel cancels an unsettled payout, releasing its reserved amount.
func (h *PayoutHandlers) Cancel(c *gin.Context) {
	payoutID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.CancelPayout(c.Request.Context(), payoutID); err != nil {
		h.logger.Warn("payout cancellation rejected", "payout_id", payoutID, "error", err)
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled", "payout_id": payoutID})
}
