package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bazaar-service/bazaar_service/internal/domain/services/reconciliation"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// ReconcileHandlers exposes the manual reconciliation trigger.
type ReconcileHandlers struct {
	service *reconciliation.Service
	logger  *logger.Logger
}

// NewReconcileHandlers creates reconciliation handlers.
func NewReconcileHandlers(service *reconciliation.Service, log *logger.Logger) *ReconcileHandlers {
	return &ReconcileHandlers{service: service, logger: log}
}

// Reconcile runs one reconciliation pass for the network identified by its
// chain id. A pass already running for the network yields 409.
func (h *ReconcileHandlers) Reconcile(c *gin.Context) {
	chainID, err := strconv.ParseInt(c.Param("chainId"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CHAIN", "invalid chain id", nil)
		return
	}

	if err := h.service.ReconcileNetwork(c.Request.Context(), chainID); err != nil {
		h.logger.Error("manual reconciliation failed", "chain_id", chainID, "error", err)
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed", "chain_id": chainID})
}
