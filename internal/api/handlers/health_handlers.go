package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	db        *sqlx.DB
	redis     *redis.Client
	logger    *logger.Logger
	startTime time.Time
}

// NewHealthHandlers creates health handlers.
func NewHealthHandlers(db *sqlx.DB, redisClient *redis.Client, log *logger.Logger) *HealthHandlers {
	return &HealthHandlers{
		db:        db,
		redis:     redisClient,
		logger:    log,
		startTime: time.Now(),
	}
}

// Health reports process liveness.
func (h *HealthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready reports whether the service can reach its dependencies.
func (h *HealthHandlers) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	status := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
		h.logger.Warn("readiness: database ping failed", "error", err)
	} else {
		checks["database"] = "ok"
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unreachable"
		status = http.StatusServiceUnavailable
		h.logger.Warn("readiness: redis ping failed", "error", err)
	} else {
		checks["redis"] = "ok"
	}

	c.JSON(status, gin.H{"status": statusWord(status), "checks": checks})
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "unavailable"
}
