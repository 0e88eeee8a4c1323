package handlers

import (
	"context"
	"net/http"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type LoyaltyExpirer interface {
	ExpireLoyalty(ctx context.Context) (int, error)
}

type NotificationPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type OutboxAdmin interface {
	Replay(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (map[models.OutboxStatus]int64, error)
	List(ctx context.Context, status models.OutboxStatus, params *utils.PaginationParams) ([]*models.OutboxMessage, int64, error)
}

// Pinger is satisfied by the Mongo and Redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler exposes maintenance jobs the background worker also runs on
// a schedule.
type SystemHandler struct {
	loyalty       LoyaltyExpirer
	notifications NotificationPurger
	outbox        OutboxAdmin
}

func NewSystemHandler(loyalty LoyaltyExpirer, notifications NotificationPurger, outbox OutboxAdmin) *SystemHandler {
	return &SystemHandler{loyalty: loyalty, notifications: notifications, outbox: outbox}
}

func (h *SystemHandler) ExpireLoyalty(c *gin.Context) {
	expired, err := h.loyalty.ExpireLoyalty(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Loyalty expiry completed", gin.H{"expired": expired})
}

func (h *SystemHandler) PurgeNotifications(c *gin.Context) {
	purged, err := h.notifications.PurgeExpired(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Expired notifications purged", gin.H{"purged": purged})
}

func (h *SystemHandler) ReplayOutbox(c *gin.Context) {
	replayed, err := h.outbox.Replay(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Dead-lettered effects queued for retry", gin.H{"replayed": replayed})
}

func (h *SystemHandler) OutboxStats(c *gin.Context) {
	stats, err := h.outbox.Stats(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Outbox statistics retrieved successfully", stats)
}

func (h *SystemHandler) ListOutbox(c *gin.Context) {
	status := models.OutboxStatus(c.DefaultQuery("status", string(models.OutboxStatusDead)))
	switch status {
	case models.OutboxStatusPending, models.OutboxStatusDone, models.OutboxStatusDead:
	default:
		utils.HandleError(c, utils.NewValidationError(utils.ErrValidationFailed, map[string]string{
			"status": "Status must be pending, done or dead",
		}))
		return
	}

	params := utils.GetPaginationParams(c)
	messages, total, err := h.outbox.List(c.Request.Context(), status, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Outbox messages retrieved successfully", messages, params, total)
}

type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Health pings every dependency concurrently and reports 503 when any fails.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	errs := make(map[string]error, len(h.checks))
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}

	pings := make([]error, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, pinger := i, h.checks[name]
		g.Go(func() error {
			pings[i] = pinger.Ping(gctx)
			return nil
		})
	}
	_ = g.Wait()

	healthy := true
	for i, name := range names {
		if pings[i] != nil {
			errs[name] = pings[i]
			results[name] = "down"
			healthy = false
			continue
		}
		results[name] = "up"
	}
	for name, err := range errs {
		c.Error(err).SetMeta(name)
	}

	status, label := http.StatusOK, "healthy"
	if !healthy {
		status, label = http.StatusServiceUnavailable, "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":    label,
		"checks":    results,
		"timestamp": time.Now().UTC(),
	})
}
