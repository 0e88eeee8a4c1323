package interfaces

import (
	"context"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, msg *models.OutboxMessage) error
	// ClaimDue leases up to limit due messages by pushing their next attempt
	// past lease so concurrent relays skip them.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*models.OutboxMessage, error)
	MarkDone(ctx context.Context, id primitive.ObjectID) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, attempts int, lastErr string, nextAttempt time.Time, dead bool) error
	List(ctx context.Context, status models.OutboxStatus, params *utils.PaginationParams) ([]*models.OutboxMessage, int64, error)
	RequeueDead(ctx context.Context, now time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[models.OutboxStatus]int64, error)
}
