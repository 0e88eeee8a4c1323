package services

import (
	"context"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/logger"
)

const (
	outboxBaseBackoff = 30 * time.Second
	outboxMaxBackoff  = time.Hour
)

type OutboxRelayConfig struct {
	MaxAttempts int
	BatchSize   int
	Lease       time.Duration
}

// OutboxRelay retries side effects that failed inline.
type OutboxRelay struct {
	repo    interfaces.OutboxRepository
	effects *SideEffects
	config  OutboxRelayConfig
	logger  *logger.Logger
	now     func() time.Time
}

func NewOutboxRelay(repo interfaces.OutboxRepository, effects *SideEffects, config OutboxRelayConfig, log *logger.Logger) *OutboxRelay {
	if log == nil {
		log = logger.NewNop()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 8
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.Lease <= 0 {
		config.Lease = 2 * time.Minute
	}
	return &OutboxRelay{
		repo:    repo,
		effects: effects,
		config:  config,
		logger:  log,
		now:     time.Now,
	}
}

// Backoff is the delay before attempt number attempts+1: 30s doubling per
// attempt, capped at one hour.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := outboxBaseBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= outboxMaxBackoff {
			return outboxMaxBackoff
		}
	}
	return delay
}

// Run polls the outbox every interval until ctx ends.
func (r *OutboxRelay) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.ProcessDue(ctx); err != nil {
				r.logger.WithError(err).Warn("Outbox relay pass failed")
			}
		}
	}
}

// ProcessDue claims and dispatches one batch, returning how many succeeded.
func (r *OutboxRelay) ProcessDue(ctx context.Context) (int, error) {
	messages, err := r.repo.ClaimDue(ctx, r.now(), r.config.Lease, r.config.BatchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, msg := range messages {
		if err := r.effects.Dispatch(ctx, msg); err != nil {
			r.fail(ctx, msg, err)
			continue
		}
		if err := r.repo.MarkDone(ctx, msg.ID); err != nil {
			r.logger.WithError(err).WithField("outbox_id", msg.ID.Hex()).Warn("Failed to mark outbox message done")
			continue
		}
		delivered++
	}

	if len(messages) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"claimed":   len(messages),
			"delivered": delivered,
		}).Info("Outbox relay pass complete")
	}
	return delivered, nil
}

func (r *OutboxRelay) fail(ctx context.Context, msg *models.OutboxMessage, cause error) {
	attempts := msg.Attempts + 1
	dead := attempts >= r.config.MaxAttempts || !IsRetryable(cause)
	next := r.now().Add(Backoff(attempts))

	log := r.logger.WithError(cause).WithFields(map[string]interface{}{
		"outbox_id": msg.ID.Hex(),
		"effect":    string(msg.Effect),
		"order_id":  msg.OrderID.Hex(),
		"attempts":  attempts,
	})
	if dead {
		log.Error("Side effect abandoned")
	} else {
		log.Warn("Side effect retry failed")
	}

	if err := r.repo.MarkFailed(ctx, msg.ID, attempts, cause.Error(), next, dead); err != nil {
		r.logger.WithError(err).WithField("outbox_id", msg.ID.Hex()).Error("Failed to record outbox failure")
	}
}

// Replay moves every dead message back to pending.
func (r *OutboxRelay) Replay(ctx context.Context) (int64, error) {
	return r.repo.RequeueDead(ctx, r.now())
}

func (r *OutboxRelay) Stats(ctx context.Context) (map[models.OutboxStatus]int64, error) {
	return r.repo.CountByStatus(ctx)
}

func (r *OutboxRelay) List(ctx context.Context, status models.OutboxStatus, params *utils.PaginationParams) ([]*models.OutboxMessage, int64, error) {
	return r.repo.List(ctx, status, params)
}
