package services

import (
	"context"
	"time"

	"fooddash/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// WorkerIntervals sets how often each background loop runs. A zero interval
// disables that loop.
type WorkerIntervals struct {
	LoyaltyExpiry     time.Duration
	NotificationPurge time.Duration
	Outbox            time.Duration
}

// BackgroundWorker runs the periodic maintenance loops: loyalty point expiry,
// expired notification purge and the outbox relay.
type BackgroundWorker struct {
	loyalty       LoyaltyService
	notifications NotificationService
	relay         *OutboxRelay
	intervals     WorkerIntervals
	logger        *logger.Logger
}

func NewBackgroundWorker(loyalty LoyaltyService, notifications NotificationService, relay *OutboxRelay, intervals WorkerIntervals, log *logger.Logger) *BackgroundWorker {
	if log == nil {
		log = logger.NewNop()
	}
	return &BackgroundWorker{
		loyalty:       loyalty,
		notifications: notifications,
		relay:         relay,
		intervals:     intervals,
		logger:        log,
	}
}

// Run blocks until ctx is cancelled.
func (w *BackgroundWorker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if w.loyalty != nil && w.intervals.LoyaltyExpiry > 0 {
		g.Go(func() error {
			return tick(gctx, w.intervals.LoyaltyExpiry, func(ctx context.Context) {
				if _, err := w.ExpireLoyalty(ctx); err != nil {
					w.logger.WithError(err).Warn("Loyalty expiry sweep failed")
				}
			})
		})
	}
	if w.notifications != nil && w.intervals.NotificationPurge > 0 {
		g.Go(func() error {
			return tick(gctx, w.intervals.NotificationPurge, func(ctx context.Context) {
				if _, err := w.notifications.PurgeExpired(ctx); err != nil {
					w.logger.WithError(err).Warn("Notification purge failed")
				}
			})
		})
	}
	if w.relay != nil && w.intervals.Outbox > 0 {
		g.Go(func() error {
			return w.relay.Run(gctx, w.intervals.Outbox)
		})
	}

	w.logger.Info("Background worker started")
	err := g.Wait()
	w.logger.Info("Background worker stopped")
	return err
}

// ExpireLoyalty runs one expiry sweep. Admin endpoints call it directly.
func (w *BackgroundWorker) ExpireLoyalty(ctx context.Context) (int, error) {
	expired, err := w.loyalty.ExpirePoints(ctx, time.Now())
	if err != nil {
		return expired, err
	}
	if expired > 0 {
		w.logger.WithField("count", expired).Info("Expired loyalty transactions")
	}
	return expired, nil
}

func tick(ctx context.Context, interval time.Duration, fn func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}
