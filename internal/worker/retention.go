package worker

import (
	"context"
	"time"

	"github.com/hospitalops/etrack-api/internal/repository"
	"github.com/hospitalops/etrack-api/pkg/logger"
)

// Retention prunes processed outbox rows and old audit entries on a
// fixed cadence so both tables stay bounded.
type Retention struct {
	outboxRepo repository.OutboxRepository
	auditRepo  repository.AuditRepository
	logger     *logger.Logger

	interval    time.Duration
	outboxKeep  time.Duration
	auditKeep   time.Duration
}

func NewRetention(outboxRepo repository.OutboxRepository, auditRepo repository.AuditRepository, logger *logger.Logger, interval, outboxKeep, auditKeep time.Duration) *Retention {
	return &Retention{
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		logger:     logger,
		interval:   interval,
		outboxKeep: outboxKeep,
		auditKeep:  auditKeep,
	}
}

func (r *Retention) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.prune(ctx)
		}
	}
}

func (r *Retention) prune(ctx context.Context) {
	now := time.Now()

	if n, err := r.outboxRepo.DeleteProcessedBefore(ctx, now.Add(-r.outboxKeep)); err != nil {
		r.logger.Error(err, "Failed to prune outbox")
	} else if n > 0 {
		r.logger.Info("Pruned processed outbox events", "count", n)
	}

	if n, err := r.auditRepo.DeleteBefore(ctx, now.Add(-r.auditKeep)); err != nil {
		r.logger.Error(err, "Failed to prune audit logs")
	} else if n > 0 {
		r.logger.Info("Pruned audit logs", "count", n)
	}
}
