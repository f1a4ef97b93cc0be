package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
)

type receiptCleaner interface {
	CleanupOld(maxAge time.Duration) (int, error)
}

// ReceiptCleanupJob deletes PDF receipts older than the retention window.
type ReceiptCleanupJob struct {
	receipts receiptCleaner
	maxAge   time.Duration
	logg     *logger.Logger
}

func NewReceiptCleanupJob(receipts receiptCleaner, maxAge time.Duration, logg *logger.Logger) (*ReceiptCleanupJob, error) {
	if receipts == nil {
		return nil, fmt.Errorf("cron: receipts service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("cron: logger required")
	}
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return &ReceiptCleanupJob{receipts: receipts, maxAge: maxAge, logg: logg}, nil
}

func (j *ReceiptCleanupJob) Name() string { return "receipt_cleanup" }

func (j *ReceiptCleanupJob) Run(ctx context.Context) error {
	deleted, err := j.receipts.CleanupOld(j.maxAge)
	if err != nil {
		return fmt.Errorf("cleanup receipts: %w", err)
	}
	if deleted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "deleted", deleted), "old receipts removed")
	}
	return nil
}
