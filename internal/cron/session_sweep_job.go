package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
)

type sessionSweeper interface {
	CleanupInactive(maxAge time.Duration) int
}

// SessionSweepJob expires conversation sessions that went quiet, carts
// included.
type SessionSweepJob struct {
	store  sessionSweeper
	maxAge time.Duration
	logg   *logger.Logger
}

func NewSessionSweepJob(store sessionSweeper, maxAge time.Duration, logg *logger.Logger) (*SessionSweepJob, error) {
	if store == nil {
		return nil, fmt.Errorf("cron: session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("cron: logger required")
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &SessionSweepJob{store: store, maxAge: maxAge, logg: logg}, nil
}

func (j *SessionSweepJob) Name() string { return "session_sweep" }

func (j *SessionSweepJob) Run(ctx context.Context) error {
	swept := j.store.CleanupInactive(j.maxAge)
	if swept > 0 {
		j.logg.Info(j.logg.WithField(ctx, "swept", swept), "inactive sessions removed")
	}
	return nil
}
