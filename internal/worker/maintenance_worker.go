package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// MaintenanceRunner is the slice of the booking service the worker needs.
type MaintenanceRunner interface {
	RunMaintenance(ctx context.Context) (int, error)
}

// MaintenanceWorker periodically expires overdue bookings so reserved
// capacity returns to the pool even when nobody closes them by hand.
type MaintenanceWorker struct {
	runner      MaintenanceRunner
	interval    time.Duration
	retryPolicy RetryPolicy
	logger      *zerolog.Logger
}

func NewMaintenanceWorker(runner MaintenanceRunner, interval time.Duration, retry RetryPolicy, logger *zerolog.Logger) *MaintenanceWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 3
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 5 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}

	return &MaintenanceWorker{
		runner:      runner,
		interval:    interval,
		retryPolicy: retry,
		logger:      logger,
	}
}

// Start launches main loop; stops when ctx is done. Первый прогон
// выполняется сразу, чтобы после рестарта не ждать целый интервал.
func (w *MaintenanceWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("maintenance worker started")
	defer w.logger.Info().Msg("maintenance worker stopped")

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *MaintenanceWorker) runOnce(ctx context.Context) {
	for attempt := 1; ; attempt++ {
		expired, err := w.runner.RunMaintenance(ctx)
		if err == nil {
			if expired > 0 {
				w.logger.Info().Int("expired", expired).Msg("overdue bookings expired")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if attempt > w.retryPolicy.MaxRetries {
			w.logger.Error().Err(err).Int("attempts", attempt).Msg("maintenance run failed, giving up until next tick")
			return
		}

		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("maintenance run failed, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}
