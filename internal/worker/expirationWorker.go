package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/service"
)

// Sweeper is the part of BookingService the worker needs.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type ExpirationWorker struct {
	sweeper  Sweeper
	clock    service.Clock
	interval time.Duration
}

func NewExpirationWorker(sweeper Sweeper, clock service.Clock, interval time.Duration) *ExpirationWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpirationWorker{
		sweeper:  sweeper,
		clock:    clock,
		interval: interval,
	}
}

// Start блокируется до отмены ctx. Первый проход выполняется сразу при старте.
func (w *ExpirationWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval.String()).Info("Expiration worker started")

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Expiration worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep выполняет один проход; ошибки только логируются, следующий тик повторит попытку
func (w *ExpirationWorker) sweep(ctx context.Context) {
	count, err := w.sweeper.SweepExpired(ctx, w.clock.Now())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logrus.Errorf("Failed to sweep expired bookings: %v", err)
		return
	}

	if count > 0 {
		logrus.Infof("Expiration sweep completed: %d bookings expired", count)
	} else {
		logrus.Debug("No stale bookings found")
	}
}
