package jobs

import (
	"context"
	"time"

	"pyramid_empire/internal/logger"
	"pyramid_empire/internal/metrics"

	"github.com/go-co-op/gocron/v2"
)

// PendingExpirer fails purchases stuck in pending; *repository.TransactionRepository implements it.
type PendingExpirer interface {
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExpirePending runs one sweep: purchases pending for longer than ttl are
// failed with reason Timeout so the buyer can submit the hash again.
func ExpirePending(ctx context.Context, txs PendingExpirer, ttl time.Duration, now time.Time) (int64, error) {
	n, err := txs.ExpirePending(ctx, now.Add(-ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.ExpiredTransactions.Add(float64(n))
		logger.Info("expired pending purchases", "count", n, "ttl", ttl.String())
	}
	return n, nil
}

// Start schedules the housekeeping jobs and starts the scheduler. Call
// Shutdown on the result when the server stops.
func Start(txs PendingExpirer, ttl, every time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := ExpirePending(ctx, txs, ttl, time.Now()); err != nil {
				logger.Error("expire pending purchases", "error", err)
			}
		}),
		gocron.WithName("expire-pending-transactions"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
