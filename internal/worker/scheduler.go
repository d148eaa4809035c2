package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dashqrcodes/dash-memories/internal/config"
	"github.com/dashqrcodes/dash-memories/internal/logging"
	"github.com/hibiken/asynq"
)

// StartScheduler creates and starts an Asynq Scheduler for periodic tasks.
// Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	// Periodic sweep for paid orders whose fulfillment enqueue was lost
	task := asynq.NewTask(
		TaskSweepFulfillment,
		nil, // Empty payload - handler queries pending orders
		asynq.MaxRetry(1),
		asynq.Timeout(2*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(10*time.Minute), // Prevent overlap if a sweep runs long
	)

	entryID, err := scheduler.Register("*/10 * * * *", task)
	if err != nil {
		return nil, fmt.Errorf("failed to register fulfillment sweep: %w", err)
	}

	// Start scheduler (non-blocking)
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	slog.Info(
		"Scheduler started",
		"schedule", "*/10 * * * *",
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}
