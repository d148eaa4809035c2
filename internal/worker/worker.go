package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dashqrcodes/dash-memories/internal/config"
	"github.com/dashqrcodes/dash-memories/internal/drafts"
	"github.com/dashqrcodes/dash-memories/internal/fulfillment"
	"github.com/dashqrcodes/dash-memories/internal/logging"
	"github.com/dashqrcodes/dash-memories/internal/models"
	"github.com/dashqrcodes/dash-memories/internal/streams"
	"github.com/dashqrcodes/dash-memories/internal/video"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// pollInterval is how often finalization re-checks the video host
const pollInterval = 2 * time.Second

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

// Implement asynq.Logger interface methods
func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Run starts the Asynq worker server and blocks until shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, db *gorm.DB, muxClient *video.MuxClient, printShop *fulfillment.Client, publisher *streams.Publisher) error {
	srv, mux, err := newServer(cfg, db, muxClient, printShop, publisher)
	if err != nil {
		return err
	}

	// Run blocks and handles its own signal interception
	return srv.Run(mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
// Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, db *gorm.DB, muxClient *video.MuxClient, printShop *fulfillment.Client, publisher *streams.Publisher) (stop func(), err error) {
	srv, mux, err := newServer(cfg, db, muxClient, printShop, publisher)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, db *gorm.DB, muxClient *video.MuxClient, printShop *fulfillment.Client, publisher *streams.Publisher) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	store := drafts.NewStore(db)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskFinalizeVideo, handleFinalizeVideo(logger, store, muxClient))
	mux.HandleFunc(TaskFulfillOrder, handleFulfillOrder(logger, db, store, printShop, publisher, cfg.PublicBaseURL))
	mux.HandleFunc(TaskSweepFulfillment, handleSweepFulfillment(logger, db))

	logger.Info("Worker starting", "concurrency", 5, "redis", cfg.RedisURL)
	return srv, mux, nil
}

// handleFinalizeVideo polls the video host until the uploaded video has a
// public playback id, then writes it onto the draft. The draft's temporary
// URL stays in place; resolution prefers the playback id from then on.
func handleFinalizeVideo(logger *slog.Logger, store *drafts.Store, muxClient *video.MuxClient) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload struct {
			Slug     string `json:"slug"`
			UploadID string `json:"upload_id"`
		}
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		if _, err := store.Get(ctx, payload.Slug); err != nil {
			if errors.Is(err, drafts.ErrNotFound) {
				logger.Error("Draft not found", "slug", payload.Slug)
				return fmt.Errorf("draft not found: %w", asynq.SkipRetry)
			}
			// Database error - retryable
			return fmt.Errorf("failed to fetch draft: %w", err)
		}

		logger.Info(
			"Processing video:finalize task",
			"slug", payload.Slug,
			"upload_id", payload.UploadID,
		)

		// Wait for the upload to produce an asset
		assetID, err := pollUntilReady(ctx, func() (string, error) {
			return muxClient.GetUploadAssetID(ctx, payload.UploadID)
		})
		if err != nil {
			return fmt.Errorf("waiting for asset id: %w", err)
		}

		// Wait for the asset to finish transcoding
		playbackID, err := pollUntilReady(ctx, func() (string, error) {
			return muxClient.GetAssetPlaybackID(ctx, assetID)
		})
		if err != nil {
			return fmt.Errorf("waiting for playback id: %w", err)
		}

		if _, err := store.Upsert(ctx, payload.Slug, drafts.Fields{VideoPlaybackID: &playbackID}); err != nil {
			return fmt.Errorf("failed to save playback id: %w", err)
		}

		logger.Info(
			"Video finalization completed",
			"slug", payload.Slug,
			"playback_id", playbackID,
		)

		return nil
	}
}

// pollUntilReady calls fn every pollInterval until it returns a non-empty
// value, the provider errors, or the task context expires
func pollUntilReady(ctx context.Context, fn func() (string, error)) (string, error) {
	for {
		value, err := fn()
		if err != nil {
			return "", err
		}
		if value != "" {
			return value, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// handleFulfillOrder submits a paid order to the print shop and announces
// it on the order event stream.
func handleFulfillOrder(logger *slog.Logger, db *gorm.DB, store *drafts.Store, printShop *fulfillment.Client, publisher *streams.Publisher, publicBaseURL string) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload struct {
			Slug string `json:"slug"`
		}
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		var order models.Order
		if err := db.WithContext(ctx).Where("slug = ?", payload.Slug).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("Order not found", "slug", payload.Slug)
				return fmt.Errorf("order not found: %w", asynq.SkipRetry)
			}
			return fmt.Errorf("failed to fetch order: %w", err)
		}

		// Already handed off; nothing to do
		if order.FulfillmentStatus != models.FulfillmentStatusPending {
			logger.Info("Order already submitted, skipping", "slug", payload.Slug, "status", order.FulfillmentStatus)
			return nil
		}

		draft, err := store.Get(ctx, payload.Slug)
		if err != nil {
			return fmt.Errorf("failed to fetch draft: %w", err)
		}

		logger.Info(
			"Processing order:fulfill task",
			"slug", payload.Slug,
			"product", order.ProductName,
		)

		sub := fulfillment.OrderSubmission{
			Slug:        payload.Slug,
			ProductName: order.ProductName,
			MemorialURL: publicBaseURL + "/memories/" + payload.Slug,
			AmountCents: order.AmountCents,
			Currency:    order.Currency,
		}
		if draft.FullName != nil {
			sub.FullName = *draft.FullName
		}
		if draft.MockupURL != nil {
			sub.MockupURL = *draft.MockupURL
		}

		receipt, err := printShop.SubmitOrder(ctx, sub)
		if err != nil {
			db.WithContext(ctx).Model(&order).Updates(map[string]interface{}{
				"fulfillment_status": models.FulfillmentStatusFailed,
				"error_message":      err.Error(),
			})
			logger.Error(
				"Print shop submission failed",
				"slug", payload.Slug,
				"error", err.Error(),
			)
			return fmt.Errorf("print shop submission failed: %w", err)
		}

		now := time.Now()
		if err := db.WithContext(ctx).Model(&order).Updates(map[string]interface{}{
			"fulfillment_status": models.FulfillmentStatusSent,
			"submitted_at":       now,
			"error_message":      "",
		}).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		// Graceful degradation: the stream is an optional mirror for the
		// partner bridge, not the hand-off itself
		if publisher == nil {
			logger.Warn("Streams publisher not configured, skipping order event", "slug", payload.Slug)
			return nil
		}

		msgID, err := publisher.PublishOrderEvent(ctx, streams.OrderEvent{
			Slug:        payload.Slug,
			ProductName: order.ProductName,
			MockupURL:   sub.MockupURL,
			AmountCents: order.AmountCents,
			Currency:    order.Currency,
		})
		if err != nil {
			logger.Error("Failed to publish order event", "slug", payload.Slug, "error", err.Error())
			// Submission already succeeded; don't fail the task over the mirror
			return nil
		}

		logger.Info(
			"Order fulfillment completed",
			"slug", payload.Slug,
			"reference", receipt.Reference,
			"stream_msg_id", msgID,
		)

		return nil
	}
}

// handleSweepFulfillment re-enqueues fulfillment for paid orders that are
// still pending, catching orders whose enqueue failed at verify time.
func handleSweepFulfillment(logger *slog.Logger, db *gorm.DB) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		cutoff := time.Now().Add(-10 * time.Minute)

		var orders []models.Order
		if err := db.WithContext(ctx).
			Where("fulfillment_status = ? AND updated_at < ?", models.FulfillmentStatusPending, cutoff).
			Limit(100).
			Find(&orders).Error; err != nil {
			return fmt.Errorf("failed to list pending orders: %w", err)
		}

		for _, order := range orders {
			// Only orders whose draft actually reached paid
			var draft models.Draft
			if err := db.WithContext(ctx).Where("slug = ?", order.Slug).First(&draft).Error; err != nil {
				continue
			}
			if draft.Status != models.DraftStatusPaid {
				continue
			}

			if err := EnqueueFulfillOrder(order.Slug); err != nil {
				logger.Error("Failed to re-enqueue fulfillment", "slug", order.Slug, "error", err.Error())
				continue
			}
			logger.Info("Re-enqueued stuck fulfillment", "slug", order.Slug)
		}

		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		// Check if this is the final failure (task will move to dead letter queue)
		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
