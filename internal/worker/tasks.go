package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskFinalizeVideo    = "video:finalize"
	TaskFulfillOrder     = "order:fulfill"
	TaskSweepFulfillment = "order:sweep"
)

// Package-level Asynq client (singleton)
var client *asynq.Client

// InitClient initializes the global Asynq client for task enqueueing.
// Must be called before any EnqueueX functions.
func InitClient(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}

	client = asynq.NewClient(opt)
	return nil
}

// CloseClient closes the Asynq client connection gracefully.
func CloseClient() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// EnqueueFinalizeVideo enqueues a video finalization task for the given
// slug and upload id. The worker polls the video host until the playback
// id is ready, with a 10-minute timeout to ride out long transcodes.
func EnqueueFinalizeVideo(slug, uploadID string) error {
	payload, err := json.Marshal(map[string]string{
		"slug":      slug,
		"upload_id": uploadID,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskFinalizeVideo,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	_, err = client.Enqueue(task)
	return err
}

// EnqueueFulfillOrder enqueues a fulfillment task for a paid order.
// Unique prevents double submission if verify is replayed quickly.
func EnqueueFulfillOrder(slug string) error {
	payload, err := json.Marshal(map[string]string{
		"slug": slug,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskFulfillOrder,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(10*time.Minute),
	)

	_, err = client.Enqueue(task)
	return err
}
