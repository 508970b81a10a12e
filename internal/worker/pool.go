package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlerts = "jobs:alerts"

	// DeadAlertsKey holds alert jobs that failed processing. Alerts are
	// best-effort, so a failed one is parked for manual replay (LMOVE back
	// onto jobs:alerts) instead of being retried automatically.
	DeadAlertsKey = "dead:alerts"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes one dequeued job payload. A returned error moves the job
// to the dead letter queue.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// LowStockAlertPayload is the job envelope for low-stock notifications.
type LowStockAlertPayload struct {
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// NotifyLowStock enqueues a low-stock alert. Best-effort: a full or downed
// Redis only loses the notification, never the stock operation.
func (d *Dispatcher) NotifyLowStock(ctx context.Context, sku, name string, stock int) {
	err := d.enqueue(ctx, QueueAlerts, "low_stock", LowStockAlertPayload{SKU: sku, Name: name, Stock: stock})
	if err != nil {
		log.Error().Err(err).Str("sku", sku).Msg("dispatcher: failed to enqueue low stock alert")
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers map[string]Handler) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, handlers)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, handlers map[string]Handler) {
	queues := []string{QueueAlerts}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, result[0], result[1], handlers)
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, queue, raw string, handlers map[string]Handler) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	handler, ok := handlers[job.Type]
	if !ok {
		parkDeadAlert(ctx, rdb, job, "no handler registered")
		return
	}
	if err := handler.Process(ctx, job.Payload); err != nil {
		parkDeadAlert(ctx, rdb, job, err.Error())
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("job processed")
}

// deadAlert keeps the original job intact so an operator can replay it as-is.
type deadAlert struct {
	Job      Job    `json:"job"`
	Reason   string `json:"reason"`
	FailedAt string `json:"failed_at"`
}

func parkDeadAlert(ctx context.Context, rdb *redis.Client, job Job, reason string) {
	data, err := json.Marshal(deadAlert{
		Job:      job,
		Reason:   reason,
		FailedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Error().Err(err).Str("type", job.Type).Msg("failed to marshal dead alert")
		return
	}
	if err := rdb.LPush(ctx, DeadAlertsKey, data).Err(); err != nil {
		log.Error().Err(err).Str("type", job.Type).Msg("failed to park dead alert")
		return
	}
	log.Warn().Str("type", job.Type).Str("reason", reason).Msg("alert parked for manual replay")
}

// DeadAlertCount reports the parked-alert backlog. The health endpoint exposes
// it so a growing backlog is visible without a Redis session.
func DeadAlertCount(ctx context.Context, rdb *redis.Client) (int64, error) {
	return rdb.LLen(ctx, DeadAlertsKey).Result()
}
