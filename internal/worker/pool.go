package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAudit       = "jobs:audit"
	QueueCloseReport = "jobs:close_report"
)

// Job is the generic envelope for all async tasks. Attempts counts prior
// failed runs; it is zero on first enqueue and carried forward by the DLQ
// redrive cron.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts,omitempty"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAudit pushes a structured audit event for async persistence and
// forwarding. The enqueue happens AFTER the originating write committed, so
// a queue failure can delay the trail but never roll back the operation.
func (d *Dispatcher) EnqueueAudit(ctx context.Context, payload AuditJobPayload) error {
	return d.enqueue(ctx, QueueAudit, "audit", payload)
}

// EnqueueCloseReport pushes a close-report job (PDF + email).
func (d *Dispatcher) EnqueueCloseReport(ctx context.Context, payload CloseReportJobPayload) error {
	return d.enqueue(ctx, QueueCloseReport, "close_report", payload)
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

// Handlers maps each queue to its processor. A processor returning an error
// sends the job to the dead letter queue — jobs are not retried in place.
type Handlers struct {
	Audit       *AuditWorker
	CloseReport *CloseReportWorker
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *Handlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *Handlers, id int) {
	queues := []string{QueueAudit, QueueCloseReport}
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
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var err error
	switch queue {
	case QueueAudit:
		err = handlers.Audit.Process(ctx, job.Payload)
	case QueueCloseReport:
		err = handlers.CloseReport.Process(ctx, job.Payload)
	default:
		log.Warn().Str("queue", queue).Msg("no handler for queue")
		return
	}

	if err != nil {
		log.Error().Str("queue", queue).Str("type", job.Type).Err(err).Msg("job failed")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts+1)
	}
}
