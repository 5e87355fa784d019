package worker

// retry_cron.go
// Background goroutine that periodically redrives dead-lettered jobs back
// onto their source queue. Audit jobs are gated on the sink circuit breaker
// so a downed collector is not hammered with the same events every tick.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/infra"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10

	// MaxJobAttempts counts total runs including the first. Jobs past the
	// limit are parked for manual inspection instead of being redriven.
	MaxJobAttempts = 5

	parkedPrefix = "dlq:parked:"
)

// RetryCronConfig holds the dependencies of the redrive goroutine.
type RetryCronConfig struct {
	RDB    *redis.Client
	SinkCB *infra.CircuitBreaker
}

// StartRetryCron launches a background goroutine that ticks every 30s and
// redrives a small batch from each DLQ. It respects the context for
// graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				for _, queue := range []string{QueueAudit, QueueCloseReport} {
					redriveQueue(ctx, cfg, queue)
				}
			}
		}
	}()
}

func redriveQueue(ctx context.Context, cfg RetryCronConfig, queue string) {
	// Audit forwarding goes through the sink; while its breaker is open the
	// jobs would fail straight back into the DLQ.
	if queue == QueueAudit && cfg.SinkCB != nil && cfg.SinkCB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: sink circuit breaker is open, skipping audit redrive")
		return
	}

	for i := 0; i < retryBatchSize; i++ {
		raw, err := cfg.RDB.RPop(ctx, DLQPrefix+queue).Result()
		if err != nil {
			return // empty DLQ or redis unavailable
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("retry_cron: unreadable DLQ entry dropped")
			continue
		}

		if entry.Attempts >= MaxJobAttempts {
			if err := cfg.RDB.LPush(ctx, parkedPrefix+queue, raw).Err(); err != nil {
				log.Error().Err(err).Str("queue", queue).Msg("retry_cron: failed to park entry")
			}
			log.Error().
				Str("queue", queue).
				Str("job_type", entry.JobType).
				Int("attempts", entry.Attempts).
				Msg("retry_cron: max attempts exceeded, parked for manual inspection")
			continue
		}

		job := Job{Type: entry.JobType, Payload: entry.Payload, Attempts: entry.Attempts}
		encoded, err := json.Marshal(job)
		if err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("retry_cron: failed to marshal redriven job")
			continue
		}
		if err := cfg.RDB.LPush(ctx, queue, encoded).Err(); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("retry_cron: failed to requeue job")
			return
		}

		log.Info().
			Str("queue", queue).
			Str("job_type", entry.JobType).
			Int("attempts", entry.Attempts).
			Msg("retry_cron: job redriven")
	}
}
