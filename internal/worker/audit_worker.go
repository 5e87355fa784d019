package worker

// audit_worker.go
// Processes audit jobs from QueueAudit. Every event is persisted to the
// local audit_events table; when an external collector is configured it is
// also forwarded there through the circuit breaker. Local persistence and
// forwarding are independent: a collector outage never loses the local row.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/infra"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/repository"
)

// AuditJobPayload is the job envelope sent to QueueAudit.
type AuditJobPayload struct {
	ActorID   uuid.UUID `json:"actor_id"`
	Action    string    `json:"action"`
	SubjectID uuid.UUID `json:"subject_id"`
	Before    *string   `json:"before,omitempty"`
	After     *string   `json:"after,omitempty"`
	Reason    *string   `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditWorker persists and forwards audit events.
type AuditWorker struct {
	repo repository.AuditRepository
	sink *infra.AuditSinkClient
	cb   *infra.CircuitBreaker
}

func NewAuditWorker(repo repository.AuditRepository, sink *infra.AuditSinkClient, cb *infra.CircuitBreaker) *AuditWorker {
	return &AuditWorker{repo: repo, sink: sink, cb: cb}
}

func (w *AuditWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload AuditJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("audit_worker: invalid payload: %w", err)
	}

	event := &model.AuditEvent{
		ActorID:   payload.ActorID,
		Action:    payload.Action,
		SubjectID: payload.SubjectID,
		Before:    payload.Before,
		After:     payload.After,
		Reason:    payload.Reason,
		CreatedAt: payload.Timestamp,
	}
	if err := w.repo.Create(ctx, event); err != nil {
		return fmt.Errorf("audit_worker: persist event: %w", err)
	}

	if w.sink == nil || !w.sink.Enabled() {
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.sink.Send(ctx, infra.AuditSinkPayload{
			Actor:     payload.ActorID.String(),
			Action:    payload.Action,
			Subject:   payload.SubjectID.String(),
			Before:    payload.Before,
			After:     payload.After,
			Reason:    payload.Reason,
			Timestamp: payload.Timestamp.UTC().Format(time.RFC3339),
		})
	})
	if errors.Is(err, infra.ErrCircuitOpen) {
		// Local row is already durable; skip forwarding while the collector
		// is down rather than churning the DLQ.
		log.Warn().Str("action", payload.Action).Msg("audit_worker: sink circuit open, forward skipped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("audit_worker: forward to sink: %w", err)
	}
	return nil
}
