package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/repository"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/worker"
)

// TipEvaluation is the verdict on a proposed gratuity before the sale
// finalizes. Suggested is derived from the subtotal, never stored.
type TipEvaluation struct {
	Suggested      money.Money
	Final          money.Money
	Reduced        bool
	RequiresReason bool
}

// TipService evaluates proposed gratuities against the suggested percentage
// and records the justification whenever a tip was reduced. Evaluation is
// pure; Record writes at most once per sale and joins the caller's
// transaction when one is passed, so a justification commits with the sale
// it belongs to or not at all.
type TipService interface {
	Evaluate(subtotal, finalTip money.Money) (*TipEvaluation, error)
	RequireAdjustmentReason(subtotal, finalTip money.Money) bool
	Record(ctx context.Context, tx *gorm.DB, actorID, saleID uuid.UUID, suggested, final money.Money, reasonType string, comment *string) (*model.TipAdjustmentRecord, error)
	FindBySale(ctx context.Context, saleID uuid.UUID) (*model.TipAdjustmentRecord, error)
}

type tipService struct {
	repo           repository.TipRepository
	dispatcher     *worker.Dispatcher
	defaultPercent int64
	requireReason  bool
}

func NewTipService(repo repository.TipRepository, dispatcher *worker.Dispatcher, defaultPercent int64, requireReason bool) TipService {
	return &tipService{
		repo:           repo,
		dispatcher:     dispatcher,
		defaultPercent: defaultPercent,
		requireReason:  requireReason,
	}
}

// Suggested computes the default gratuity for a subtotal, rounded half-up
// to the centavo.
func (s *tipService) Suggested(subtotal money.Money) money.Money {
	return subtotal.MulRatio(s.defaultPercent, 100)
}

// ── Evaluate ──────────────────────────────────────────────────────────────────
// Pure: no reads, no writes. "Reduced" means strictly below the suggestion;
// matching or exceeding it never demands a justification.

func (s *tipService) Evaluate(subtotal, finalTip money.Money) (*TipEvaluation, error) {
	if subtotal.IsNegative() || finalTip.IsNegative() {
		return nil, ErrNegativeAmount
	}
	suggested := s.Suggested(subtotal)
	reduced := finalTip.Cmp(suggested) < 0
	return &TipEvaluation{
		Suggested:      suggested,
		Final:          finalTip,
		Reduced:        reduced,
		RequiresReason: reduced && s.requireReason,
	}, nil
}

func (s *tipService) RequireAdjustmentReason(subtotal, finalTip money.Money) bool {
	ev, err := s.Evaluate(subtotal, finalTip)
	if err != nil {
		return false
	}
	return ev.RequiresReason
}

// ── Record ────────────────────────────────────────────────────────────────────
// Writes the adjustment exactly once per sale; the unique index on sale_id
// turns a concurrent second write into ErrDuplicateAdjustment.

func (s *tipService) Record(ctx context.Context, tx *gorm.DB, actorID, saleID uuid.UUID, suggested, final money.Money, reasonType string, comment *string) (*model.TipAdjustmentRecord, error) {
	if suggested.IsNegative() || final.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if final.Cmp(suggested) >= 0 {
		return nil, ErrNotReduced
	}
	if !model.ValidReasonType(reasonType) {
		return nil, ErrInvalidReasonType
	}
	if reasonType == model.ReasonOther && (comment == nil || len(strings.TrimSpace(*comment)) < 5) {
		return nil, ErrReasonRequired
	}

	record := &model.TipAdjustmentRecord{
		SaleID:          saleID,
		SuggestedAmount: suggested,
		FinalAmount:     final,
		ReasonType:      reasonType,
		ReasonComment:   comment,
		ActorID:         actorID,
	}
	if err := s.repo.CreateAdjustment(ctx, tx, record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateAdjustment
		}
		return nil, err
	}

	reason := reasonType
	if comment != nil && *comment != "" {
		reason = reasonType + ": " + *comment
	}
	enqueueAudit(ctx, s.dispatcher, worker.AuditJobPayload{
		ActorID:   actorID,
		Action:    model.AuditTipAdjusted,
		SubjectID: saleID,
		Before:    stringPtr(suggested.String()),
		After:     stringPtr(final.String()),
		Reason:    &reason,
	})
	return record, nil
}

func (s *tipService) FindBySale(ctx context.Context, saleID uuid.UUID) (*model.TipAdjustmentRecord, error) {
	return s.repo.FindAdjustmentBySale(ctx, saleID)
}
