package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/repository"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/worker"
)

// Participant is one staff member entering a distribution. Weight carries
// the policy's input: worked minutes for by_hours, percent for manual,
// ignored for equal. Order matters — the equal policy gives the whole
// remainder to the first participant.
type Participant struct {
	EmployeeID uuid.UUID
	Name       string
	Weight     int64
}

// Share is one computed allocation. The slice of shares always sums exactly
// to the distributed total; Compute fails rather than persist a drifted sum.
type Share struct {
	EmployeeID uuid.UUID
	Amount     money.Money
	Weight     int64
}

// minShiftMinutes floors very short or still-open shifts so a by-hours
// participant never carries zero weight.
const minShiftMinutes = 60

// DistributionService allocates a sale's collected tip across staff and
// tracks each share from pending to paid. Computation is pure; persistence
// is idempotent per sale.
type DistributionService interface {
	EligibleStaff(ctx context.Context, businessDate string, now time.Time) ([]Participant, error)
	Compute(total money.Money, policy string, participants []Participant) ([]Share, error)
	Persist(ctx context.Context, actorID, saleID uuid.UUID, total money.Money, policy string, shares []Share) (*model.TipDistribution, error)
	Correct(ctx context.Context, actorID, saleID uuid.UUID, total money.Money, policy string, participants []Participant) (*model.TipDistribution, error)
	MarkPaid(ctx context.Context, payoutID uuid.UUID) error
	FindBySale(ctx context.Context, saleID uuid.UUID) (*model.TipDistribution, error)
	ListPendingPayouts(ctx context.Context) ([]model.TipPayout, error)
}

type distributionService struct {
	repo       repository.TipRepository
	shiftRepo  repository.ShiftRepository
	dispatcher *worker.Dispatcher
}

func NewDistributionService(repo repository.TipRepository, shiftRepo repository.ShiftRepository, dispatcher *worker.Dispatcher) DistributionService {
	return &distributionService{repo: repo, shiftRepo: shiftRepo, dispatcher: dispatcher}
}

// ── EligibleStaff ─────────────────────────────────────────────────────────────
// Everyone with a shift on the business date, in first-clock-in order.
// Open-ended shifts count partial time up to now; split shifts (two
// clock-ins on one date) merge into one participant with summed minutes.

func (s *distributionService) EligibleStaff(ctx context.Context, businessDate string, now time.Time) ([]Participant, error) {
	shifts, err := s.shiftRepo.ListByDate(ctx, businessDate)
	if err != nil {
		return nil, err
	}
	participants := make([]Participant, 0, len(shifts))
	seen := make(map[uuid.UUID]int, len(shifts))
	for i := range shifts {
		sh := &shifts[i]
		if idx, ok := seen[sh.EmployeeID]; ok {
			participants[idx].Weight += sh.WorkedMinutes(now)
			continue
		}
		p := Participant{EmployeeID: sh.EmployeeID, Weight: sh.WorkedMinutes(now)}
		if sh.Employee != nil {
			p.Name = sh.Employee.Name
		}
		seen[sh.EmployeeID] = len(participants)
		participants = append(participants, p)
	}
	return participants, nil
}

// ── Compute ───────────────────────────────────────────────────────────────────
// Pure. Every policy must return shares summing EXACTLY to total; any drift
// is a defect surfaced as ErrReconciliation, never silently absorbed.

func (s *distributionService) Compute(total money.Money, policy string, participants []Participant) ([]Share, error) {
	if total.Cmp(money.Zero) <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	var (
		shares []Share
		err    error
	)
	switch policy {
	case model.PolicyEqual:
		shares = computeEqual(total, participants)
	case model.PolicyByHours:
		shares = computeByHours(total, participants)
	case model.PolicyManual:
		shares, err = computeManual(total, participants)
	default:
		return nil, errors.New("unknown distribution policy: " + policy)
	}
	if err != nil {
		return nil, err
	}

	var sum money.Money
	for _, sh := range shares {
		sum = sum.Add(sh.Amount)
	}
	if sum != total {
		log.Error().
			Str("policy", policy).
			Str("total", total.String()).
			Str("allocated", sum.String()).
			Msg("distribution does not reconcile")
		return nil, ErrReconciliation
	}
	return shares, nil
}

// computeEqual splits into whole-centavo shares; the indivisible remainder
// goes to the first participant, so 100.00 across three people yields
// 33.34 / 33.33 / 33.33.
func computeEqual(total money.Money, participants []Participant) []Share {
	n := int64(len(participants))
	base, remainder := total.DivMod(n)
	shares := make([]Share, len(participants))
	for i, p := range participants {
		amount := base
		if i == 0 {
			amount = amount.Add(remainder)
		}
		shares[i] = Share{EmployeeID: p.EmployeeID, Amount: amount}
	}
	return shares
}

// computeByHours weights shares by minutes worked, flooring each shift to
// minShiftMinutes. Each share rounds half-up; any residual centavos land on
// the largest weight so the sum stays exact.
func computeByHours(total money.Money, participants []Participant) []Share {
	weights := make([]int64, len(participants))
	var sumWeights int64
	for i, p := range participants {
		w := p.Weight
		if w < minShiftMinutes {
			w = minShiftMinutes
		}
		weights[i] = w
		sumWeights += w
	}
	return weightedShares(total, participants, weights, sumWeights)
}

// computeManual distributes by explicit percentages. The percentages are
// normalized by their own sum, so 60/30/5 allocates the full total even
// though it reads as 95%.
func computeManual(total money.Money, participants []Participant) ([]Share, error) {
	weights := make([]int64, len(participants))
	var sumWeights int64
	for i, p := range participants {
		if p.Weight < 0 {
			return nil, ErrNegativeAmount
		}
		weights[i] = p.Weight
		sumWeights += p.Weight
	}
	if sumWeights == 0 {
		return nil, ErrNoAllocation
	}
	return weightedShares(total, participants, weights, sumWeights), nil
}

func weightedShares(total money.Money, participants []Participant, weights []int64, sumWeights int64) []Share {
	shares := make([]Share, len(participants))
	var allocated money.Money
	largest := 0
	for i, p := range participants {
		amount := total.MulRatio(weights[i], sumWeights)
		shares[i] = Share{EmployeeID: p.EmployeeID, Amount: amount, Weight: weights[i]}
		allocated = allocated.Add(amount)
		if weights[i] > weights[largest] {
			largest = i
		}
	}
	// Per-share rounding can drift by a few centavos either way; pin the
	// difference on the largest weight.
	shares[largest].Amount = shares[largest].Amount.Add(total.Sub(allocated))
	return shares
}

// ── Persist ───────────────────────────────────────────────────────────────────
// At most one live distribution per sale. A duplicate persist (client retry)
// returns the existing distribution as success rather than failing the
// retry; the partial unique index arbitrates concurrent racers.

func (s *distributionService) Persist(ctx context.Context, actorID, saleID uuid.UUID, total money.Money, policy string, shares []Share) (*model.TipDistribution, error) {
	dist := &model.TipDistribution{
		ID:             uuid.New(),
		SaleID:         saleID,
		TotalTipAmount: total,
		Policy:         policy,
		CreatedBy:      actorID,
	}
	for _, sh := range shares {
		dist.Payouts = append(dist.Payouts, model.TipPayout{
			EmployeeID: sh.EmployeeID,
			Amount:     sh.Amount,
			WeightUsed: sh.Weight,
			Status:     model.PayoutPending,
		})
	}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.CreateDistribution(ctx, tx, dist)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return s.repo.FindLiveDistributionBySale(ctx, saleID)
	}
	if err != nil {
		return nil, err
	}

	enqueueAudit(ctx, s.dispatcher, worker.AuditJobPayload{
		ActorID:   actorID,
		Action:    model.AuditDistributionCreated,
		SubjectID: dist.ID,
		After:     stringPtr(total.String()),
	})
	return dist, nil
}

// ── Correct ───────────────────────────────────────────────────────────────────
// Replaces the live distribution with a recomputed one. The old record stays
// in place, marked superseded; corrections are blocked once any share has
// been paid out.

func (s *distributionService) Correct(ctx context.Context, actorID, saleID uuid.UUID, total money.Money, policy string, participants []Participant) (*model.TipDistribution, error) {
	shares, err := s.Compute(total, policy, participants)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.FindLiveDistributionBySale(ctx, saleID)
	if err != nil {
		return nil, ErrDistributionNotFound
	}
	for _, p := range current.Payouts {
		if p.Status == model.PayoutPaid {
			return nil, ErrPayoutAlreadyPaid
		}
	}

	replacement := &model.TipDistribution{
		ID:             uuid.New(),
		SaleID:         saleID,
		TotalTipAmount: total,
		Policy:         policy,
		CreatedBy:      actorID,
	}
	for _, sh := range shares {
		replacement.Payouts = append(replacement.Payouts, model.TipPayout{
			EmployeeID: sh.EmployeeID,
			Amount:     sh.Amount,
			WeightUsed: sh.Weight,
			Status:     model.PayoutPending,
		})
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		rows, err := s.repo.Supersede(ctx, tx, current.ID, replacement.ID)
		if err != nil {
			return err
		}
		if rows == 0 {
			// Someone else corrected first.
			return ErrDuplicateDistribution
		}
		return s.repo.CreateDistribution(ctx, tx, replacement)
	})
	if txErr != nil {
		return nil, txErr
	}

	enqueueAudit(ctx, s.dispatcher, worker.AuditJobPayload{
		ActorID:   actorID,
		Action:    model.AuditDistributionCreated,
		SubjectID: replacement.ID,
		Before:    stringPtr(current.ID.String()),
		After:     stringPtr(total.String()),
		Reason:    stringPtr("correction"),
	})
	return replacement, nil
}

// ── MarkPaid ──────────────────────────────────────────────────────────────────

func (s *distributionService) MarkPaid(ctx context.Context, payoutID uuid.UUID) error {
	rows, err := s.repo.MarkPaid(ctx, payoutID)
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}
	if _, err := s.repo.FindPayout(ctx, payoutID); err != nil {
		return ErrPayoutNotFound
	}
	return ErrPayoutAlreadyPaid
}

func (s *distributionService) FindBySale(ctx context.Context, saleID uuid.UUID) (*model.TipDistribution, error) {
	dist, err := s.repo.FindLiveDistributionBySale(ctx, saleID)
	if err != nil {
		return nil, ErrDistributionNotFound
	}
	return dist, nil
}

func (s *distributionService) ListPendingPayouts(ctx context.Context) ([]model.TipPayout, error) {
	return s.repo.ListPendingPayouts(ctx)
}
