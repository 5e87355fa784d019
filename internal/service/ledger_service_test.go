package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/repository"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/service"
)

// ── Full in-memory SessionRepository ─────────────────────────────────────────

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*model.CashSession
	entries  []model.LedgerEntry
	edits    []model.OpeningBalanceEdit
	nextSeq  int64
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*model.CashSession)}
}

func (r *fakeSessionRepo) DB() *gorm.DB { return nil }

func (r *fakeSessionRepo) Create(_ context.Context, s *model.CashSession) error {
	for _, existing := range r.sessions {
		if existing.Till == s.Till && existing.BusinessDate == s.BusinessDate && existing.Status == model.SessionOpen {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) FindOpen(_ context.Context, till int, date string) (*model.CashSession, error) {
	for _, s := range r.sessions {
		if s.Till == till && s.BusinessDate == date && s.Status == model.SessionOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) SetOpeningBalance(_ context.Context, id uuid.UUID, amount money.Money) (int64, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionOpen || s.OpeningBalanceSet {
		return 0, nil
	}
	s.OpeningBalance = amount
	s.OpeningBalanceSet = true
	return 1, nil
}

func (r *fakeSessionRepo) UpdateOpeningBalance(_ context.Context, _ *gorm.DB, id uuid.UUID, amount money.Money) (int64, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionOpen || !s.OpeningBalanceSet {
		return 0, nil
	}
	s.OpeningBalance = amount
	return 1, nil
}

func (r *fakeSessionRepo) CreateOpeningEdit(_ context.Context, _ *gorm.DB, e *model.OpeningBalanceEdit) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	r.edits = append(r.edits, *e)
	return nil
}

func (r *fakeSessionRepo) ListOpeningEdits(_ context.Context, sessionID uuid.UUID) ([]model.OpeningBalanceEdit, error) {
	var result []model.OpeningBalanceEdit
	for _, e := range r.edits {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeSessionRepo) FindForUpdate(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeSessionRepo) CreateEntry(_ context.Context, _ *gorm.DB, e *model.LedgerEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.nextSeq++
	e.Seq = r.nextSeq
	e.CreatedAt = time.Now()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeSessionRepo) ListEntries(_ context.Context, sessionID uuid.UUID) ([]model.LedgerEntry, error) {
	var result []model.LedgerEntry
	for _, e := range r.entries {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeSessionRepo) SumEntriesByKind(_ context.Context, _ *gorm.DB, sessionID uuid.UUID) (map[string]money.Money, error) {
	sums := make(map[string]money.Money)
	for _, e := range r.entries {
		if e.SessionID == sessionID {
			sums[e.Kind] = sums[e.Kind].Add(e.Amount)
		}
	}
	return sums, nil
}

func (r *fakeSessionRepo) Close(_ context.Context, _ *gorm.DB, id uuid.UUID, counted, variance money.Money, closedBy uuid.UUID, at time.Time) (int64, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionOpen || !s.OpeningBalanceSet {
		return 0, nil
	}
	s.Status = model.SessionClosed
	s.CountedCash = &counted
	s.Variance = &variance
	s.ClosedBy = &closedBy
	s.ClosedAt = &at
	return 1, nil
}

func (r *fakeSessionRepo) ListClosed(_ context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var all []model.CashSession
	for _, s := range r.sessions {
		if s.Status == model.SessionClosed {
			all = append(all, *s)
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

var _ repository.SessionRepository = (*fakeSessionRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

func openSession(t *testing.T, svc service.LedgerService, till int, date string) *model.CashSession {
	t.Helper()
	session, err := svc.OpenOrGet(context.Background(), uuid.New(), till, date)
	require.NoError(t, err)
	return session
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestOpenOrGetIdempotent(t *testing.T) {
	svc := service.NewLedgerService(newFakeSessionRepo(), nil)

	first := openSession(t, svc, 1, "2026-03-14")
	second := openSession(t, svc, 1, "2026-03-14")
	assert.Equal(t, first.ID, second.ID)

	otherTill := openSession(t, svc, 2, "2026-03-14")
	assert.NotEqual(t, first.ID, otherTill.ID)
}

func TestSetOpeningBalanceOnce(t *testing.T) {
	svc := service.NewLedgerService(newFakeSessionRepo(), nil)
	session := openSession(t, svc, 1, "2026-03-14")
	ctx := context.Background()

	require.NoError(t, svc.SetOpeningBalance(ctx, session.ID, money.Money(50_00)))

	err := svc.SetOpeningBalance(ctx, session.ID, money.Money(80_00))
	assert.ErrorIs(t, err, service.ErrOpeningAlreadySet)

	// Losing the race never overwrites the first value.
	report, err := svc.Report(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(50_00), report.Session.OpeningBalance)
}

func TestSetOpeningBalanceValidation(t *testing.T) {
	svc := service.NewLedgerService(newFakeSessionRepo(), nil)
	session := openSession(t, svc, 1, "2026-03-14")
	ctx := context.Background()

	err := svc.SetOpeningBalance(ctx, session.ID, money.Money(-1))
	assert.ErrorIs(t, err, service.ErrNegativeAmount)

	err = svc.SetOpeningBalance(ctx, uuid.New(), money.Money(10_00))
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestEditOpeningBalance(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := service.NewLedgerService(repo, nil)
	session := openSession(t, svc, 1, "2026-03-14")
	ctx := context.Background()
	actor := uuid.New()

	// Edit before set is rejected.
	err := svc.EditOpeningBalance(ctx, actor, session.ID, money.Money(75_00), "recount after delivery")
	assert.ErrorIs(t, err, service.ErrOpeningNotSet)

	require.NoError(t, svc.SetOpeningBalance(ctx, session.ID, money.Money(50_00)))

	// Reason shorter than 5 characters is rejected.
	err = svc.EditOpeningBalance(ctx, actor, session.ID, money.Money(75_00), "typo")
	assert.ErrorIs(t, err, service.ErrReasonRequired)

	require.NoError(t, svc.EditOpeningBalance(ctx, actor, session.ID, money.Money(75_00), "recount after delivery"))

	report, err := svc.Report(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(75_00), report.Session.OpeningBalance)
	require.Len(t, report.Edits, 1)
	assert.Equal(t, money.Money(50_00), report.Edits[0].OldAmount)
	assert.Equal(t, money.Money(75_00), report.Edits[0].NewAmount)
	assert.Equal(t, "recount after delivery", report.Edits[0].Reason)
	assert.Equal(t, actor, report.Edits[0].ActorID)
}

func TestRecordEntryFoldsBalance(t *testing.T) {
	svc := service.NewLedgerService(newFakeSessionRepo(), nil)
	session := openSession(t, svc, 1, "2026-03-14")
	ctx := context.Background()
	actor := uuid.New()

	require.NoError(t, svc.SetOpeningBalance(ctx, session.ID, money.Money(100_00)))

	balance, err := svc.RecordEntry(ctx, actor, session.ID, model.EntryManualDeposit, money.Money(30_00), "change from safe")
	require.NoError(t, err)
	assert.Equal(t, money.Money(130_00), balance)

	balance, err = svc.RecordEntry(ctx, actor, session.ID, model.EntryManualWithdrawal, money.Money(20_00), "bank drop")
	require.NoError(t, err)
	assert.Equal(t, money.Money(110_00), balance)

	balance, err = svc.RecordEntry(ctx, actor, session.ID, model.EntryCashExpense, money.Money(5_50), "cleaning supplies")
	require.NoError(t, err)
	assert.Equal(t, money.Money(104_50), balance)
}

func TestRecordEntryValidation(t *testing.T) {
	svc := service.NewLedgerService(newFakeSessionRepo(), nil)
	session := openSession(t, svc, 1, "2026-03-14")
	ctx := context.Background()
	actor := uuid.New()

	_, err := svc.RecordEntry(ctx, actor, session.ID, "reversal", money.Money(10_00), "x")
	assert.ErrorIs(t, err, service.ErrInvalidEntryKind)

	_, err = svc.RecordEntry(ctx, actor, session.ID, model.EntryManualDeposit, money.Money(0), "zero")
	assert.ErrorIs(t, err, service.ErrNonPositiveAmount)

	_, err = svc.RecordEntry(ctx, actor, session.ID, model.EntryManualDeposit, money.Money(-5_00), "negative")
	assert.ErrorIs(t, err, service.ErrNonPositiveAmount)
}

func TestCloseComputesVariance(t *testing.T) {
	svc := service.NewLedgerService(newFakeSessionRepo(), nil)
	session := openSession(t, svc, 1, "2026-03-14")
	ctx := context.Background()
	actor := uuid.New()

	require.NoError(t, svc.SetOpeningBalance(ctx, session.ID, money.Money(100_00)))
	_, err := svc.RecordEntry(ctx, actor, session.ID, model.EntryManualDeposit, money.Money(50_00), "deposit")
	require.NoError(t, err)

	// Counted below expected: shortage.
	result, err := svc.Close(ctx, session.ID, money.Money(140_00), actor)
	require.NoError(t, err)
	assert.Equal(t, money.Money(150_00), result.ExpectedCash)
	assert.Equal(t, money.Money(-10_00), result.Variance)
}

func TestCloseExactlyOnce(t *testing.T) {
	svc := service.NewLedgerService(newFakeSessionRepo(), nil)
	session := openSession(t, svc, 1, "2026-03-14")
	ctx := context.Background()
	actor := uuid.New()

	// Cannot close before the opening balance is set.
	_, err := svc.Close(ctx, session.ID, money.Money(100_00), actor)
	assert.ErrorIs(t, err, service.ErrOpeningNotSet)

	require.NoError(t, svc.SetOpeningBalance(ctx, session.ID, money.Money(100_00)))
	_, err = svc.Close(ctx, session.ID, money.Money(100_00), actor)
	require.NoError(t, err)

	_, err = svc.Close(ctx, session.ID, money.Money(100_00), actor)
	assert.ErrorIs(t, err, service.ErrSessionAlreadyClosed)
}

func TestClosedSessionRejectsEntries(t *testing.T) {
	svc := service.NewLedgerService(newFakeSessionRepo(), nil)
	session := openSession(t, svc, 1, "2026-03-14")
	ctx := context.Background()
	actor := uuid.New()

	require.NoError(t, svc.SetOpeningBalance(ctx, session.ID, money.Money(100_00)))
	_, err := svc.Close(ctx, session.ID, money.Money(100_00), actor)
	require.NoError(t, err)

	_, err = svc.RecordEntry(ctx, actor, session.ID, model.EntryManualDeposit, money.Money(10_00), "late")
	assert.ErrorIs(t, err, service.ErrSessionClosed)

	err = svc.SetOpeningBalance(ctx, session.ID, money.Money(200_00))
	assert.True(t, errors.Is(err, service.ErrSessionClosed))

	err = svc.EditOpeningBalance(ctx, actor, session.ID, money.Money(200_00), "too late now")
	assert.ErrorIs(t, err, service.ErrSessionClosed)
}

func TestCardSalesExcludedFromDrawer(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := service.NewLedgerService(repo, nil)
	session := openSession(t, svc, 1, "2026-03-14")
	ctx := context.Background()
	actor := uuid.New()

	require.NoError(t, svc.SetOpeningBalance(ctx, session.ID, money.Money(100_00)))

	// A card sale entry lands in the log but not in the cash balance.
	saleID := uuid.New()
	err := svc.ApplySale(ctx, nil, actor, &model.Sale{
		ID:            saleID,
		SessionID:     session.ID,
		Total:         money.Money(80_00),
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	report, err := svc.Report(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(100_00), report.CashBalance)
	assert.Equal(t, money.Money(80_00), report.SumsByKind[model.EntryCardSale])

	// A cash sale moves the drawer.
	err = svc.ApplySale(ctx, nil, actor, &model.Sale{
		ID:            uuid.New(),
		SessionID:     session.ID,
		Total:         money.Money(25_00),
		PaymentMethod: "EFECTIVO",
	})
	require.NoError(t, err)

	report, err = svc.Report(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(125_00), report.CashBalance)
}

func TestEntryKindForPayment(t *testing.T) {
	cases := map[string]string{
		"cash":      model.EntryCashSale,
		"Cash":      model.EntryCashSale,
		" efectivo": model.EntryCashSale,
		"CONTADO":   model.EntryCashSale,
		"card":      model.EntryCardSale,
		"credit":    model.EntryCardSale,
		"qr":        model.EntryCardSale,
		"":          model.EntryCardSale,
	}
	for method, want := range cases {
		assert.Equal(t, want, service.EntryKindForPayment(method), "method %q", method)
	}
}
