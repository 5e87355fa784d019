package service_test

import (
	"context"
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

// ── In-memory SaleRepository ─────────────────────────────────────────────────

type fakeSaleRepo struct {
	sales map[uuid.UUID]*model.Sale
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *fakeSaleRepo) DB() *gorm.DB { return nil }

func (r *fakeSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if _, exists := r.sales[s.ID]; exists {
		return gorm.ErrDuplicatedKey
	}
	s.CreatedAt = time.Now()
	r.sales[s.ID] = s
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

var _ repository.SaleRepository = (*fakeSaleRepo)(nil)

// ── Fixture ──────────────────────────────────────────────────────────────────

type saleFixture struct {
	svc         service.SaleService
	ledger      service.LedgerService
	tips        service.TipService
	sessionRepo *fakeSessionRepo
	tipRepo     *fakeTipRepo
	session     *model.CashSession
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	sessionRepo := newFakeSessionRepo()
	tipRepo := newFakeTipRepo()
	ledger := service.NewLedgerService(sessionRepo, nil)
	tips := service.NewTipService(tipRepo, nil, 10, true)
	svc := service.NewSaleService(newFakeSaleRepo(), sessionRepo, ledger, tips)

	ctx := context.Background()
	session, err := ledger.OpenOrGet(ctx, uuid.New(), 1, "2026-03-14")
	require.NoError(t, err)
	require.NoError(t, ledger.SetOpeningBalance(ctx, session.ID, money.Money(100_00)))

	return &saleFixture{
		svc:         svc,
		ledger:      ledger,
		tips:        tips,
		sessionRepo: sessionRepo,
		tipRepo:     tipRepo,
		session:     session,
	}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestFinalizeCashSale(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	sale, err := f.svc.Finalize(ctx, uuid.New(), service.FinalizeSaleInput{
		SaleID:        uuid.New(),
		SessionID:     f.session.ID,
		Subtotal:      money.Money(80_00),
		TipAmount:     money.Money(8_00),
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, money.Money(88_00), sale.Total)

	report, err := f.ledger.Report(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(188_00), report.CashBalance)
	assert.Equal(t, money.Money(88_00), report.SumsByKind[model.EntryCashSale])
}

func TestFinalizeCardSaleStaysOutOfDrawer(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	_, err := f.svc.Finalize(ctx, uuid.New(), service.FinalizeSaleInput{
		SaleID:        uuid.New(),
		SessionID:     f.session.ID,
		Subtotal:      money.Money(40_00),
		TipAmount:     money.Money(4_00),
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	report, err := f.ledger.Report(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(100_00), report.CashBalance)
	assert.Equal(t, money.Money(44_00), report.SumsByKind[model.EntryCardSale])
}

func TestFinalizeIdempotentBySaleID(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	saleID := uuid.New()
	in := service.FinalizeSaleInput{
		SaleID:        saleID,
		SessionID:     f.session.ID,
		Subtotal:      money.Money(80_00),
		TipAmount:     money.Money(8_00),
		PaymentMethod: "cash",
	}

	first, err := f.svc.Finalize(ctx, uuid.New(), in)
	require.NoError(t, err)

	// The retry neither fails nor double-counts the till.
	second, err := f.svc.Finalize(ctx, uuid.New(), in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Total, second.Total)

	report, err := f.ledger.Report(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(188_00), report.CashBalance)

	entries, err := f.ledger.ListEntries(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFinalizeReducedTipNeedsReason(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	// 10% of 100.00 is 10.00; offering 2.00 is a reduction.
	in := service.FinalizeSaleInput{
		SaleID:        uuid.New(),
		SessionID:     f.session.ID,
		Subtotal:      money.Money(100_00),
		TipAmount:     money.Money(2_00),
		PaymentMethod: "cash",
	}
	_, err := f.svc.Finalize(ctx, uuid.New(), in)
	assert.ErrorIs(t, err, service.ErrReasonRequired)

	in.ReasonType = "slow_kitchen"
	_, err = f.svc.Finalize(ctx, uuid.New(), in)
	assert.ErrorIs(t, err, service.ErrInvalidReasonType)

	in.ReasonType = model.ReasonServiceIssue
	sale, err := f.svc.Finalize(ctx, uuid.New(), in)
	require.NoError(t, err)

	// The justification was recorded against the sale.
	adj, err := f.tips.FindBySale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(10_00), adj.SuggestedAmount)
	assert.Equal(t, money.Money(2_00), adj.FinalAmount)
	assert.Equal(t, model.ReasonServiceIssue, adj.ReasonType)
}

func TestFinalizeReducedTipWriteFailureThenRetry(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()
	saleID := uuid.New()
	in := service.FinalizeSaleInput{
		SaleID:        saleID,
		SessionID:     f.session.ID,
		Subtotal:      money.Money(100_00),
		TipAmount:     money.Money(2_00),
		PaymentMethod: "cash",
		ReasonType:    model.ReasonServiceIssue,
	}

	// A transient failure on the justification write surfaces to the caller
	// instead of finalizing the sale with the reduction unrecorded.
	f.tipRepo.adjustmentFailures = 1
	_, err := f.svc.Finalize(ctx, uuid.New(), in)
	require.Error(t, err)
	_, err = f.tips.FindBySale(ctx, saleID)
	assert.Error(t, err)

	// The retry converges: the sale is finalized exactly once and carries
	// its adjustment record.
	sale, err := f.svc.Finalize(ctx, uuid.New(), in)
	require.NoError(t, err)
	assert.Equal(t, saleID, sale.ID)

	adj, err := f.tips.FindBySale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(10_00), adj.SuggestedAmount)
	assert.Equal(t, money.Money(2_00), adj.FinalAmount)

	entries, err := f.ledger.ListEntries(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFinalizeRejectsClosedSession(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Close(ctx, f.session.ID, money.Money(100_00), uuid.New())
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, uuid.New(), service.FinalizeSaleInput{
		SaleID:        uuid.New(),
		SessionID:     f.session.ID,
		Subtotal:      money.Money(10_00),
		TipAmount:     money.Money(1_00),
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, service.ErrSessionClosed)
}

func TestFinalizeValidation(t *testing.T) {
	f := newSaleFixture(t)
	ctx := context.Background()

	_, err := f.svc.Finalize(ctx, uuid.New(), service.FinalizeSaleInput{
		SaleID:        uuid.New(),
		SessionID:     f.session.ID,
		Subtotal:      money.Money(0),
		TipAmount:     money.Money(1_00),
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, service.ErrNonPositiveAmount)

	_, err = f.svc.Finalize(ctx, uuid.New(), service.FinalizeSaleInput{
		SaleID:        uuid.New(),
		SessionID:     f.session.ID,
		Subtotal:      money.Money(10_00),
		TipAmount:     money.Money(-1),
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, service.ErrNegativeAmount)

	_, err = f.svc.Finalize(ctx, uuid.New(), service.FinalizeSaleInput{
		SaleID:        uuid.New(),
		SessionID:     uuid.New(),
		Subtotal:      money.Money(10_00),
		TipAmount:     money.Money(1_00),
		PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}
