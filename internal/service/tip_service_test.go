package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/service"
)

func newTipService(repo *fakeTipRepo) service.TipService {
	return service.NewTipService(repo, nil, 10, true)
}

func TestEvaluateSuggestedAmount(t *testing.T) {
	svc := newTipService(newFakeTipRepo())

	// 10% of 123.45 is 12.345, rounded half-up to 12.35.
	ev, err := svc.Evaluate(money.Money(123_45), money.Money(12_35))
	require.NoError(t, err)
	assert.Equal(t, money.Money(12_35), ev.Suggested)
	assert.False(t, ev.Reduced)
	assert.False(t, ev.RequiresReason)

	// One centavo below the suggestion counts as reduced.
	ev, err = svc.Evaluate(money.Money(123_45), money.Money(12_34))
	require.NoError(t, err)
	assert.True(t, ev.Reduced)
	assert.True(t, ev.RequiresReason)

	// Exceeding the suggestion never requires a reason.
	ev, err = svc.Evaluate(money.Money(100_00), money.Money(20_00))
	require.NoError(t, err)
	assert.Equal(t, money.Money(10_00), ev.Suggested)
	assert.False(t, ev.Reduced)

	// Zero tip on a zero subtotal is not a reduction.
	ev, err = svc.Evaluate(money.Money(0), money.Money(0))
	require.NoError(t, err)
	assert.False(t, ev.Reduced)
}

func TestEvaluateReasonPolicyDisabled(t *testing.T) {
	svc := service.NewTipService(newFakeTipRepo(), nil, 10, false)

	ev, err := svc.Evaluate(money.Money(100_00), money.Money(0))
	require.NoError(t, err)
	assert.True(t, ev.Reduced)
	assert.False(t, ev.RequiresReason)
}

func TestEvaluateRejectsNegative(t *testing.T) {
	svc := newTipService(newFakeTipRepo())

	_, err := svc.Evaluate(money.Money(-1), money.Money(0))
	assert.ErrorIs(t, err, service.ErrNegativeAmount)

	_, err = svc.Evaluate(money.Money(100_00), money.Money(-1))
	assert.ErrorIs(t, err, service.ErrNegativeAmount)
}

func TestRecordAdjustment(t *testing.T) {
	repo := newFakeTipRepo()
	svc := newTipService(repo)
	ctx := context.Background()
	actor := uuid.New()
	saleID := uuid.New()

	record, err := svc.Record(ctx, nil, actor, saleID, money.Money(10_00), money.Money(5_00), model.ReasonServiceIssue, nil)
	require.NoError(t, err)
	assert.Equal(t, money.Money(10_00), record.SuggestedAmount)
	assert.Equal(t, money.Money(5_00), record.FinalAmount)

	// At most one adjustment per sale.
	_, err = svc.Record(ctx, nil, actor, saleID, money.Money(10_00), money.Money(5_00), model.ReasonServiceIssue, nil)
	assert.ErrorIs(t, err, service.ErrDuplicateAdjustment)

	found, err := svc.FindBySale(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
}

func TestRecordAdjustmentValidation(t *testing.T) {
	svc := newTipService(newFakeTipRepo())
	ctx := context.Background()
	actor := uuid.New()

	// Final equal to suggested is not a reduction.
	_, err := svc.Record(ctx, nil, actor, uuid.New(), money.Money(10_00), money.Money(10_00), model.ReasonNoTip, nil)
	assert.ErrorIs(t, err, service.ErrNotReduced)

	_, err = svc.Record(ctx, nil, actor, uuid.New(), money.Money(10_00), money.Money(12_00), model.ReasonNoTip, nil)
	assert.ErrorIs(t, err, service.ErrNotReduced)

	_, err = svc.Record(ctx, nil, actor, uuid.New(), money.Money(10_00), money.Money(5_00), "bad_day", nil)
	assert.ErrorIs(t, err, service.ErrInvalidReasonType)

	// "other" demands a free-text comment.
	_, err = svc.Record(ctx, nil, actor, uuid.New(), money.Money(10_00), money.Money(5_00), model.ReasonOther, nil)
	assert.ErrorIs(t, err, service.ErrReasonRequired)

	short := "eh"
	_, err = svc.Record(ctx, nil, actor, uuid.New(), money.Money(10_00), money.Money(5_00), model.ReasonOther, &short)
	assert.ErrorIs(t, err, service.ErrReasonRequired)

	comment := "regular gives a flat amount"
	_, err = svc.Record(ctx, nil, actor, uuid.New(), money.Money(10_00), money.Money(5_00), model.ReasonOther, &comment)
	assert.NoError(t, err)

	_, err = svc.Record(ctx, nil, actor, uuid.New(), money.Money(-1), money.Money(0), model.ReasonNoTip, nil)
	assert.ErrorIs(t, err, service.ErrNegativeAmount)
}
