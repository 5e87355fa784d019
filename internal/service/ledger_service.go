package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/repository"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/worker"
)

// SessionReport is the computed view of one session: stored fields plus the
// balance folded from the entry log at read time.
type SessionReport struct {
	Session     *model.CashSession
	SumsByKind  map[string]money.Money
	CashBalance money.Money
	Edits       []model.OpeningBalanceEdit
}

// CloseResult is returned by Close so callers can present the variance as
// surplus or shortage without the ledger knowing about presentation.
type CloseResult struct {
	ExpectedCash money.Money
	CountedCash  money.Money
	Variance     money.Money
	ClosedAt     time.Time
}

// LedgerService owns the cash-session lifecycle. Every balance it reports
// is a fold over immutable ledger entries; set/edit/close are serialized per
// session by a row lock plus conditional update, so a losing concurrent
// writer receives a definite state-conflict error instead of overwriting.
type LedgerService interface {
	OpenOrGet(ctx context.Context, actorID uuid.UUID, till int, businessDate string) (*model.CashSession, error)
	SetOpeningBalance(ctx context.Context, sessionID uuid.UUID, amount money.Money) error
	EditOpeningBalance(ctx context.Context, actorID, sessionID uuid.UUID, newAmount money.Money, reason string) error
	RecordEntry(ctx context.Context, actorID, sessionID uuid.UUID, kind string, amount money.Money, description string) (money.Money, error)
	// ApplySale appends the sale's ledger entry inside the caller's
	// transaction; the caller (SaleService) holds the session lock.
	ApplySale(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, sale *model.Sale) error
	Close(ctx context.Context, sessionID uuid.UUID, counted money.Money, closedBy uuid.UUID) (*CloseResult, error)
	Report(ctx context.Context, sessionID uuid.UUID) (*SessionReport, error)
	History(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)
	ListEntries(ctx context.Context, sessionID uuid.UUID) ([]model.LedgerEntry, error)
}

type ledgerService struct {
	repo       repository.SessionRepository
	dispatcher *worker.Dispatcher
}

func NewLedgerService(repo repository.SessionRepository, dispatcher *worker.Dispatcher) LedgerService {
	return &ledgerService{repo: repo, dispatcher: dispatcher}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// cashSynonyms are payment-method spellings that settle in the drawer.
// Matching is case-insensitive after trimming.
var cashSynonyms = map[string]bool{
	"cash":     true,
	"efectivo": true,
	"contado":  true,
}

// EntryKindForPayment routes a completed sale to its ledger entry kind.
func EntryKindForPayment(method string) string {
	if cashSynonyms[strings.ToLower(strings.TrimSpace(method))] {
		return model.EntryCashSale
	}
	return model.EntryCardSale
}

var validEntryKinds = map[string]bool{
	model.EntryCashSale:         true,
	model.EntryCardSale:         true,
	model.EntryManualDeposit:    true,
	model.EntryManualWithdrawal: true,
	model.EntryCashExpense:      true,
}

// ── OpenOrGet ─────────────────────────────────────────────────────────────────
// Sessions are created lazily the first time a till is touched on a date.
// Idempotent: a concurrent create loses against the partial unique index on
// (till, business_date) and falls back to fetching the winner's row.

func (s *ledgerService) OpenOrGet(ctx context.Context, actorID uuid.UUID, till int, businessDate string) (*model.CashSession, error) {
	if existing, err := s.repo.FindOpen(ctx, till, businessDate); err == nil {
		return existing, nil
	}

	session := &model.CashSession{
		Till:         till,
		BusinessDate: businessDate,
		Status:       model.SessionOpen,
		OpenedBy:     actorID,
	}
	err := s.repo.Create(ctx, session)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return s.repo.FindOpen(ctx, till, businessDate)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ── SetOpeningBalance ─────────────────────────────────────────────────────────
// The seed, not an entry: nothing is appended to the log. A second set is a
// definite rejection — corrections go through the audited edit path.

func (s *ledgerService) SetOpeningBalance(ctx context.Context, sessionID uuid.UUID, amount money.Money) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}

	rows, err := s.repo.SetOpeningBalance(ctx, sessionID, amount)
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	// Conditional update hit nothing — classify why for the caller.
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return ErrSessionNotFound
	}
	if session.Status == model.SessionClosed {
		return ErrSessionClosed
	}
	return ErrOpeningAlreadySet
}

// ── EditOpeningBalance ────────────────────────────────────────────────────────
// The only code path that can change a set opening balance. The swap and the
// {old, new, reason} audit row commit in the same transaction, so an
// unaudited change is structurally impossible.

func (s *ledgerService) EditOpeningBalance(ctx context.Context, actorID, sessionID uuid.UUID, newAmount money.Money, reason string) error {
	if newAmount.IsNegative() {
		return ErrNegativeAmount
	}
	reason = strings.TrimSpace(reason)
	if len(reason) < 5 {
		return ErrReasonRequired
	}

	var oldAmount money.Money
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.repo.FindForUpdate(ctx, tx, sessionID)
		if err != nil {
			return ErrSessionNotFound
		}
		if session.Status == model.SessionClosed {
			return ErrSessionClosed
		}
		if !session.OpeningBalanceSet {
			return ErrOpeningNotSet
		}
		oldAmount = session.OpeningBalance

		rows, err := s.repo.UpdateOpeningBalance(ctx, tx, sessionID, newAmount)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrSessionClosed
		}

		return s.repo.CreateOpeningEdit(ctx, tx, &model.OpeningBalanceEdit{
			SessionID: sessionID,
			OldAmount: oldAmount,
			NewAmount: newAmount,
			Reason:    reason,
			ActorID:   actorID,
		})
	})
	if txErr != nil {
		return txErr
	}

	enqueueAudit(ctx, s.dispatcher, worker.AuditJobPayload{
		ActorID:   actorID,
		Action:    model.AuditOpeningBalanceEdited,
		SubjectID: sessionID,
		Before:    stringPtr(oldAmount.String()),
		After:     stringPtr(newAmount.String()),
		Reason:    &reason,
	})
	return nil
}

// ── RecordEntry ───────────────────────────────────────────────────────────────
// Append-only. The sign is derived from the kind; a negative or zero amount
// never reaches the log. The new balance is folded from the log inside the
// same transaction, so the returned value reflects exactly the entries
// committed so far.

func (s *ledgerService) RecordEntry(ctx context.Context, actorID, sessionID uuid.UUID, kind string, amount money.Money, description string) (money.Money, error) {
	if !validEntryKinds[kind] {
		return 0, ErrInvalidEntryKind
	}
	if amount.Cmp(money.Zero) <= 0 {
		return 0, ErrNonPositiveAmount
	}

	var balance money.Money
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.repo.FindForUpdate(ctx, tx, sessionID)
		if err != nil {
			return ErrSessionNotFound
		}
		if session.Status == model.SessionClosed {
			return ErrSessionClosed
		}

		entry := &model.LedgerEntry{
			SessionID:   sessionID,
			Kind:        kind,
			Amount:      amount,
			Description: description,
			CreatedBy:   actorID,
		}
		if err := s.repo.CreateEntry(ctx, tx, entry); err != nil {
			return err
		}

		sums, err := s.repo.SumEntriesByKind(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		balance = model.CashBalance(session.OpeningBalance, sums)
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}
	return balance, nil
}

// ── ApplySale ─────────────────────────────────────────────────────────────────

func (s *ledgerService) ApplySale(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, sale *model.Sale) error {
	saleID := sale.ID
	entry := &model.LedgerEntry{
		SessionID:   sale.SessionID,
		Kind:        EntryKindForPayment(sale.PaymentMethod),
		Amount:      sale.Total,
		Description: "Sale " + saleID.String(),
		SaleID:      &saleID,
		CreatedBy:   actorID,
	}
	return s.repo.CreateEntry(ctx, tx, entry)
}

// ── Close ─────────────────────────────────────────────────────────────────────
// Closes exactly once. After close no accumulator can change: entry appends
// check status under the same lock, and re-close hits the status guard.

func (s *ledgerService) Close(ctx context.Context, sessionID uuid.UUID, counted money.Money, closedBy uuid.UUID) (*CloseResult, error) {
	if counted.IsNegative() {
		return nil, ErrNegativeAmount
	}

	var result CloseResult
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		session, err := s.repo.FindForUpdate(ctx, tx, sessionID)
		if err != nil {
			return ErrSessionNotFound
		}
		if session.Status == model.SessionClosed {
			return ErrSessionAlreadyClosed
		}
		if !session.OpeningBalanceSet {
			return ErrOpeningNotSet
		}

		sums, err := s.repo.SumEntriesByKind(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		expected := model.CashBalance(session.OpeningBalance, sums)
		now := time.Now()
		result = CloseResult{
			ExpectedCash: expected,
			CountedCash:  counted,
			Variance:     counted.Sub(expected),
			ClosedAt:     now,
		}

		rows, err := s.repo.Close(ctx, tx, sessionID, counted, result.Variance, closedBy, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrSessionAlreadyClosed
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	enqueueAudit(ctx, s.dispatcher, worker.AuditJobPayload{
		ActorID:   closedBy,
		Action:    model.AuditSessionClosed,
		SubjectID: sessionID,
		Before:    stringPtr(result.ExpectedCash.String()),
		After:     stringPtr(result.CountedCash.String()),
	})
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueCloseReport(ctx, worker.CloseReportJobPayload{SessionID: sessionID}); err != nil {
			log.Error().Err(err).Str("session_id", sessionID.String()).Msg("enqueue close report failed")
		}
	}
	return &result, nil
}

// ── Report / History ──────────────────────────────────────────────────────────

func (s *ledgerService) Report(ctx context.Context, sessionID uuid.UUID) (*SessionReport, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	sums, err := s.repo.SumEntriesByKind(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	edits, err := s.repo.ListOpeningEdits(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionReport{
		Session:     session,
		SumsByKind:  sums,
		CashBalance: model.CashBalance(session.OpeningBalance, sums),
		Edits:       edits,
	}, nil
}

func (s *ledgerService) History(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	return s.repo.ListClosed(ctx, page, limit)
}

func (s *ledgerService) ListEntries(ctx context.Context, sessionID uuid.UUID) ([]model.LedgerEntry, error) {
	return s.repo.ListEntries(ctx, sessionID)
}

// enqueueAudit fires an audit event best-effort: the originating write has
// already committed, so a queue outage is logged, never propagated.
func enqueueAudit(ctx context.Context, d *worker.Dispatcher, payload worker.AuditJobPayload) {
	if d == nil {
		return
	}
	payload.Timestamp = time.Now()
	if err := d.EnqueueAudit(ctx, payload); err != nil {
		log.Error().Err(err).Str("action", payload.Action).Msg("enqueue audit event failed")
	}
}

func stringPtr(v string) *string { return &v }
