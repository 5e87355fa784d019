package worker

// report_worker.go
// Processes close-report jobs from QueueCloseReport: renders the end-of-day
// PDF for a closed session and emails it to the configured recipient.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/infra"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/repository"
)

// CloseReportJobPayload is the job envelope sent to QueueCloseReport.
type CloseReportJobPayload struct {
	SessionID uuid.UUID `json:"session_id"`
}

// CloseReportWorker renders and emails close reports.
type CloseReportWorker struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	mailer      *infra.Mailer
	storagePath string
	emailTo     string
}

func NewCloseReportWorker(
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	mailer *infra.Mailer,
	storagePath, emailTo string,
) *CloseReportWorker {
	return &CloseReportWorker{
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		mailer:      mailer,
		storagePath: storagePath,
		emailTo:     emailTo,
	}
}

func (w *CloseReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload CloseReportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("report_worker: invalid payload: %w", err)
	}

	session, err := w.sessionRepo.FindByID(ctx, payload.SessionID)
	if err != nil {
		return fmt.Errorf("report_worker: session %s: %w", payload.SessionID, err)
	}
	if session.Status != model.SessionClosed {
		return fmt.Errorf("report_worker: session %s not closed", payload.SessionID)
	}

	sums, err := w.sessionRepo.SumEntriesByKind(ctx, nil, session.ID)
	if err != nil {
		return fmt.Errorf("report_worker: sum entries: %w", err)
	}

	expected := model.CashBalance(session.OpeningBalance, sums)

	closedByName := ""
	if session.ClosedBy != nil {
		if u, err := w.userRepo.FindByID(ctx, *session.ClosedBy); err == nil {
			closedByName = u.Name
		}
	}

	pdfPath, err := infra.GenerateCloseReportPDF(infra.CloseReportData{
		Session:      session,
		SumsByKind:   sums,
		ExpectedCash: expected,
		ClosedByName: closedByName,
	}, w.storagePath)
	if err != nil {
		return fmt.Errorf("report_worker: render pdf: %w", err)
	}

	if w.emailTo == "" {
		log.Info().Str("pdf", pdfPath).Msg("report_worker: no recipient configured, report stored only")
		return nil
	}

	subject := fmt.Sprintf("Till %d close — %s", session.Till, session.BusinessDate)
	body := fmt.Sprintf("Close report for till %d on %s attached.", session.Till, session.BusinessDate)
	if err := w.mailer.SendReport(w.emailTo, subject, body, pdfPath); err != nil {
		return fmt.Errorf("report_worker: send email: %w", err)
	}
	log.Info().Str("to", w.emailTo).Str("pdf", pdfPath).Msg("report_worker: close report sent")
	return nil
}
