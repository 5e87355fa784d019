package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/apierror"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/dto"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/middleware"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/service"
)

type SessionHandler struct{ svc service.LedgerService }

func NewSessionHandler(svc service.LedgerService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Open godoc
// @Summary Opens (or returns) the session for a till and business date
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Till and business date"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/sessions/open [post]
func (h *SessionHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	date := req.BusinessDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	actorID := actorFromClaims(c)

	session, err := h.svc.OpenOrGet(c.Request.Context(), actorID, req.Till, date)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// SetOpeningBalance godoc
// @Summary Sets the opening balance (once) for a session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.SetOpeningBalanceRequest true "Opening balance"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/sessions/{id}/opening-balance [put]
func (h *SessionHandler) SetOpeningBalance(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetOpeningBalanceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	amount, err := money.FromDecimal(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := h.svc.SetOpeningBalance(c.Request.Context(), id, amount); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EditOpeningBalance godoc
// @Summary Edits an already-set opening balance (supervisor, audited)
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.EditOpeningBalanceRequest true "New amount and reason"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/sessions/{id}/opening-balance [patch]
func (h *SessionHandler) EditOpeningBalance(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.EditOpeningBalanceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	amount, err := money.FromDecimal(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if err := h.svc.EditOpeningBalance(c.Request.Context(), actorFromClaims(c), id, amount, req.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordEntry godoc
// @Summary Appends a manual deposit, withdrawal or expense to the ledger
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.RecordEntryRequest true "Entry"
// @Success 201 {object} dto.BalanceResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/sessions/{id}/entries [post]
func (h *SessionHandler) RecordEntry(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	amount, err := money.FromDecimal(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	balance, err := h.svc.RecordEntry(c.Request.Context(), actorFromClaims(c), id, req.Kind, amount, req.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.BalanceResponse{
		SessionID:   id.String(),
		CashBalance: balance.Decimal(),
	})
}

// ListEntries godoc
// @Summary Lists a session's ledger entries in replay order
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {array} dto.LedgerEntryResponse
// @Router /v1/sessions/{id}/entries [get]
func (h *SessionHandler) ListEntries(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	entries, err := h.svc.ListEntries(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]dto.LedgerEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = entryResponse(&e)
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary Returns the computed report for a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sessions/{id}/report [get]
func (h *SessionHandler) Report(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	report, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	sums := make(map[string]decimal.Decimal, len(report.SumsByKind))
	for kind, amount := range report.SumsByKind {
		sums[kind] = amount.Decimal()
	}
	edits := make([]dto.OpeningEditResponse, len(report.Edits))
	for i, e := range report.Edits {
		edits[i] = dto.OpeningEditResponse{
			OldAmount: e.OldAmount.Decimal(),
			NewAmount: e.NewAmount.Decimal(),
			Reason:    e.Reason,
			ActorID:   e.ActorID.String(),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, dto.SessionReportResponse{
		Session:     sessionResponse(report.Session),
		SumsByKind:  sums,
		CashBalance: report.CashBalance.Decimal(),
		Edits:       edits,
	})
}

// Close godoc
// @Summary Closes a session with the counted cash and computes the variance
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param body body dto.CloseSessionRequest true "Counted cash"
// @Success 200 {object} dto.CloseSessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/sessions/{id}/close [post]
func (h *SessionHandler) Close(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	counted, err := money.FromDecimal(req.CountedCash)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	result, err := h.svc.Close(c.Request.Context(), id, counted, actorFromClaims(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CloseSessionResponse{
		SessionID:    id.String(),
		ExpectedCash: result.ExpectedCash.Decimal(),
		CountedCash:  result.CountedCash.Decimal(),
		Variance:     result.Variance.Decimal(),
		ClosedAt:     result.ClosedAt.Format(time.RFC3339),
	})
}

// History godoc
// @Summary Lists closed sessions, newest first
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.SessionHistoryResponse
// @Router /v1/sessions/history [get]
func (h *SessionHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	sessions, total, err := h.svc.History(c.Request.Context(), page, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := dto.SessionHistoryResponse{Total: total, Page: page, Limit: limit}
	resp.Sessions = make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		resp.Sessions[i] = sessionResponse(&sessions[i])
	}
	c.JSON(http.StatusOK, resp)
}

// ── mapping helpers ───────────────────────────────────────────────────────────

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid ID"))
		return uuid.Nil, false
	}
	return id, true
}

func actorFromClaims(c *gin.Context) uuid.UUID {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.UserID)
	return id
}

func sessionResponse(s *model.CashSession) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:                s.ID.String(),
		Till:              s.Till,
		BusinessDate:      s.BusinessDate,
		Status:            s.Status,
		OpeningBalanceSet: s.OpeningBalanceSet,
	}
	if s.OpeningBalanceSet {
		d := s.OpeningBalance.Decimal()
		resp.OpeningBalance = &d
	}
	if s.CountedCash != nil {
		d := s.CountedCash.Decimal()
		resp.CountedCash = &d
	}
	if s.Variance != nil {
		d := s.Variance.Decimal()
		resp.Variance = &d
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}

func entryResponse(e *model.LedgerEntry) dto.LedgerEntryResponse {
	resp := dto.LedgerEntryResponse{
		ID:          e.ID.String(),
		Seq:         e.Seq,
		Kind:        e.Kind,
		Amount:      e.Amount.Decimal(),
		Description: e.Description,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.SaleID != nil {
		s := e.SaleID.String()
		resp.SaleID = &s
	}
	return resp
}
