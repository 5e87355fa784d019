package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/apierror"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/dto"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/service"
)

type TipHandler struct {
	tips          service.TipService
	distributions service.DistributionService
}

func NewTipHandler(tips service.TipService, distributions service.DistributionService) *TipHandler {
	return &TipHandler{tips: tips, distributions: distributions}
}

// Evaluate godoc
// @Summary Evaluates a proposed tip against the suggested amount
// @Tags tips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EvaluateTipRequest true "Subtotal and proposed tip"
// @Success 200 {object} dto.TipEvaluationResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/tips/evaluate [post]
func (h *TipHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateTipRequest
	if !bindAndValidate(c, &req) {
		return
	}
	subtotal, err := money.FromDecimal(req.Subtotal)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	final, err := money.FromDecimal(req.TipFinal)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	ev, err := h.tips.Evaluate(subtotal, final)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TipEvaluationResponse{
		SuggestedAmount: ev.Suggested.Decimal(),
		FinalAmount:     ev.Final.Decimal(),
		Reduced:         ev.Reduced,
		RequiresReason:  ev.RequiresReason,
	})
}

// RecordAdjustment godoc
// @Summary Records the justification for a reduced tip (once per sale)
// @Tags tips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordAdjustmentRequest true "Adjustment"
// @Success 201 {object} dto.AdjustmentResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/tips/adjustments [post]
func (h *TipHandler) RecordAdjustment(c *gin.Context) {
	var req dto.RecordAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	saleID, _ := uuid.Parse(req.SaleID)
	suggested, err := money.FromDecimal(req.SuggestedAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	final, err := money.FromDecimal(req.FinalAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	record, err := h.tips.Record(c.Request.Context(), nil, actorFromClaims(c), saleID, suggested, final, req.ReasonType, req.ReasonComment)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, adjustmentResponse(record))
}

// GetAdjustment godoc
// @Summary Returns the tip adjustment recorded for a sale
// @Tags tips
// @Produce json
// @Security BearerAuth
// @Param saleId path string true "Sale ID"
// @Success 200 {object} dto.AdjustmentResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/tips/adjustments/{saleId} [get]
func (h *TipHandler) GetAdjustment(c *gin.Context) {
	saleID, ok := pathUUID(c, "saleId")
	if !ok {
		return
	}
	record, err := h.tips.FindBySale(c.Request.Context(), saleID)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("no adjustment recorded for sale"))
		return
	}
	c.JSON(http.StatusOK, adjustmentResponse(record))
}

// EligibleStaff godoc
// @Summary Lists staff with a shift on the business date, in clock-in order
// @Tags distributions
// @Produce json
// @Security BearerAuth
// @Param date query string false "Business date (YYYY-MM-DD, default today)"
// @Success 200 {array} dto.EligibleStaffResponse
// @Router /v1/distributions/eligible-staff [get]
func (h *TipHandler) EligibleStaff(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	participants, err := h.distributions.EligibleStaff(c.Request.Context(), date, time.Now())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]dto.EligibleStaffResponse, len(participants))
	for i, p := range participants {
		resp[i] = dto.EligibleStaffResponse{
			EmployeeID:    p.EmployeeID.String(),
			Name:          p.Name,
			WorkedMinutes: p.Weight,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Compute godoc
// @Summary Previews a distribution without persisting it
// @Tags distributions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ComputeDistributionRequest true "Total, policy, participants"
// @Success 200 {array} dto.PayoutResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/distributions/compute [post]
func (h *TipHandler) Compute(c *gin.Context) {
	var req dto.ComputeDistributionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	shares, err := h.computeShares(c, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]dto.PayoutResponse, len(shares))
	for i, sh := range shares {
		resp[i] = dto.PayoutResponse{
			EmployeeID: sh.EmployeeID.String(),
			Amount:     sh.Amount.Decimal(),
			WeightUsed: sh.Weight,
			Status:     model.PayoutPending,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Persist godoc
// @Summary Computes and persists the distribution for a sale (idempotent)
// @Tags distributions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PersistDistributionRequest true "Sale, total, policy, participants"
// @Success 201 {object} dto.DistributionResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/distributions [post]
func (h *TipHandler) Persist(c *gin.Context) {
	var req dto.PersistDistributionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	saleID, _ := uuid.Parse(req.SaleID)

	shares, err := h.computeShares(c, req.ComputeDistributionRequest)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	total, err := money.FromDecimal(req.TotalTip)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	dist, err := h.distributions.Persist(c.Request.Context(), actorFromClaims(c), saleID, total, req.Policy, shares)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, distributionResponse(dist))
}

// Correct godoc
// @Summary Replaces the live distribution for a sale with a recomputed one
// @Tags distributions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PersistDistributionRequest true "Sale, total, policy, participants"
// @Success 201 {object} dto.DistributionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/distributions/correct [post]
func (h *TipHandler) Correct(c *gin.Context) {
	var req dto.PersistDistributionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	saleID, _ := uuid.Parse(req.SaleID)

	participants, err := h.resolveParticipants(c, req.ComputeDistributionRequest)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	total, err := money.FromDecimal(req.TotalTip)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	dist, err := h.distributions.Correct(c.Request.Context(), actorFromClaims(c), saleID, total, req.Policy, participants)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, distributionResponse(dist))
}

// GetDistribution godoc
// @Summary Returns the live distribution for a sale
// @Tags distributions
// @Produce json
// @Security BearerAuth
// @Param saleId path string true "Sale ID"
// @Success 200 {object} dto.DistributionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/distributions/{saleId} [get]
func (h *TipHandler) GetDistribution(c *gin.Context) {
	saleID, ok := pathUUID(c, "saleId")
	if !ok {
		return
	}
	dist, err := h.distributions.FindBySale(c.Request.Context(), saleID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, distributionResponse(dist))
}

// MarkPaid godoc
// @Summary Marks one payout as paid (exactly once)
// @Tags distributions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payout ID"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/distributions/payouts/{id}/pay [post]
func (h *TipHandler) MarkPaid(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.distributions.MarkPaid(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPendingPayouts godoc
// @Summary Lists all pending payouts across distributions
// @Tags distributions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PayoutResponse
// @Router /v1/distributions/payouts/pending [get]
func (h *TipHandler) ListPendingPayouts(c *gin.Context) {
	payouts, err := h.distributions.ListPendingPayouts(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]dto.PayoutResponse, len(payouts))
	for i := range payouts {
		resp[i] = payoutResponse(&payouts[i])
	}
	c.JSON(http.StatusOK, resp)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// computeShares resolves the participant list and runs the pure computation.
func (h *TipHandler) computeShares(c *gin.Context, req dto.ComputeDistributionRequest) ([]service.Share, error) {
	participants, err := h.resolveParticipants(c, req)
	if err != nil {
		return nil, err
	}
	total, err := money.FromDecimal(req.TotalTip)
	if err != nil {
		return nil, service.ErrNegativeAmount
	}
	return h.distributions.Compute(total, req.Policy, participants)
}

// resolveParticipants uses the explicit list when given (equal, manual) or
// the shift roster for the business date (by_hours).
func (h *TipHandler) resolveParticipants(c *gin.Context, req dto.ComputeDistributionRequest) ([]service.Participant, error) {
	if req.Policy == model.PolicyByHours && len(req.Participants) == 0 {
		date := req.BusinessDate
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}
		return h.distributions.EligibleStaff(c.Request.Context(), date, time.Now())
	}
	participants := make([]service.Participant, len(req.Participants))
	for i, p := range req.Participants {
		id, err := uuid.Parse(p.EmployeeID)
		if err != nil {
			return nil, service.ErrNoParticipants
		}
		participants[i] = service.Participant{EmployeeID: id, Weight: p.Weight}
	}
	return participants, nil
}

func adjustmentResponse(a *model.TipAdjustmentRecord) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ID:              a.ID.String(),
		SaleID:          a.SaleID.String(),
		SuggestedAmount: a.SuggestedAmount.Decimal(),
		FinalAmount:     a.FinalAmount.Decimal(),
		ReasonType:      a.ReasonType,
		ReasonComment:   a.ReasonComment,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
}

func payoutResponse(p *model.TipPayout) dto.PayoutResponse {
	resp := dto.PayoutResponse{
		ID:         p.ID.String(),
		EmployeeID: p.EmployeeID.String(),
		Amount:     p.Amount.Decimal(),
		WeightUsed: p.WeightUsed,
		Status:     p.Status,
	}
	if p.PaidAt != nil {
		t := p.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &t
	}
	return resp
}

func distributionResponse(d *model.TipDistribution) dto.DistributionResponse {
	resp := dto.DistributionResponse{
		ID:        d.ID.String(),
		SaleID:    d.SaleID.String(),
		TotalTip:  d.TotalTipAmount.Decimal(),
		Policy:    d.Policy,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}
	if d.SupersededBy != nil {
		s := d.SupersededBy.String()
		resp.SupersededBy = &s
	}
	resp.Payouts = make([]dto.PayoutResponse, len(d.Payouts))
	for i := range d.Payouts {
		resp.Payouts[i] = payoutResponse(&d.Payouts[i])
	}
	return resp
}
