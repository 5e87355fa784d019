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

type SaleHandler struct{ svc service.SaleService }

func NewSaleHandler(svc service.SaleService) *SaleHandler { return &SaleHandler{svc: svc} }

// Finalize godoc
// @Summary Consumes a completed checkout and applies it to the session ledger
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.FinalizeSaleRequest true "Sale completed event"
// @Success 201 {object} dto.SaleResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/sales/finalize [post]
func (h *SaleHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	saleID, _ := uuid.Parse(req.SaleID)
	sessionID, _ := uuid.Parse(req.SessionID)

	subtotal, err := money.FromDecimal(req.Subtotal)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	tip, err := money.FromDecimal(req.TipAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	sale, err := h.svc.Finalize(c.Request.Context(), actorFromClaims(c), service.FinalizeSaleInput{
		SaleID:        saleID,
		SessionID:     sessionID,
		Subtotal:      subtotal,
		TipAmount:     tip,
		PaymentMethod: req.PaymentMethod,
		ReasonType:    req.ReasonType,
		ReasonComment: req.ReasonComment,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saleResponse(sale))
}

// Get godoc
// @Summary Returns a finalized sale
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale ID"
// @Success 200 {object} dto.SaleResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	sale, err := h.svc.FindByID(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, saleResponse(sale))
}

func saleResponse(s *model.Sale) dto.SaleResponse {
	return dto.SaleResponse{
		ID:            s.ID.String(),
		SessionID:     s.SessionID.String(),
		Subtotal:      s.Subtotal.Decimal(),
		TipAmount:     s.TipAmount.Decimal(),
		Total:         s.Total.Decimal(),
		PaymentMethod: s.PaymentMethod,
		EntryKind:     service.EntryKindForPayment(s.PaymentMethod),
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
}
