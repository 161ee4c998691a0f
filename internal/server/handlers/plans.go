package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/application/planner"
	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/pkg/currency"
)

type PlanHandler struct {
	planSvc       planner.IPlanService
	currencyUtils *currency.CurrencyUtils
	logger        zerolog.Logger
}

func NewPlanHandler(planSvc planner.IPlanService, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{
		planSvc:       planSvc,
		currencyUtils: currency.NewCurrencyUtils(),
		logger:        logger,
	}
}

type selectPlanRequest struct {
	PlanKind   domain.PlanKind `json:"plan_kind" binding:"required"`
	TotalCents int64           `json:"total_cents" binding:"required"`
}

func (h *PlanHandler) SelectPlan(c *gin.Context) {
	payableItemID := c.Param("payable_item_id")
	if payableItemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Payable item ID is required",
		})
		return
	}

	var req selectPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
		return
	}

	obligations, err := h.planSvc.SelectPlan(c.Request.Context(), c.GetString("user_id"), payableItemID, req.PlanKind, req.TotalCents)
	if err != nil {
		h.logger.Err(err).Str("payable_item_id", payableItemID).Str("plan_kind", string(req.PlanKind)).Msg("Failed to select plan")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"obligations": obligations,
		"total":       len(obligations),
	})
}

func (h *PlanHandler) ListObligations(c *gin.Context) {
	payableItemID := c.Param("payable_item_id")
	if payableItemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Payable item ID is required",
		})
		return
	}

	obligations, err := h.planSvc.Obligations(c.Request.Context(), payableItemID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Overdue is derived for display, never stored.
	now := time.Now()
	views := make([]obligationView, len(obligations))
	for i, o := range obligations {
		views[i] = obligationView{
			Obligation:    o,
			Overdue:       o.IsOverdue(now),
			AmountDisplay: h.currencyUtils.Format(o.AmountCents, o.CurrencyCode),
		}
	}

	var next *domain.Obligation
	if n := h.planSvc.NextPayable(obligations); n != nil {
		next = n
	}

	c.JSON(http.StatusOK, gin.H{
		"obligations":  views,
		"next_payable": next,
		"total":        len(views),
	})
}

type obligationView struct {
	domain.Obligation
	Overdue       bool   `json:"overdue"`
	AmountDisplay string `json:"amount_display"`
}
