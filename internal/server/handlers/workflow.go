package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/application/workflow"
	"github.com/tekiplanet/payflow/internal/domain"
)

type WorkflowHandler struct {
	workflowSvc workflow.IWorkflowService
	logger      zerolog.Logger
}

func NewWorkflowHandler(workflowSvc workflow.IWorkflowService, logger zerolog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflowSvc: workflowSvc,
		logger:      logger,
	}
}

type startWorkflowRequest struct {
	Flow          domain.FlowKind `json:"flow" binding:"required"`
	PayableItemID string          `json:"payable_item_id"`
}

func (h *WorkflowHandler) Start(c *gin.Context) {
	var req startWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
		return
	}

	userID := c.GetString("user_id")
	session, err := h.workflowSvc.Start(c.Request.Context(), userID, req.Flow, req.PayableItemID)
	if err != nil {
		h.logger.Err(err).Str("user_id", userID).Str("flow", string(req.Flow)).Msg("Failed to start workflow")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *WorkflowHandler) Get(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *WorkflowHandler) SubmitStep(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	var input workflow.StepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
		return
	}

	updated, err := h.workflowSvc.SubmitStep(c.Request.Context(), session.SessionID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *WorkflowHandler) Back(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	updated, err := h.workflowSvc.Back(c.Request.Context(), session.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *WorkflowHandler) Confirm(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	result, err := h.workflowSvc.Confirm(c.Request.Context(), session.SessionID)
	if err != nil {
		h.logger.Err(err).Str("session_id", session.SessionID).Msg("Confirm failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *WorkflowHandler) Resume(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	result, err := h.workflowSvc.Resume(c.Request.Context(), session.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *WorkflowHandler) Cancel(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	if err := h.workflowSvc.Cancel(c.Request.Context(), session.SessionID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ownedSession loads the session from the path parameter and checks it
// belongs to the authenticated user. Foreign sessions read as not found.
func (h *WorkflowHandler) ownedSession(c *gin.Context) (*domain.WorkflowSession, bool) {
	sessionID := c.Param("session_id")
	session, err := h.workflowSvc.Get(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	if session.UserID != c.GetString("user_id") {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "Workflow session not found",
		})
		return nil, false
	}

	return session, true
}
