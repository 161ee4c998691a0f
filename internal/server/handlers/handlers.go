package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/application/ledgersvc"
	"github.com/tekiplanet/payflow/internal/application/planner"
	"github.com/tekiplanet/payflow/internal/application/workflow"
	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/interfaces"
	"github.com/tekiplanet/payflow/internal/server/middleware"
	"github.com/tekiplanet/payflow/internal/server/websocket"
	"github.com/tekiplanet/payflow/pkg/config"
)

type Handlers struct {
	WorkflowSvc workflow.IWorkflowService
	PlanSvc     planner.IPlanService
	LedgerSvc   ledgersvc.ILedgerService
	BankClient  interfaces.BankAccountsClient
	WsHub       *websocket.WsHub
	Mw          *middleware.Middleware
	DB          *sql.DB
	Logger      zerolog.Logger
	Config      *config.Config
}

func New(
	workflowSvc workflow.IWorkflowService,
	planSvc planner.IPlanService,
	ledgerSvc ledgersvc.ILedgerService,
	bankClient interfaces.BankAccountsClient,
	wsHub *websocket.WsHub,
	mw *middleware.Middleware,
	db *sql.DB,
	logger zerolog.Logger,
	config *config.Config,
) *Handlers {
	return &Handlers{
		WorkflowSvc: workflowSvc,
		PlanSvc:     planSvc,
		LedgerSvc:   ledgerSvc,
		BankClient:  bankClient,
		WsHub:       wsHub,
		Mw:          mw,
		DB:          db,
		Logger:      logger,
		Config:      config,
	}
}

func (h *Handlers) SetupHandlers(router *gin.Engine) {
	workflowHandler := NewWorkflowHandler(h.WorkflowSvc, h.Logger)
	planHandler := NewPlanHandler(h.PlanSvc, h.Logger)
	balanceHandler := NewBalanceHandler(h.LedgerSvc, h.Logger)
	bankHandler := NewBankAccountHandler(h.BankClient, h.Logger)
	wsHandler := NewWebSocketHandler(h.WsHub)
	healthHandler := NewHealthHandler()

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// WebSocket endpoint, authenticated via the token query parameter
	router.GET("/ws", h.Mw.AuthMiddleware(), wsHandler.HandleConnection)

	v1 := router.Group("/v1", h.Mw.AuthMiddleware())
	{
		workflows := v1.Group("/workflows")
		{
			workflows.POST("", workflowHandler.Start)
			workflows.GET("/:session_id", workflowHandler.Get)
			workflows.POST("/:session_id/steps", workflowHandler.SubmitStep)
			workflows.POST("/:session_id/back", workflowHandler.Back)
			workflows.POST("/:session_id/confirm", middleware.Idempotency(h.DB, h.Logger), workflowHandler.Confirm)
			workflows.POST("/:session_id/resume", workflowHandler.Resume)
			workflows.DELETE("/:session_id", workflowHandler.Cancel)
		}

		plans := v1.Group("/plans")
		{
			plans.POST("/:payable_item_id/select", planHandler.SelectPlan)
			plans.GET("/:payable_item_id/obligations", planHandler.ListObligations)
		}

		v1.GET("/balance", balanceHandler.GetBalance)

		banks := v1.Group("/bank-accounts")
		{
			banks.POST("/verify", bankHandler.Verify)
			banks.POST("", bankHandler.Add)
		}
	}
}

// respondError maps domain failures onto HTTP statuses. Remote rejections
// surface the server's reason; unavailability never pretends to be failure.
func respondError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	var re *domain.RemoteError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": ve.Error(),
		})
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "Workflow session not found",
		})
	case errors.Is(err, domain.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{
			"error":   "Gone",
			"message": "Workflow session is closed",
		})
	case errors.Is(err, domain.ErrSessionSuspended):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Conflict",
			"message": "Workflow session is suspended pending funding",
		})
	case errors.Is(err, domain.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Conflict",
			"message": "A payment submission is already in flight for this session",
		})
	case errors.Is(err, domain.ErrSequenceViolation):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Conflict",
			"message": "Obligation is not the next payable in its plan",
		})
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "Payment Required",
			"message": "Insufficient funds",
		})
	case domain.IsUnknownOutcome(err):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Bad Gateway",
			"message": "The payment service is unavailable, please try again shortly",
		})
	case errors.As(err, &re):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Unprocessable Entity",
			"message": re.UserMessage(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Something went wrong, please try again",
		})
	}
}
