package server

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authservice "github.com/tekiplanet/payflow/internal/application/auth"
	"github.com/tekiplanet/payflow/internal/application/ledgersvc"
	"github.com/tekiplanet/payflow/internal/application/planner"
	"github.com/tekiplanet/payflow/internal/application/workflow"
	"github.com/tekiplanet/payflow/internal/domain/interfaces"
	"github.com/tekiplanet/payflow/internal/server/handlers"
	"github.com/tekiplanet/payflow/internal/server/middleware"
	"github.com/tekiplanet/payflow/internal/server/websocket"
	"github.com/tekiplanet/payflow/pkg/config"
)

type Server struct {
	WorkflowSvc workflow.IWorkflowService
	PlanSvc     planner.IPlanService
	LedgerSvc   ledgersvc.ILedgerService
	AuthSvc     authservice.IAuthService
	BankClient  interfaces.BankAccountsClient
	Cfg         *config.Config
	Logger      zerolog.Logger
	Router      *gin.Engine
	httpServer  *http.Server
	WsHub       *websocket.WsHub
	DB          *sql.DB
}

func New(
	cfg *config.Config,
	workflowSvc workflow.IWorkflowService,
	planSvc planner.IPlanService,
	ledgerSvc ledgersvc.ILedgerService,
	authSvc authservice.IAuthService,
	bankClient interfaces.BankAccountsClient,
	db *sql.DB,
	logger zerolog.Logger,
	wsHub *websocket.WsHub,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	return &Server{
		Cfg:         cfg,
		WorkflowSvc: workflowSvc,
		PlanSvc:     planSvc,
		LedgerSvc:   ledgerSvc,
		AuthSvc:     authSvc,
		BankClient:  bankClient,
		DB:          db,
		Logger:      logger,
		Router:      router,
		WsHub:       wsHub,
	}
}

func (s *Server) SetupRouter() {
	mw := middleware.NewMiddleware(s.AuthSvc, s.Logger)
	mw.SetupMiddleware(s.Router)

	handler := handlers.New(
		s.WorkflowSvc,
		s.PlanSvc,
		s.LedgerSvc,
		s.BankClient,
		s.WsHub,
		mw,
		s.DB,
		s.Logger,
		s.Cfg,
	)
	handler.SetupHandlers(s.Router)
}

func (s *Server) Start() {
	s.SetupRouter()

	s.httpServer = &http.Server{
		Addr:         s.Cfg.Server.Host + ":" + s.Cfg.Server.Port,
		Handler:      s.Router,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	s.Logger.Info().Msgf("Starting server on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-stopChan
	s.Logger.Info().Msg("Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	s.Logger.Info().Msg("Server exited gracefully")
}
