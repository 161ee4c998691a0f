package main

import (
	authservice "github.com/tekiplanet/payflow/internal/application/auth"
	"github.com/tekiplanet/payflow/internal/application/executor"
	"github.com/tekiplanet/payflow/internal/application/ledgersvc"
	"github.com/tekiplanet/payflow/internal/application/planner"
	"github.com/tekiplanet/payflow/internal/application/workflow"
	"github.com/tekiplanet/payflow/internal/infrastructure/database"
	"github.com/tekiplanet/payflow/internal/infrastructure/http/clients"
	"github.com/tekiplanet/payflow/internal/infrastructure/navigation"
	"github.com/tekiplanet/payflow/internal/repositories/obligationrepo"
	"github.com/tekiplanet/payflow/internal/repositories/sessionrepo"
	"github.com/tekiplanet/payflow/internal/server"
	"github.com/tekiplanet/payflow/internal/server/websocket"
	"github.com/tekiplanet/payflow/pkg/config"
	"github.com/tekiplanet/payflow/pkg/logger"
)

func main() {
	logger := logger.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.ShutDown()

	wsHub := websocket.NewWsHub(logger)
	go wsHub.Run()

	ledgerClient := clients.NewLedgerClient(cfg.Ledger, logger)
	plansClient := clients.NewPlansClient(cfg.Plans, logger)
	bankClient := clients.NewBankAccountsClient(cfg.BankAccounts, logger)

	obligationRepo := obligationrepo.New(db, logger)
	sessionRepo := sessionrepo.NewRedis(cfg.Redis, cfg.Workflow.SessionTTL, logger)

	navigator := navigation.New(cfg.Workflow)

	ledgerSvc := ledgersvc.New(ledgerClient, wsHub, cfg.CurrencyCode, logger)
	planSvc := planner.New(obligationRepo, plansClient, wsHub, cfg.CurrencyCode, logger)
	exec := executor.New(
		ledgerSvc,
		planSvc,
		plansClient,
		obligationRepo,
		sessionRepo,
		wsHub,
		cfg.Workflow,
		logger,
	)
	workflowSvc := workflow.New(
		sessionRepo,
		ledgerSvc,
		planSvc,
		exec,
		navigator,
		wsHub,
		cfg.Withdrawal,
		logger,
	)

	authSvc := authservice.NewAuthService(cfg, logger)

	srv := server.New(cfg, workflowSvc, planSvc, ledgerSvc, authSvc, bankClient, db.Db, logger, wsHub)
	srv.Start()
}
