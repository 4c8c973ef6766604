package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/dispatcher"
	"github.com/ningi265/hrms-client-sub001/internal/application/orchestrator"
	"github.com/ningi265/hrms-client-sub001/internal/application/sideeffect"
	appwf "github.com/ningi265/hrms-client-sub001/internal/application/workflow"
	"github.com/ningi265/hrms-client-sub001/internal/config"
	"github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
	"github.com/ningi265/hrms-client-sub001/internal/infrastructure/external/delivery"
	"github.com/ningi265/hrms-client-sub001/internal/infrastructure/external/document"
	"github.com/ningi265/hrms-client-sub001/internal/infrastructure/external/lark"
	"github.com/ningi265/hrms-client-sub001/internal/infrastructure/persistence/repository"
	"github.com/ningi265/hrms-client-sub001/internal/infrastructure/persistence/sqlite"
	"github.com/ningi265/hrms-client-sub001/internal/infrastructure/storage"
	"github.com/ningi265/hrms-client-sub001/internal/infrastructure/worker"
	httpapi "github.com/ningi265/hrms-client-sub001/internal/interfaces/http"
	"github.com/ningi265/hrms-client-sub001/pkg/database"
	"github.com/ningi265/hrms-client-sub001/pkg/utils"
)

func main() {
	// .env is optional; real deployments set variables in the environment
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting procurement workflow engine",
		zap.Int("port", cfg.Server.Port))

	db, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open workflow store", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories and transaction manager
	txDB := sqlite.NewDB(db.DB, logger)
	entityRepo := repository.NewEntityRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	sideEffectRepo := repository.NewSideEffectRepository(db.DB, logger)

	// External collaborators
	larkSDK := lark.NewSDKClient(lark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
	}, logger)
	notifier := lark.NewNotifier(larkSDK, logger)

	fileStorage := storage.NewLocalFileStorage(cfg.Storage.BaseDir, logger)
	folderManager := storage.NewLocalFolderManager(cfg.Storage.DeliveryDir, logger)
	documents := document.NewGenerator(fileStorage, logger)
	deliveries := delivery.NewRecorder(fileStorage, folderManager, logger)

	// Engine core
	events := dispatcher.NewDispatcher(logger)
	defer events.Close()

	effects := sideeffect.NewDispatcher(sideEffectRepo, entityRepo, sideeffect.RetryPolicy{
		MaxAttempts:       cfg.Engine.MaxAttempts,
		InitialBackoff:    cfg.Engine.InitialBackoff,
		BackoffMultiplier: cfg.Engine.BackoffMultiplier,
		MaxBackoff:        cfg.Engine.MaxBackoff,
	}, events, logger)
	defer effects.Close()

	sideeffect.RegisterDefaultHandlers(effects, sideeffect.Collaborators{
		Notifier: notifier,
		Docs:     documents,
		Delivery: deliveries,
	}, logger)

	registry := appwf.NewRegistry()
	executor := appwf.NewExecutor(registry, entityRepo, historyRepo, txDB, effects, events, logger)

	// Orchestrators
	vendors := orchestrator.NewVendorOrchestrator(executor, entityRepo)
	requisitions := orchestrator.NewRequisitionOrchestrator(executor, entityRepo)
	travel := orchestrator.NewTravelOrchestrator(executor, entityRepo, logger)
	tenders := orchestrator.NewTenderOrchestrator(executor, entityRepo, vendors, logger)
	purchaseOrders := orchestrator.NewPurchaseOrderOrchestrator(executor, entityRepo, vendors, effects)
	invoices := orchestrator.NewInvoiceOrchestrator(executor, entityRepo, vendors)

	effects.RegisterCompletionHook(workflow.KindTravelRequest, travel.CompletionHook())

	// Background workers
	workers := worker.NewWorkerManager(logger)
	workers.Register(worker.NewDeadlineSweeper(tenders, cfg.Engine.SweepInterval, logger))
	workers.Register(worker.NewRetryWorker(effects, cfg.Engine.RetryInterval, cfg.Engine.RetryBatchSize, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	// HTTP server
	handlers := httpapi.NewHandlers(executor, requisitions, travel, tenders, purchaseOrders, invoices, vendors, logger)
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	cancel()

	if err := workers.StopAll(); err != nil {
		logger.Error("Worker shutdown error", zap.Error(err))
	}
	if err := server.Stop(); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
