package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/approval-flow/internal/application/dispatcher"
	"github.com/garyjia/approval-flow/internal/application/service"
	"github.com/garyjia/approval-flow/internal/config"
	"github.com/garyjia/approval-flow/internal/domain/engine"
	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/approval-flow/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/garyjia/approval-flow/internal/interfaces/http"
	"github.com/garyjia/approval-flow/internal/report"
	"github.com/garyjia/approval-flow/pkg/database"
	"github.com/garyjia/approval-flow/pkg/utils"
)

func main() {
	// Load .env if present, real environment wins
	gotenv.Load()

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

	logger.Info("Starting approval workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer sqlDB.Close()

	// Run migrations
	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories and transaction manager
	db := sqlite.NewDB(sqlDB, logger)
	itemRepo := repository.NewItemRepository(sqlDB, logger)
	decisionRepo := repository.NewDecisionRepository(sqlDB, logger)

	serviceLogger := utils.NewSugarAdapter(logger)

	// Initialize event dispatcher with the audit log subscriber
	d := dispatcher.New(dispatcher.WithLogger(serviceLogger))
	defer d.Close()
	service.RegisterAuditLog(d, serviceLogger)

	// Initialize the decision engine with configured rejection reasons
	eng := engine.New(
		engine.WithReasons(entity.NewReasonList(cfg.Workflow.ExtraRejectionReasons...)),
	)

	approvalService := service.NewApprovalService(itemRepo, decisionRepo, db, eng, d, serviceLogger)
	exporter := report.NewExporter(logger)

	// Initialize HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, approvalService, exporter, serviceLogger)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
