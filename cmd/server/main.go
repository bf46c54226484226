package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/edbgroup/paperflow/internal/application/dispatcher"
	"github.com/edbgroup/paperflow/internal/application/port"
	"github.com/edbgroup/paperflow/internal/application/service"
	"github.com/edbgroup/paperflow/internal/config"
	httpadapter "github.com/edbgroup/paperflow/internal/interfaces/http"
	"github.com/edbgroup/paperflow/internal/lark"
	"github.com/edbgroup/paperflow/internal/notification"
	"github.com/edbgroup/paperflow/internal/repository"
	"github.com/edbgroup/paperflow/internal/storage"
	"github.com/edbgroup/paperflow/pkg/database"
	"github.com/edbgroup/paperflow/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
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
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	recordRepo := repository.NewRecordRepository(db, logger)
	auditRepo := repository.NewAuditRepository(db, logger)
	userRepo := repository.NewUserRepository(db, logger)

	kvLogger := utils.NewKVLogger(logger)

	// Initialize event dispatcher and workflow engine
	eventDispatcher := dispatcher.New(kvLogger)
	defer eventDispatcher.Close()

	engine := service.NewEngine(recordRepo, auditRepo, db, eventDispatcher, kvLogger)
	timeline := service.NewTimelineService(recordRepo, auditRepo, kvLogger)

	// Initialize the notification path. Delivery goes through Lark when
	// configured, otherwise to the log.
	var delivery port.DeliveryChannel
	if cfg.Lark.Enabled {
		larkClient := lark.NewClient(lark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
		}, logger)
		delivery = lark.NewMessenger(larkClient, logger)
	} else {
		delivery = notification.NewLogChannel(logger)
	}

	notifier := service.NewNotificationService(recordRepo, userRepo, delivery, kvLogger)
	notifier.Register(eventDispatcher)

	// Initialize attachment storage
	attachmentStore := storage.NewAttachmentStore(cfg.Storage.AttachmentsDir, logger)
	if err := os.MkdirAll(cfg.Storage.AttachmentsDir, 0755); err != nil {
		logger.Fatal("Failed to create attachments directory", zap.Error(err))
	}

	// Initialize HTTP server
	authCfg := httpadapter.AuthConfig{
		SigningKey: []byte(cfg.Auth.SigningKey),
		Issuer:     cfg.Auth.Issuer,
		ExpiresIn:  cfg.Auth.ExpiresIn,
	}
	handlers := httpadapter.NewHandlers(engine, timeline, userRepo, attachmentStore, authCfg, kvLogger)
	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, authCfg, kvLogger)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

func configPath() string {
	if p := os.Getenv("PAPERFLOW_CONFIG"); p != "" {
		return p
	}
	return "configs/config.yaml"
}
