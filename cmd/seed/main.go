// Command seed loads a set of directory users into the database so a
// fresh installation has someone to approve with. It is idempotent:
// users that already exist are left alone.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/edbgroup/paperflow/internal/config"
	"github.com/edbgroup/paperflow/internal/domain/entity"
	"github.com/edbgroup/paperflow/internal/repository"
	"github.com/edbgroup/paperflow/pkg/database"
	"github.com/edbgroup/paperflow/pkg/utils"
)

var seedUsers = []entity.User{
	{ID: "emp-001", Name: "Awa Diallo", Role: entity.RoleEmploye, DepartmentID: 1},
	{ID: "emp-002", Name: "Moussa Traore", Role: entity.RoleEmploye, DepartmentID: 2},
	{ID: "resp-001", Name: "Fatou Ndiaye", Role: entity.RoleResponsable, DepartmentID: 1},
	{ID: "resp-002", Name: "Ibrahima Sow", Role: entity.RoleResponsable, DepartmentID: 2},
	{ID: "dir-001", Name: "Aminata Ba", Role: entity.RoleDirecteur, DepartmentID: 1},
	{ID: "dir-002", Name: "Ousmane Fall", Role: entity.RoleDirecteur, DepartmentID: 2},
	{ID: "daf-001", Name: "Mariama Cisse", Role: entity.RoleDAF, DepartmentID: 3},
	{ID: "it-001", Name: "Cheikh Gueye", Role: entity.RoleServiceIT, DepartmentID: 4},
	{ID: "dg-001", Name: "Abdoulaye Kane", Role: entity.RoleDG, DepartmentID: 5},
	{ID: "admin-001", Name: "System Admin", Role: entity.RoleAdmin, DepartmentID: 5},
}

func main() {
	configPath := "configs/config.yaml"
	if p := os.Getenv("PAPERFLOW_CONFIG"); p != "" {
		configPath = p
	}

	cfg, err := config.Load(configPath)
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

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db, logger)
	ctx := context.Background()
	now := time.Now()

	var created int
	for _, u := range seedUsers {
		existing, err := userRepo.GetByID(ctx, u.ID)
		if err != nil {
			logger.Fatal("Failed to look up user", zap.String("id", u.ID), zap.Error(err))
		}
		if existing != nil {
			continue
		}

		u.CreatedAt = now
		if err := userRepo.Create(ctx, &u); err != nil {
			logger.Fatal("Failed to create user", zap.String("id", u.ID), zap.Error(err))
		}
		created++
		logger.Info("Seeded user", zap.String("id", u.ID), zap.String("role", u.Role))
	}

	logger.Info("Seeding complete", zap.Int("created", created), zap.Int("total", len(seedUsers)))
}
