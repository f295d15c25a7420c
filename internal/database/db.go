package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"project-tracker/internal/config"
	"project-tracker/internal/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const maxAttempts = 10

// Open connects to the configured store, retrying while postgres comes up,
// and runs migrations.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN + "?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)")
	default:
		dialector = postgres.Open(cfg.DBDSN)
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= maxAttempts; i++ {
		log.Info("connecting to database", slog.String("driver", cfg.DBDriver), slog.Int("attempt", i))

		db, err = gorm.Open(dialector, gormConfig(cfg.IsDevelopment()))
		if err == nil {
			break
		}

		log.Warn("database connection failed", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect after %d attempts: %w", maxAttempts, err)
	}

	if cfg.DBDriver == "sqlite" {
		// one writer at a time keeps transactions serialised
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func gormConfig(verbose bool) *gorm.Config {
	level := gormlogger.Warn
	if verbose {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(level),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	}
}

// Migrate registers the assignment join table and creates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Project{}, "AssignedTechnicians", &models.ProjectAssignment{}); err != nil {
		return fmt.Errorf("setup join table: %w", err)
	}
	if err := db.SetupJoinTable(&models.User{}, "Projects", &models.ProjectAssignment{}); err != nil {
		return fmt.Errorf("setup join table: %w", err)
	}
	err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Project{},
		&models.ProjectAssignment{},
		&models.Comment{},
		&models.SentEmail{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SeedAdmin creates the first admin when no admin exists yet.
func SeedAdmin(db *gorm.DB, seed config.AdminSeed, log *slog.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}
	if seed.Password == "" {
		log.Warn("no admin user and ADMIN_PASSWORD not set; skipping admin seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Email:        seed.Email,
		Name:         seed.Name,
		PasswordHash: string(hash),
		IsAdmin:      true,
	}
	if err := db.Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || IsUniqueViolation(err) {
			return fmt.Errorf("seed admin: %s already exists as a technician", seed.Email)
		}
		return fmt.Errorf("seed admin: %w", err)
	}

	log.Info("created default admin user", slog.String("email", seed.Email))
	return nil
}

// ForUpdate adds a row lock on dialects that support one.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
