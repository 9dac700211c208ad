package internal

import (
	"fmt"
	"log/slog"

	"desa-portal/internal/config"
	"desa-portal/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

const finalNumberIndex = "idx_letter_requests_final_nomor_surat"

func InitDB(cfg *config.Config, log *slog.Logger) error {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN())
	default:
		dialector = postgres.Open(cfg.Database.DSN())
	}

	gormLogLevel := logger.Warn
	if cfg.Server.Environment == "production" {
		gormLogLevel = logger.Error
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(DB, log); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database connected and migrated", "driver", cfg.Database.Driver)
	return nil
}

// Migrate creates the letter tables. Reference tables owned by the rest of
// the portal are created only when missing, so a fresh install can run alone.
func Migrate(db *gorm.DB, log *slog.Logger) error {
	if err := db.AutoMigrate(
		&models.LetterTemplate{},
		&models.LetterRequest{},
		&models.Statistics{},
		&models.ActivityLog{},
	); err != nil {
		return err
	}

	for _, table := range []interface{}{
		&models.KartuKeluarga{},
		&models.Penduduk{},
		&models.PerangkatDesa{},
		&models.SiteSetting{},
		&models.User{},
	} {
		if db.Migrator().HasTable(table) {
			continue
		}
		if err := db.Migrator().CreateTable(table); err != nil {
			return err
		}
	}

	return ensureFinalNumberIndex(db, log)
}

// ensureFinalNumberIndex makes assigned letter numbers unique while leaving
// TEMP- placeholders free to repeat.
func ensureFinalNumberIndex(db *gorm.DB, log *slog.Logger) error {
	switch db.Dialector.Name() {
	case "postgres":
		return db.Exec(fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS %s ON letter_requests (nomor_surat) WHERE nomor_surat NOT LIKE 'TEMP-%%'`,
			finalNumberIndex,
		)).Error

	case "mysql":
		// MySQL has no partial indexes; index a generated column that is NULL
		// for placeholders instead.
		if !db.Migrator().HasColumn("letter_requests", "final_nomor_surat") {
			log.Info("adding final_nomor_surat column to letter_requests")
			if err := db.Exec(`ALTER TABLE letter_requests ADD COLUMN final_nomor_surat varchar(191)
				GENERATED ALWAYS AS (IF(nomor_surat LIKE 'TEMP-%', NULL, nomor_surat)) STORED`).Error; err != nil {
				return fmt.Errorf("failed to add final_nomor_surat column: %w", err)
			}
		}
		if !db.Migrator().HasIndex("letter_requests", finalNumberIndex) {
			if err := db.Exec(fmt.Sprintf(
				`CREATE UNIQUE INDEX %s ON letter_requests (final_nomor_surat)`, finalNumberIndex,
			)).Error; err != nil {
				return fmt.Errorf("failed to create %s: %w", finalNumberIndex, err)
			}
		}
		return nil
	}

	log.Warn("letter number uniqueness is only enforced by the service", "dialect", db.Dialector.Name())
	return nil
}

func CloseDB() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
