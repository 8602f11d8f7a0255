package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"av-maintenance-backend/config"
	"av-maintenance-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate creates the schema and the alert dedup index. Split out from Init
// so tests can run it against an in-memory sqlite database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Facility{},
		&model.Equipment{},
		&model.MaintenanceTask{},
		&model.MaintenanceSchedule{},
		&model.Alert{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	if err := ApplyAlertDedupIndex(db); err != nil {
		return fmt.Errorf("alert dedup index: %w", err)
	}
	return nil
}

// ApplyAlertDedupIndex installs the partial unique index that closes the
// check-then-create race on alert creation: at most one unresolved alert may
// exist per (facility, equipment, schedule, alert_type) tuple. NULL subject
// ids are folded to 0 so rows with the same type and no subject still
// collide. The store treats insert conflicts as "already exists".
func ApplyAlertDedupIndex(db *gorm.DB) error {
	ddl := "CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_open_dedup ON alerts " +
		"(alert_type, COALESCE(facility_id, 0), COALESCE(equipment_id, 0), COALESCE(schedule_id, 0)) " +
		"WHERE NOT is_resolved"
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("DDL failed on %q: %w", ddl, err)
	}
	return nil
}
