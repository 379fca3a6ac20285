package db

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cpg716/SuitSync-sub003/internal/config"
	"github.com/cpg716/SuitSync-sub003/internal/models"
)

func NewDB(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg.DBUrl)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return db
}

// Open connects, tunes the pool and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.User{},
		&models.Party{},
		&models.PartyMember{},
		&models.Appointment{},
		&models.AlterationJob{},
		&models.NotificationSchedule{},
		&models.Settings{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	// singleton settings row
	return db.Exec(`
        INSERT INTO settings (id, reminder_intervals, early_morning_cutoff, created_at, updated_at)
        VALUES (1, '24,3', '09:30', NOW(), NOW())
        ON CONFLICT (id) DO NOTHING
    `).Error
}
