package database

import (
	"fmt"
	"time"

	"github.com/mroshb/trivia_bot/internal/config"
	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// The whole document is rewritten in one transaction, so a small pool is enough.
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected successfully")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.PlayerRow{},
		&models.QuestionRow{},
		&models.RoomRow{},
		&models.SettingRow{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// SeedQuestions inserts the default category when the questions table is empty.
func SeedQuestions(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.QuestionRow{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if count > 0 {
		return nil
	}

	logger.Info("Seeding default questions...")
	var rows []models.QuestionRow
	for category, items := range models.DefaultDocument().QuestionBank {
		for i, item := range items {
			rows = append(rows, models.QuestionRow{
				Category: category,
				Position: i,
				Prompt:   item.Prompt,
				Answer:   item.Answer,
			})
		}
	}
	return db.Create(&rows).Error
}
