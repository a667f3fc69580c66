package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vnkhanh/matching-server/models"
)

// ConnectDB opens PostgreSQL and migrates the tables.
func ConnectDB(cfg *Config, log logrus.FieldLogger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if !cfg.IsProduction() {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN(cfg.TimeZone)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.SiteUser{},
		&models.Matching{},
		&models.Apply{},
		&models.Notification{},
		&models.ExportJob{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("host", cfg.Database.Host).Info("connected to PostgreSQL and migrated")
	return db, nil
}
