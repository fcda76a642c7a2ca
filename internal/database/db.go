package database

import (
	"shoptrack/internal/model"
	"shoptrack/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Customer{},
		&model.Order{},
		&model.OrderLine{},
		&model.AuditLog{},
	)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("failed to auto-migrate models")
	}

	return db, nil
}
