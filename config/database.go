package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const Schema = "scorekeeper"

// GormConfig is shared by the server and the integration tests so both resolve the same table names.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   Schema + ".",
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	}
}

// InitDB opens the connection and makes sure the schema exists. Tables are created by
// the migrations runner, or by repository.AutoMigrate in development.
func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Exec(`CREATE SCHEMA IF NOT EXISTS ` + Schema).Error; err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}
