package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"billing-backend/config"
	"billing-backend/logger"
)

var DB *gorm.DB

// Open connects to driver ("postgres" or "sqlite") at dsn. Duplicate-key and
// foreign-key failures come back as gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func Open(driver, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	logLevel := gormlogger.Silent
	if debug {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// One writer at a time; nested transactions use savepoints on the same connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Connect opens the shared DB handle from cfg.
func Connect(cfg config.Config) error {
	db, err := Open(cfg.DBDriver, cfg.DatabaseDSN, cfg.LogLevel == "debug")
	if err != nil {
		return err
	}
	DB = db
	log := logger.WithComponent("database")
	log.Info().Str("driver", cfg.DBDriver).Msg("database connected")
	return nil
}
