// Package database owns the gorm/SQLite connection and the user and post repositories.
package database

import (
	"errors"
	"strings"

	"github.com/inkwell-blog/inkwell/config"
	"github.com/inkwell-blog/inkwell/database/model"
	"github.com/inkwell-blog/inkwell/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

var (
	// ErrNoRows is returned by mutations that matched nothing.
	ErrNoRows = errors.New("no rows affected")
	// ErrNotInitialized means InitDB has not run or CloseDB already has.
	ErrNotInitialized = errors.New("database not initialized")
)

func initModels() error {
	models := []any{
		&model.User{},
		&model.Post{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			logger.Errorf("Error auto migrating model: %v", err)
			return err
		}
	}
	return nil
}

// InitDB opens the configured database, applies pragmas and migrates the schema.
func InitDB(cfg *config.DatabaseConfig) error {
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return err
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	}

	// _foreign_keys goes in the DSN so every pooled connection enforces it.
	dsn := cfg.GetDSN() + "&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), c)
	if err != nil {
		return err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if _, err = sqlDB.Exec("PRAGMA temp_store = MEMORY;"); err != nil {
		return err
	}

	db = conn
	return initModels()
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	if err := Checkpoint(); err != nil {
		logger.Warningf("error executing checkpoint: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	db = nil
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return db
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports a unique constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Checkpoint folds the WAL back into the main database file.
func Checkpoint() error {
	if db == nil {
		return nil
	}
	return db.Exec("PRAGMA wal_checkpoint(TRUNCATE);").Error
}
