package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	DatabaseTypeSQLite DatabaseType = "sqlite"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type   DatabaseType `json:"type"`
	SQLite SQLiteConfig `json:"sqlite"`
}

// SQLiteConfig holds SQLite specific configuration
type SQLiteConfig struct {
	Path string `json:"path"`
	// Pragmas appended to the DSN query string.
	JournalMode string `json:"journalMode"`
	Synchronous string `json:"synchronous"`
}

// GetDSN returns the data source name for the database
func (c *DatabaseConfig) GetDSN() string {
	journal := c.SQLite.JournalMode
	if journal == "" {
		journal = "WAL"
	}
	sync := c.SQLite.Synchronous
	if sync == "" {
		sync = "NORMAL"
	}
	return fmt.Sprintf("%s?cache=shared&_journal_mode=%s&_synchronous=%s&_busy_timeout=5000",
		c.SQLite.Path, journal, sync)
}

// GetDefaultDatabaseConfig returns default database configuration
func GetDefaultDatabaseConfig() *DatabaseConfig {
	return NewSQLiteConfig(GetDBPath())
}

// NewSQLiteConfig returns a SQLite configuration for the given file.
func NewSQLiteConfig(path string) *DatabaseConfig {
	return &DatabaseConfig{
		Type: DatabaseTypeSQLite,
		SQLite: SQLiteConfig{
			Path:        path,
			JournalMode: "WAL",
			Synchronous: "NORMAL",
		},
	}
}

// ValidateConfig validates the database configuration
func (c *DatabaseConfig) ValidateConfig() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLite path cannot be empty")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// EnsureDirectoryExists ensures the directory for SQLite database exists
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	if c.Type == DatabaseTypeSQLite {
		dir := filepath.Dir(c.SQLite.Path)
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
