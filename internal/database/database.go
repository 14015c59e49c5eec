package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gamestore/backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database described by dsn.
func Connect(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	dialector, err := Dialector(dsn)
	if err != nil {
		return nil, err
	}

	// Configure GORM logger
	customLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true, // Not found is a 404, not a warning
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: customLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", dialector.Name(), err)
	}

	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database: sqlite handle: %w", err)
		}
		// A second connection to ":memory:" would see an empty database.
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Dialector picks the gorm driver for a connection string.
//
// postgres://, postgresql:// and key/value ("host=... dbname=...") strings go
// to PostgreSQL. sqlite://<path> and file: URIs go to SQLite. A SQLAlchemy
// driver suffix such as postgresql+psycopg2:// is dropped.
func Dialector(dsn string) (gorm.Dialector, error) {
	dsn = strings.TrimSpace(dsn)
	if scheme, rest, ok := strings.Cut(dsn, "://"); ok {
		base, _, _ := strings.Cut(scheme, "+")
		switch strings.ToLower(base) {
		case "postgres", "postgresql":
			return postgres.Open(base + "://" + rest), nil
		case "sqlite":
			return sqlite.Open(rest), nil
		}
		return nil, fmt.Errorf("database: unsupported scheme %q", base)
	}
	switch {
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), nil
	case strings.Contains(dsn, "host="):
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("database: unrecognised connection string")
}

// Migrate creates or updates the tables backing the models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Game{})
}

// ParseLogLevel maps a config value onto a gorm log level. Unknown values
// fall back to Warn.
func ParseLogLevel(s string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
