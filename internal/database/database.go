package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/choirbook/internal/database/categories"
	"github.com/mrlokans/choirbook/internal/database/choirs"
	"github.com/mrlokans/choirbook/internal/database/members"
	"github.com/mrlokans/choirbook/internal/database/settings"
	"github.com/mrlokans/choirbook/internal/database/songs"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver   string // sqlite (default) or postgres
	Path     string // SQLite file path
	DSN      string // PostgreSQL connection string
	LogLevel string // silent, error, warn, info
}

func (c Config) driver() string {
	if c.Driver == "" {
		return DriverSQLite
	}
	return strings.ToLower(c.Driver)
}

func (c Config) dialector() (gorm.Dialector, string, error) {
	switch c.driver() {
	case DriverSQLite:
		if c.Path == "" {
			return nil, "", fmt.Errorf("sqlite database path is empty")
		}
		if dir := filepath.Dir(c.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return sqlite.Open(c.Path), c.Path, nil
	case DriverPostgres:
		if c.DSN == "" {
			return nil, "", fmt.Errorf("postgres DSN is empty")
		}
		return postgres.Open(c.DSN), "postgres", nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
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

type Database struct {
	DB *gorm.DB
}

func NewDatabase(cfg Config) (*Database, error) {
	dialector, location, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(ParseLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&songs.Row{},
		&members.Row{},
		&categories.Row{},
		&choirs.Row{},
		&settings.Row{},
		&settings.VerseRotationRow{},
	)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", location)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
