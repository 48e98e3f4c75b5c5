package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Storage
		Database
		KV
		Media
		Backup
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		ReadOnly                 bool // Reject API writes
	}
	Storage struct {
		Backend string // sqlite, postgres or kv
	}
	Database struct {
		Path     string
		DSN      string // PostgreSQL connection string
		LogLevel string
	}
	KV struct {
		Dir string
	}
	Media struct {
		Dir string // Uploaded audio attachments
	}
	Backup struct {
		Enabled  bool
		Schedule string // Cron format: "0 0 * * *" = daily at midnight
		Dir      string
		Keep     int // Newest backup files kept after each run
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

// LoadDotEnv reads variables from the given .env files (default ".env")
// into the process environment. Missing files are ignored and variables
// already set win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Printf("Warning: failed to load %s: %v", f, err)
			}
			continue
		}
		log.Printf("Loaded environment from %s", f)
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("read_only", false)

	v.SetDefault("storage_backend", BackendSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")
	v.SetDefault("kv_dir", DefaultKVDir)
	v.SetDefault("media_dir", DefaultMediaDir)

	// Backup defaults
	v.SetDefault("backup_enabled", false)
	v.SetDefault("backup_schedule", "0 0 * * *") // Daily at midnight
	v.SetDefault("backup_dir", DefaultBackupDir)
	v.SetDefault("backup_keep", 7)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "5m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			ReadOnly:                 v.GetBool("READ_ONLY"),
		},
		Storage: Storage{
			Backend: strings.ToLower(v.GetString("STORAGE_BACKEND")),
		},
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		KV: KV{
			Dir: v.GetString("KV_DIR"),
		},
		Media: Media{
			Dir: v.GetString("MEDIA_DIR"),
		},
		Backup: Backup{
			Enabled:  v.GetBool("BACKUP_ENABLED"),
			Schedule: v.GetString("BACKUP_SCHEDULE"),
			Dir:      v.GetString("BACKUP_DIR"),
			Keep:     v.GetInt("BACKUP_KEEP"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendKV:
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("STORAGE_BACKEND=postgres requires DATABASE_DSN")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want sqlite, postgres or kv)", c.Storage.Backend)
	}
	if c.Backup.Keep < 1 {
		return fmt.Errorf("BACKUP_KEEP must be at least 1, got %d", c.Backup.Keep)
	}
	return nil
}
