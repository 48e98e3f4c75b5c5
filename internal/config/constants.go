package config

// Default paths for local data
const (
	// DefaultDatabasePath is the SQLite file used by the relational backend
	DefaultDatabasePath = "./choir_app.db"

	// DefaultKVDir holds the JSON blobs of the key-value backend
	DefaultKVDir = "./choir_app_data"

	DefaultMediaDir  = "./media"
	DefaultBackupDir = "./backups"
)

// Storage backends selectable with STORAGE_BACKEND
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendKV       = "kv"
)
