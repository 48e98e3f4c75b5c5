// Package database is the relational storage backend.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (SQLite or PostgreSQL), migrations
//	├── backend.go       # storage.Backend implementation
//	├── songs/           # songs table
//	├── members/         # members table
//	├── categories/      # categories table (unique names)
//	├── choirs/          # choirs table, member ids as JSON text
//	└── settings/        # settings and verse_rotation singleton rows
//
// # Using Sub-packages
//
// Each sub-package provides a Repository with LoadAll and ReplaceAll:
//
//	db, err := database.NewDatabase(database.Config{Path: "./choir_app.db"})
//	songsRepo := songs.NewRepository(db.DB)
//	all, err := songsRepo.LoadAll(ctx)
//
// Most callers go through Backend instead, which is handed to
// storage.NewService:
//
//	svc := storage.NewService(database.NewBackend(cfg))
//	err := svc.Init(ctx)
//
// # Adding a New Table
//
//  1. Create a new sub-package: internal/database/<name>/
//  2. Define a Row struct with TableName and entity conversions
//  3. Add NewRepository(db *gorm.DB) with LoadAll/ReplaceAll
//  4. Register the Row in NewDatabase's AutoMigrate call
package database
