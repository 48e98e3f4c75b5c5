// Package interfaces documents the core abstractions used throughout the application.
//
// # Storage
//
//   - storage.Backend: named-collection persistence (internal/storage/backend.go).
//     Implemented by database.Backend (SQLite or PostgreSQL through GORM) and
//     kvstore.Store (one JSON document per collection on an afero filesystem).
//   - storage.Service: the library facade. Every read falls back to an empty
//     collection; every write rewrites the whole collection.
//
// # HTTP
//
// The handlers in internal/http depend on narrow store interfaces
// (SongStore, MemberStore, CategoryStore, ChoirStore, SettingsStore,
// DataStore) that storage.Service satisfies through http.Library.
//
// # Background Work
//
//   - http.TaskQueue / scheduler.Enqueuer: backlite task submission
//     (internal/tasks/client.go).
//   - http.BackupRunner: on-demand backups (internal/scheduler/backup.go).
//
// # Events
//
// events.Bus is the in-process publish/subscribe bus. Handlers publish
// through http.Publisher; the SSE stream reads through http.Subscriber.
//
// The compile-time checks in checks.go keep these relationships honest.
package interfaces
