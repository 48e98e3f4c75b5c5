package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/choirbook/internal/database"
	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/http"
	"github.com/mrlokans/choirbook/internal/kvstore"
	"github.com/mrlokans/choirbook/internal/scheduler"
	"github.com/mrlokans/choirbook/internal/storage"
	"github.com/mrlokans/choirbook/internal/tasks"
)

// =============================================================================
// Storage Backends
// =============================================================================

var _ storage.Backend = (*database.Backend)(nil)
var _ storage.Backend = (*kvstore.Store)(nil)

// =============================================================================
// Library Service
// =============================================================================

var _ http.Library = (*storage.Service)(nil)
var _ http.HealthChecker = (*storage.Service)(nil)
var _ tasks.Exporter = (*storage.Service)(nil)
var _ tasks.CountRecomputer = (*storage.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ http.BackupRunner = (*scheduler.BackupScheduler)(nil)

// =============================================================================
// Events
// =============================================================================

var _ http.Publisher = (*events.Bus)(nil)
var _ http.Subscriber = (*events.Bus)(nil)
