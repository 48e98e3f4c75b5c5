package http

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Library Library
	Bus     EventBus

	// Directory audio uploads are copied into
	MediaDir string

	// Task queue client (optional). Imports recompute category counts
	// inline when it is nil.
	TaskQueue TaskQueue

	// On-demand backups (optional)
	Backups BackupRunner

	// Reject writes with 403
	ReadOnly bool

	// Application info
	Version string
}

// EventBus is both ends of the in-process event bus.
type EventBus interface {
	Publisher
	Subscriber
}

// noopPublisher is used when the router is built without a bus.
type noopPublisher struct{}

func (noopPublisher) Emit(string, any) {}
