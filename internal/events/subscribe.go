package events

import "sync"

// Event is a delivered emission, as seen by channel subscribers.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// All lists every event the application emits.
var All = []string{
	SongsAdded, SongsUpdated, SongsDeleted,
	MembersAdded, MembersUpdated, MembersDeleted,
	CategoriesAdded, CategoriesUpdated, CategoriesDeleted,
	ChoirsAdded, ChoirsUpdated, ChoirsDeleted,
	SettingsUpdated, DataImported, DataReset,
}

// Subscribe delivers the named events on a buffered channel. When the buffer
// is full new events are dropped so Emit never blocks on a slow reader.
// cancel unregisters the handlers and closes the channel.
func (b *Bus) Subscribe(buffer int, names ...string) (<-chan Event, func()) {
	if len(names) == 0 {
		names = All
	}
	ch := make(chan Event, buffer)

	var (
		mu     sync.Mutex
		closed bool
	)
	unsubscribers := make([]func(), 0, len(names))
	for _, name := range names {
		name := name
		unsubscribers = append(unsubscribers, b.On(name, func(payload any) {
			mu.Lock()
			defer mu.Unlock()
			if closed {
				return
			}
			select {
			case ch <- Event{Name: name, Payload: payload}:
			default:
			}
		}))
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			for _, unsubscribe := range unsubscribers {
				unsubscribe()
			}
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
	return ch, cancel
}
