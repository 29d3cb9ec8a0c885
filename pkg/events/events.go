// Package events carries catalog change notifications from the song service to
// subscribers such as the websocket feed and NATS.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	SongCreated   = "SONG_CREATED"
	SongUpdated   = "SONG_UPDATED"
	SongDeleted   = "SONG_DELETED"
	CatalogSeeded = "CATALOG_SEEDED"
	Subscribed    = "SUBSCRIBED"
)

type Event struct {
	Type    string          `json:"type"`
	SongID  int64           `json:"song_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// New stamps the event and marshals payload; a payload that cannot be encoded is dropped.
func New(eventType string, songID int64, payload any) Event {
	e := Event{Type: eventType, SongID: songID, At: time.Now().UTC()}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			e.Payload = data
		}
	}
	return e
}

// Publisher must not block the caller for long; request handlers publish inline.
type Publisher interface {
	Publish(e Event)
}

type Nop struct{}

func (Nop) Publish(Event) {}

// Multi fans an event out to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(e Event) {
	for _, p := range m {
		p.Publish(e)
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}
