// Package store persists arranged layouts.
//
// Layouts are keyed by UUID. [FileStore] keeps one JSON file per layout and is
// used by the CLI; [SQLiteStore] keeps them all in one database file;
// [MongoStore] keeps one document per layout for server deployments. All
// of them only accept canonical lowercase UUIDs as ids, so an id can never
// address anything outside the store.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/warren/pkg/layout"
)

// Store saves and loads layouts.
type Store interface {
	// Save stores l and returns its id. A layout without an id gets a new
	// one; a layout with an id replaces the stored copy.
	Save(ctx context.Context, l *layout.Layout) (string, error)

	// Load returns the layout with the given id or a LAYOUT_NOT_FOUND error.
	Load(ctx context.Context, id string) (*layout.Layout, error)

	// List returns summaries of all stored layouts, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a layout. Deleting a missing layout is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the backend.
	Close() error
}

// Summary describes a stored layout without its rooms.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Seed      string    `json:"seed" bson:"seed"`
	Complete  bool      `json:"complete" bson:"complete"`
	Rooms     int       `json:"rooms" bson:"room_count"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// record is the stored form of a layout.
type record struct {
	Layout    layout.Layout `json:"layout" bson:",inline"`
	RoomCount int           `json:"room_count" bson:"room_count"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}

func newRecord(l *layout.Layout, now time.Time) record {
	if l.ID == "" {
		l.ID = NewID()
	}
	return record{Layout: *l, RoomCount: len(l.Rooms), CreatedAt: now.UTC()}
}

func (r record) summary() Summary {
	return Summary{
		ID:        r.Layout.ID,
		Seed:      r.Layout.Seed,
		Complete:  r.Layout.Complete,
		Rooms:     r.RoomCount,
		CreatedAt: r.CreatedAt,
	}
}

// NewID returns a fresh layout id.
func NewID() string {
	return uuid.NewString()
}
