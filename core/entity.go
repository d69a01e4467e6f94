package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no record exists for an id.
var ErrNotFound = errors.New("record not found")

type (
	// Document is a collaboratively edited text document. Content is an
	// opaque JSON object; the server relays and persists whole values
	// without inspecting them, so whichever write completes last wins.
	Document struct {
		ID        string         `json:"_id" bson:"_id"`
		Title     string         `json:"title" bson:"title"`
		Content   map[string]any `json:"content" bson:"content"`
		CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
		UpdatedAt time.Time      `json:"updatedAt" bson:"updatedAt"`
	}

	// Whiteboard holds an ordered list of stroke elements. Elements are
	// opaque to the server, same as Document.Content.
	Whiteboard struct {
		ID        string    `json:"_id" bson:"_id"`
		Title     string    `json:"title" bson:"title"`
		Elements  []any     `json:"elements" bson:"elements"`
		CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	}

	DocumentStore interface {
		List(ctx context.Context) ([]Document, error)
		// Create stores a new document with a server-generated id and
		// empty content ({"text": ""}).
		Create(ctx context.Context, title string) (*Document, error)
		Get(ctx context.Context, id string) (*Document, error)
		// UpdateContent unconditionally replaces the content and bumps
		// updatedAt. There is no concurrency token.
		UpdateContent(ctx context.Context, id string, content map[string]any) (*Document, error)
		Delete(ctx context.Context, id string) error
	}

	WhiteboardStore interface {
		List(ctx context.Context) ([]Whiteboard, error)
		Create(ctx context.Context, title string) (*Whiteboard, error)
		Get(ctx context.Context, id string) (*Whiteboard, error)
		UpdateElements(ctx context.Context, id string, elements []any) (*Whiteboard, error)
		Delete(ctx context.Context, id string) error
	}

	// Room describes a delivery group and how many sessions it currently has.
	Room struct {
		ID    string `json:"id"`
		Users int    `json:"users"`
	}

	// RoomNotifier delivers an event to every session joined to a room.
	// The HTTP layer uses it to tell open clients about deletions.
	RoomNotifier interface {
		ToRoom(roomID, event string, payload any) error
	}
)
