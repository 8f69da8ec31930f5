package core

import (
	"context"
	"errors"
)

// ErrRoomNotFound is returned by the strict store paths when the room
// identifier is unknown.
var ErrRoomNotFound = errors.New("room not found")

type (
	// Room is the full state of one shared document at one instant.
	// Store operations hand out copies; the store keeps the only mutable
	// value.
	Room struct {
		ID           string   `json:"id"`
		Text         string   `json:"text"`
		Language     Language `json:"language"`
		LastModified int64    `json:"last_modified"`
	}

	// RoomStore owns all room state. Every operation is atomic with
	// respect to concurrent calls on the same identifier, and
	// LastModified never decreases across successive mutations of a
	// room.
	RoomStore interface {
		// Create allocates a fresh identifier and stores a new room.
		Create(ctx context.Context, text, language string) (*Room, error)
		// Get returns the current snapshot, or ErrRoomNotFound.
		Get(ctx context.Context, id string) (*Room, error)
		// Update applies the non-nil fields to an existing room, or
		// fails with ErrRoomNotFound.
		Update(ctx context.Context, id string, text, language *string) (*Room, error)
		// Upsert is Update, except an unknown identifier instantiates
		// the room with defaults plus the supplied fields.
		Upsert(ctx context.Context, id string, text, language *string) (*Room, error)
		// List returns an independent copy of the whole mapping.
		List(ctx context.Context) (map[string]Room, error)
	}
)
