package memory

import (
	"collab-server/core"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Room identifiers are short random hex tokens, long enough that
// collisions are negligible for a single process lifetime but still
// checked for under the lock.
const roomIDLength = 8

type roomStore struct {
	mu    sync.Mutex
	rooms map[string]core.Room
}

func NewRoomStore() core.RoomStore {
	return &roomStore{
		rooms: make(map[string]core.Room),
	}
}

func newRoomID() (string, error) {
	buf := make([]byte, roomIDLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate room id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *roomStore) Create(ctx context.Context, text, language string) (*core.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	for {
		candidate, err := newRoomID()
		if err != nil {
			return nil, err
		}
		if _, taken := s.rooms[candidate]; !taken {
			id = candidate
			break
		}
	}

	room := core.Room{
		ID:           id,
		Text:         text,
		Language:     core.NormalizeLanguage(language),
		LastModified: time.Now().UnixMilli(),
	}
	s.rooms[id] = room

	logrus.WithFields(logrus.Fields{
		"room_id":  id,
		"language": room.Language,
	}).Info("Room created")

	return &room, nil
}

func (s *roomStore) Get(ctx context.Context, id string) (*core.Room, error) {
	s.mu.Lock()
	room, ok := s.rooms[id]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("room %q: %w", id, core.ErrRoomNotFound)
	}
	return &room, nil
}

func (s *roomStore) Update(ctx context.Context, id string, text, language *string) (*core.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		logrus.WithField("room_id", id).Warn("Update for unknown room")
		return nil, fmt.Errorf("room %q: %w", id, core.ErrRoomNotFound)
	}

	applyFields(&room, text, language)
	s.rooms[id] = room
	return &room, nil
}

func (s *roomStore) Upsert(ctx context.Context, id string, text, language *string) (*core.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		room = core.Room{
			ID:       id,
			Language: core.DefaultLanguage,
		}
		logrus.WithField("room_id", id).Info("Room created implicitly")
	}

	applyFields(&room, text, language)
	s.rooms[id] = room
	return &room, nil
}

func (s *roomStore) List(ctx context.Context) (map[string]core.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make(map[string]core.Room, len(s.rooms))
	for id, room := range s.rooms {
		rooms[id] = room
	}
	return rooms, nil
}

// applyFields overwrites only the supplied fields and refreshes the
// timestamp. The timestamp is bumped past its previous value when the
// clock has not advanced, so two mutations in the same millisecond still
// order. Caller holds the lock.
func applyFields(room *core.Room, text, language *string) {
	if text != nil {
		room.Text = *text
	}
	if language != nil {
		room.Language = core.NormalizeLanguage(*language)
	}

	now := time.Now().UnixMilli()
	if now <= room.LastModified {
		now = room.LastModified + 1
	}
	room.LastModified = now
}
