package rooms

import (
	"collab-server/core"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	CreateRoomRequest struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}

	UpdateRoomRequest struct {
		Text     *string `json:"text"`
		Language *string `json:"language"`
	}

	ListRoomsResponse struct {
		Rooms map[string]core.Room `json:"rooms"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}
)

// HandleCreate creates a room with a server-generated identifier.
// Omitted fields get defaults: empty text, the default language.
func HandleCreate(store core.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
			return
		}

		room, err := store.Create(r.Context(), req.Text, req.Language)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to create room")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "failed to create room"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, room)
	}
}

// HandleList returns a point-in-time copy of every room.
func HandleList(store core.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomMap, err := store.List(r.Context())
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list rooms")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "failed to list rooms"})
			return
		}

		render.JSON(w, r, ListRoomsResponse{Rooms: roomMap})
	}
}

// HandleGet returns one room's snapshot or 404.
func HandleGet(store core.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		room, err := store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrRoomNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, ErrorResponse{Error: "room not found"})
				return
			}
			logrus.WithField("error", err).Error("Failed to get room")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "failed to get room"})
			return
		}

		render.JSON(w, r, room)
	}
}

// HandleUpdate applies a partial update to an existing room. Unlike the
// websocket path this never creates: an unknown identifier is a 404.
func HandleUpdate(store core.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req UpdateRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
			return
		}

		room, err := store.Update(r.Context(), id, req.Text, req.Language)
		if err != nil {
			if errors.Is(err, core.ErrRoomNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, ErrorResponse{Error: "room not found"})
				return
			}
			logrus.WithField("error", err).Error("Failed to update room")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "failed to update room"})
			return
		}

		render.JSON(w, r, room)
	}
}
