package whiteboards

import (
	"encoding/json"
	"errors"
	"net/http"

	"collab-server/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type CreateRequest struct {
	Title string `json:"title"`
}

func HandleList(store core.WhiteboardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boards, err := store.List(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list whiteboards")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Internal server error"})
			return
		}
		if boards == nil {
			boards = []core.Whiteboard{}
		}
		render.JSON(w, r, boards)
	}
}

func HandleCreate(store core.WhiteboardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		wb, err := store.Create(r.Context(), req.Title)
		if err != nil {
			logrus.WithError(err).Error("Failed to create whiteboard")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Internal server error"})
			return
		}
		render.JSON(w, r, wb)
	}
}

func HandleGet(store core.WhiteboardStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		wb, err := store.Get(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Whiteboard not found"})
			return
		}
		if err != nil {
			logrus.WithField("whiteboard_id", id).WithError(err).Error("Failed to get whiteboard")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Internal server error"})
			return
		}
		render.JSON(w, r, wb)
	}
}

// HandleDelete removes the whiteboard and tells any sessions still in its room.
func HandleDelete(store core.WhiteboardStore, notifier core.RoomNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := store.Delete(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Whiteboard not found"})
			return
		}
		if err != nil {
			logrus.WithField("whiteboard_id", id).WithError(err).Error("Failed to delete whiteboard")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Internal server error"})
			return
		}

		if err := notifier.ToRoom(id, "wb-deleted", map[string]any{"id": id}); err != nil {
			logrus.WithField("whiteboard_id", id).WithError(err).Warn("Failed to notify room about deletion")
		}

		render.JSON(w, r, map[string]string{"message": "Whiteboard deleted successfully"})
	}
}
