package documents

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

func HandleList(store core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := store.List(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list documents")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Internal server error"})
			return
		}
		if docs == nil {
			docs = []core.Document{}
		}
		render.JSON(w, r, docs)
	}
}

func HandleCreate(store core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		// An absent or malformed body creates an untitled document, same
		// as posting {"title": ""}.
		_ = json.NewDecoder(r.Body).Decode(&req)

		doc, err := store.Create(r.Context(), req.Title)
		if err != nil {
			logrus.WithError(err).Error("Failed to create document")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Internal server error"})
			return
		}
		render.JSON(w, r, doc)
	}
}

func HandleGet(store core.DocumentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		doc, err := store.Get(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Document not found"})
			return
		}
		if err != nil {
			logrus.WithField("document_id", id).WithError(err).Error("Failed to get document")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Internal server error"})
			return
		}
		render.JSON(w, r, doc)
	}
}

// HandleDelete removes the document and tells any sessions still in its room,
// so open editors can navigate away.
func HandleDelete(store core.DocumentStore, notifier core.RoomNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := store.Delete(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Document not found"})
			return
		}
		if err != nil {
			logrus.WithField("document_id", id).WithError(err).Error("Failed to delete document")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Internal server error"})
			return
		}

		if err := notifier.ToRoom(id, "doc-deleted", map[string]any{"id": id}); err != nil {
			logrus.WithField("document_id", id).WithError(err).Warn("Failed to notify room about deletion")
		}

		render.JSON(w, r, map[string]string{"message": "Document deleted successfully"})
	}
}
