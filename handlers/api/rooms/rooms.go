package rooms

import (
	"net/http"

	"collab-server/core"

	"github.com/go-chi/render"
)

// Lister reports the rooms that currently have connected sessions.
type Lister interface {
	Rooms() []core.Room
}

func HandleList(lister Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := lister.Rooms()
		if rooms == nil {
			rooms = []core.Room{}
		}
		render.JSON(w, r, rooms)
	}
}
