package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/playsync/internal/service/room"
)

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	resp, err := c.roomService.GetRoom(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			c.writeError(w, http.StatusNotFound, err)
			return
		}

		c.logger.WarnContext(r.Context(), "failed to get room", "error", err)
		c.writeError(w, http.StatusInternalServerError, err)
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}
