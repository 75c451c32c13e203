package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/srujan4705/Code-Battle/internal/arena"
	"github.com/srujan4705/Code-Battle/internal/game"
)

// CreateRoomRequest is the request body for creating a room.
type CreateRoomRequest struct {
	ID         string `json:"id" validate:"required,max=64"`
	Name       string `json:"name,omitempty" validate:"max=100"`
	Difficulty string `json:"difficulty,omitempty" enum:"Easy,Medium,Hard"`
}

// RoomPath identifies a room in the URL.
type RoomPath struct {
	RoomID string `path:"roomID"`
}

func (req *CreateRoomRequest) validate() string {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return describeValidation(err)
	}
	if _, err := arena.ParseDifficulty(req.Difficulty); err != nil {
		return "difficulty must be Easy, Medium, or Hard"
	}
	return ""
}

func handleCreateRoom(rooms *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRoomRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		// HTTP-created rooms have no creator until someone joins.
		state, err := rooms.Create(req.ID, req.Name, "", arena.Difficulty(req.Difficulty))
		switch {
		case errors.Is(err, arena.ErrDuplicateRoom):
			writeError(w, http.StatusConflict, "room already exists")
			return
		case errors.Is(err, arena.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, state)
	}
}

func handleListRooms(rooms *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rooms.List())
	}
}

func handleGetRoom(rooms *game.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, ok := rooms.Get(chi.URLParam(r, "roomID"))
		if !ok {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}
