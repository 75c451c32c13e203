// Package game holds the in-memory rooms and their match state machine.
//
// All room and match state is owned by a Registry and guarded by a single
// mutex, so every operation observes and mutates a consistent view. No I/O is
// performed while the mutex is held. Operations return the Events that their
// mutation produced; fanning those out to connections is the caller's job.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

// ChallengeSource supplies the challenge for a new match.
type ChallengeSource interface {
	Challenge(ctx context.Context, difficulty arena.Difficulty) (arena.Challenge, error)
}

type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*room
	order  []string
	seq    uint64
	source ChallengeSource
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistry returns an empty registry. A nil source makes every match use
// the built-in fallback challenge.
func NewRegistry(logger *slog.Logger, source ChallengeSource) *Registry {
	return &Registry{
		rooms:  make(map[string]*room),
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// Create adds an empty room. The creator may be empty, in which case the first
// connection to join becomes the creator.
func (r *Registry) Create(id, name, creator string, difficulty arena.Difficulty) (RoomState, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return RoomState{}, fmt.Errorf("room id is required: %w", arena.ErrInvalidArgument)
	}
	d, err := arena.ParseDifficulty(string(difficulty))
	if err != nil {
		return RoomState{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; ok {
		return RoomState{}, fmt.Errorf("room %s: %w", id, arena.ErrDuplicateRoom)
	}
	rm := r.insert(id, strings.TrimSpace(name), creator, d)
	return rm.state(), nil
}

func (r *Registry) insert(id, name, creator string, d arena.Difficulty) *room {
	rm := newRoom(id, name, creator, d, r.now(), &r.seq)
	r.rooms[id] = rm
	r.order = append(r.order, id)
	return rm
}

func (r *Registry) Get(id string) (RoomState, bool) {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok {
		return RoomState{}, false
	}
	return rm.state(), true
}

// List returns room summaries in creation order.
func (r *Registry) List() []RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RoomSummary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rooms[id].summary())
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// RemoveIfEmpty deletes the room when it has no players.
func (r *Registry) RemoveIfEmpty(id string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeIfEmpty(id)
}

func (r *Registry) removeIfEmpty(id string) []Event {
	rm, ok := r.rooms[id]
	if !ok || len(rm.players) > 0 {
		return nil
	}
	delete(r.rooms, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	r.logger.Info("room removed", "room", id)
	return []Event{RoomRemoved{rm.ev()}}
}

// Join adds the connection to an existing room. found is false when the room
// does not exist, which is not an error.
func (r *Registry) Join(roomID, connID, username string) (state RoomState, found bool, events []Event, err error) {
	roomID = strings.TrimSpace(roomID)
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return RoomState{}, false, nil, nil
	}
	events, err = r.join(rm, connID, username)
	if err != nil {
		return RoomState{}, true, nil, err
	}
	return rm.state(), true, events, nil
}

// Enter joins the room, creating it first with connID as creator when it
// does not exist yet.
func (r *Registry) Enter(roomID, connID, username string, difficulty arena.Difficulty) (RoomState, []Event, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return RoomState{}, nil, fmt.Errorf("room id is required: %w", arena.ErrInvalidArgument)
	}
	d, err := arena.ParseDifficulty(string(difficulty))
	if err != nil {
		return RoomState{}, nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		rm = r.insert(roomID, "", connID, d)
		r.logger.Info("room created", "room", roomID, "creator", connID)
	}
	events, err := r.join(rm, connID, username)
	if err != nil {
		return RoomState{}, nil, err
	}
	return rm.state(), events, nil
}

func (r *Registry) join(rm *room, connID, username string) ([]Event, error) {
	if rm.match.started {
		return nil, fmt.Errorf("joining %s: %w", rm.id, arena.ErrMatchInProgress)
	}
	if len(rm.players) >= arena.MaxPlayers && !rm.has(connID) {
		return nil, fmt.Errorf("joining %s: %w", rm.id, arena.ErrRoomFull)
	}
	if rm.creator == "" {
		rm.creator = connID
	}
	rm.add(connID, DisplayName(connID, username))
	return rm.membership(), nil
}

// Leave removes the connection from the room and deletes the room if it is
// now empty.
func (r *Registry) Leave(roomID, connID string) []Event {
	roomID = strings.TrimSpace(roomID)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leave(roomID, connID)
}

func (r *Registry) leave(roomID, connID string) []Event {
	rm, ok := r.rooms[roomID]
	if !ok || !rm.remove(connID) {
		return nil
	}
	if len(rm.players) == 0 {
		return r.removeIfEmpty(roomID)
	}
	return rm.membership()
}

// Disconnect leaves every room the connection is a member of.
func (r *Registry) Disconnect(connID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []Event
	for _, id := range slices.Clone(r.order) {
		if r.rooms[id].has(connID) {
			events = append(events, r.leave(id, connID)...)
		}
	}
	return events
}

// UpdateCode replaces the player's buffer. Unknown rooms or players are
// ignored.
func (r *Registry) UpdateCode(roomID, connID, code string) []Event {
	roomID = strings.TrimSpace(roomID)
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok || !rm.has(connID) {
		return nil
	}
	rm.codes[connID] = code
	return []Event{rm.codeSnapshot()}
}

// Rooms returns the ids of the rooms the connection is in.
func (r *Registry) Rooms(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, id := range r.order {
		if r.rooms[id].has(connID) {
			ids = append(ids, id)
		}
	}
	return ids
}

// DisplayName falls back to a guest name derived from the connection id.
func DisplayName(connID, username string) string {
	if u := strings.TrimSpace(username); u != "" {
		return u
	}
	return "guest-" + connID[:min(4, len(connID))]
}
