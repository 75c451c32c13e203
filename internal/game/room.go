package game

import (
	"maps"
	"slices"
	"time"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

// PlaceholderCode seeds a player's buffer on join.
const PlaceholderCode = "// Start coding here..."

type room struct {
	id         string
	name       string
	difficulty arena.Difficulty
	creator    string
	createdAt  time.Time
	players    []arena.Player
	codes      map[string]string
	match      match
	seq        *uint64
}

func newRoom(id, name, creator string, difficulty arena.Difficulty, now time.Time, seq *uint64) *room {
	if name == "" {
		name = "Room " + id
	}
	return &room{
		id:         id,
		name:       name,
		difficulty: difficulty,
		creator:    creator,
		createdAt:  now,
		codes:      make(map[string]string),
		match:      newMatch(),
		seq:        seq,
	}
}

// ev stamps a new event header. Callers hold the registry lock.
func (rm *room) ev() roomEvent {
	*rm.seq++
	return roomEvent{Room: rm.id, Seq: *rm.seq}
}

func (rm *room) indexOf(connID string) int {
	return slices.IndexFunc(rm.players, func(p arena.Player) bool {
		return p.ConnectionID == connID
	})
}

func (rm *room) has(connID string) bool {
	return rm.indexOf(connID) >= 0
}

// add appends the player or refreshes the username of an existing one, and
// makes sure the code and score entries exist.
func (rm *room) add(connID, username string) {
	if i := rm.indexOf(connID); i >= 0 {
		rm.players[i].Username = username
	} else {
		rm.players = append(rm.players, arena.Player{ConnectionID: connID, Username: username})
	}
	if _, ok := rm.codes[connID]; !ok {
		rm.codes[connID] = PlaceholderCode
	}
	if _, ok := rm.match.scores[connID]; !ok {
		rm.match.scores[connID] = 0
	}
}

// authorizes reports whether requester may start or stop the match. That is
// the creator, or any current player once the creator has left the room.
func (rm *room) authorizes(requester string) bool {
	if requester == rm.creator {
		return true
	}
	return !rm.has(rm.creator) && rm.has(requester)
}

func (rm *room) remove(connID string) bool {
	i := rm.indexOf(connID)
	if i < 0 {
		return false
	}
	rm.players = slices.Delete(rm.players, i, i+1)
	delete(rm.codes, connID)
	rm.match.forget(connID)
	return true
}

func (rm *room) playerList() PlayerList {
	return PlayerList{roomEvent: rm.ev(), Players: slices.Clone(rm.players)}
}

func (rm *room) codeSnapshot() CodeSnapshot {
	return CodeSnapshot{roomEvent: rm.ev(), Codes: maps.Clone(rm.codes)}
}

func (rm *room) scoreSnapshot() ScoreSnapshot {
	return ScoreSnapshot{roomEvent: rm.ev(), Scores: maps.Clone(rm.match.scores)}
}

// membership is the full snapshot broadcast after any membership change.
func (rm *room) membership() []Event {
	return []Event{rm.playerList(), rm.codeSnapshot(), rm.scoreSnapshot()}
}

// RoomState is a deep copy of a room, safe to use after the lock is released.
type RoomState struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Difficulty          arena.Difficulty  `json:"difficulty"`
	CreatorConnectionID string            `json:"creatorConnectionId,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	Players             []arena.Player    `json:"players"`
	Codes               map[string]string `json:"codes"`
	Match               MatchState        `json:"match"`
}

type MatchState struct {
	Started   bool                   `json:"started"`
	Round     int                    `json:"round"`
	StartedAt *time.Time             `json:"startedAt,omitempty"`
	StoppedAt *time.Time             `json:"stoppedAt,omitempty"`
	Scores    map[string]int         `json:"scores"`
	Challenge *arena.PublicChallenge `json:"challenge,omitempty"`
}

type RoomSummary struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Difficulty   arena.Difficulty `json:"difficulty"`
	PlayerCount  int              `json:"playerCount"`
	MatchStarted bool             `json:"matchStarted"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func (rm *room) state() RoomState {
	m := MatchState{
		Started: rm.match.started,
		Round:   rm.match.round,
		Scores:  maps.Clone(rm.match.scores),
	}
	if !rm.match.startedAt.IsZero() {
		t := rm.match.startedAt
		m.StartedAt = &t
	}
	if !rm.match.stoppedAt.IsZero() {
		t := rm.match.stoppedAt
		m.StoppedAt = &t
	}
	if rm.match.challenge != nil {
		pc := rm.match.challenge.Public()
		m.Challenge = &pc
	}
	return RoomState{
		ID:                  rm.id,
		Name:                rm.name,
		Difficulty:          rm.difficulty,
		CreatorConnectionID: rm.creator,
		CreatedAt:           rm.createdAt,
		Players:             slices.Clone(rm.players),
		Codes:               maps.Clone(rm.codes),
		Match:               m,
	}
}

func (rm *room) summary() RoomSummary {
	return RoomSummary{
		ID:           rm.id,
		Name:         rm.name,
		Difficulty:   rm.difficulty,
		PlayerCount:  len(rm.players),
		MatchStarted: rm.match.started,
		CreatedAt:    rm.createdAt,
	}
}
