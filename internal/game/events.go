package game

import (
	"time"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

// Event is a state delta produced by a registry operation. Operations return
// events instead of publishing them; the caller fans them out to the room.
//
// Sequence increases with every event the registry produces. Snapshot events
// of one kind supersede earlier ones, so a publisher may drop an event whose
// sequence is lower than one it already delivered for the same room and kind.
type Event interface {
	RoomID() string
	Kind() string
	Sequence() uint64
}

// Event kinds, as they appear in the "type" field on the wire.
const (
	KindPlayerList   = "player-list"
	KindCodeSnapshot = "all-codes"
	KindScores       = "score-update"
	KindMatchStarted = "match-started"
	KindNewChallenge = "new-challenge"
	KindMatchStopped = "match-stopped"
	KindRoomRemoved  = "room-removed"
)

type roomEvent struct {
	Room string `json:"roomId"`
	Seq  uint64 `json:"seq"`
}

func (e roomEvent) RoomID() string   { return e.Room }
func (e roomEvent) Sequence() uint64 { return e.Seq }

type PlayerList struct {
	roomEvent
	Players []arena.Player `json:"players"`
}

func (PlayerList) Kind() string { return KindPlayerList }

type CodeSnapshot struct {
	roomEvent
	Codes map[string]string `json:"codes"`
}

func (CodeSnapshot) Kind() string { return KindCodeSnapshot }

type ScoreSnapshot struct {
	roomEvent
	Scores map[string]int `json:"scores"`
}

func (ScoreSnapshot) Kind() string { return KindScores }

type MatchStarted struct {
	roomEvent
	StartedAt time.Time             `json:"startedAt"`
	Scores    map[string]int        `json:"scores"`
	Challenge arena.PublicChallenge `json:"challenge"`
}

func (MatchStarted) Kind() string { return KindMatchStarted }

type NewChallenge struct {
	roomEvent
	Challenge arena.PublicChallenge `json:"challenge"`
}

func (NewChallenge) Kind() string { return KindNewChallenge }

type WinnerDetail struct {
	ConnectionID string `json:"socketId"`
	Username     string `json:"username"`
	Score        int    `json:"score"`
}

type ChallengeSummary struct {
	Title            string           `json:"title"`
	Difficulty       arena.Difficulty `json:"difficulty"`
	VisibleTestCount int              `json:"visibleTestCount"`
	HiddenTestCount  int              `json:"hiddenTestCount"`
}

type MatchStopped struct {
	roomEvent
	StoppedAt        time.Time         `json:"stoppedAt"`
	Scores           map[string]int    `json:"scores"`
	Winners          []string          `json:"winners"`
	WinnerDetails    []WinnerDetail    `json:"winnerDetails"`
	ChallengeSummary *ChallengeSummary `json:"challengeSummary,omitempty"`
	SummaryText      string            `json:"summaryText"`
}

func (MatchStopped) Kind() string { return KindMatchStopped }

type RoomRemoved struct {
	roomEvent
}

func (RoomRemoved) Kind() string { return KindRoomRemoved }
