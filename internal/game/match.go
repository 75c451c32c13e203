package game

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/srujan4705/Code-Battle/internal/arena"
	"github.com/srujan4705/Code-Battle/internal/challenge"
)

const (
	runPoints        = 1
	submissionPoints = 10
)

type indexSet map[int]struct{}

type match struct {
	started   bool
	startedAt time.Time
	stoppedAt time.Time
	round     int
	scores    map[string]int
	challenge *arena.Challenge

	creditedVisible map[string]indexSet
	creditedHidden  map[string]indexSet
}

func newMatch() match {
	return match{
		scores:          make(map[string]int),
		creditedVisible: make(map[string]indexSet),
		creditedHidden:  make(map[string]indexSet),
	}
}

func (m *match) forget(connID string) {
	delete(m.scores, connID)
	delete(m.creditedVisible, connID)
	delete(m.creditedHidden, connID)
}

// credit marks index i for connID and reports whether it was new.
func credit(sets map[string]indexSet, connID string, i int) bool {
	s, ok := sets[connID]
	if !ok {
		s = make(indexSet)
		sets[connID] = s
	}
	if _, done := s[i]; done {
		return false
	}
	s[i] = struct{}{}
	return true
}

// checkStart validates the start preconditions in the order they are
// reported to the requester.
func checkStart(rm *room, ok bool, requester string) error {
	switch {
	case !ok:
		return arena.ErrRoomNotFound
	case !rm.authorizes(requester):
		return arena.ErrNotAuthorized
	case len(rm.players) < 2:
		return arena.ErrInsufficientPlayers
	case rm.match.started:
		return arena.ErrMatchAlreadyStarted
	}
	return nil
}

// StartMatch begins a new round in the room. The challenge is fetched without
// holding the lock, so every precondition is checked again afterwards.
func (r *Registry) StartMatch(ctx context.Context, roomID, requester string) ([]Event, error) {
	r.mu.Lock()
	rm, ok := r.rooms[roomID]
	if err := checkStart(rm, ok, requester); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("starting match in %s: %w", roomID, err)
	}
	difficulty := rm.difficulty
	r.mu.Unlock()

	ch := r.fetchChallenge(ctx, roomID, difficulty)

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok = r.rooms[roomID]
	if err := checkStart(rm, ok, requester); err != nil {
		return nil, fmt.Errorf("starting match in %s: %w", roomID, err)
	}

	m := newMatch()
	m.started = true
	m.startedAt = r.now()
	m.round = rm.match.round + 1
	m.challenge = &ch
	for _, p := range rm.players {
		m.scores[p.ConnectionID] = 0
	}
	rm.match = m

	pub := ch.Public()
	return []Event{
		MatchStarted{
			roomEvent: rm.ev(),
			StartedAt: m.startedAt,
			Scores:    maps.Clone(m.scores),
			Challenge: pub,
		},
		NewChallenge{roomEvent: rm.ev(), Challenge: pub},
	}, nil
}

func (r *Registry) fetchChallenge(ctx context.Context, roomID string, d arena.Difficulty) arena.Challenge {
	if r.source == nil {
		return challenge.Fallback()
	}
	ch, err := r.source.Challenge(ctx, d)
	if err != nil {
		r.logger.Warn("challenge source failed, using fallback",
			"room", roomID,
			"difficulty", d,
			"error", err,
		)
		return challenge.Fallback()
	}
	return ch.Clone()
}

// StopMatch ends the running round and reports the winners. Stopping an idle
// room is a no-op.
func (r *Registry) StopMatch(roomID, requester string) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("stopping match in %s: %w", roomID, arena.ErrRoomNotFound)
	}
	if !rm.authorizes(requester) {
		return nil, fmt.Errorf("stopping match in %s: %w", roomID, arena.ErrNotAuthorized)
	}
	if !rm.match.started {
		return nil, nil
	}

	rm.match.started = false
	rm.match.stoppedAt = r.now()

	details := winners(rm)
	ev := MatchStopped{
		roomEvent:     rm.ev(),
		StoppedAt:     rm.match.stoppedAt,
		Scores:        maps.Clone(rm.match.scores),
		Winners:       lo.Map(details, func(d WinnerDetail, _ int) string { return d.ConnectionID }),
		WinnerDetails: details,
		SummaryText:   summarize(details),
	}
	if c := rm.match.challenge; c != nil {
		ev.ChallengeSummary = &ChallengeSummary{
			Title:            c.Title,
			Difficulty:       c.Difficulty,
			VisibleTestCount: len(c.VisibleTestCases),
			HiddenTestCount:  len(c.HiddenTestCases),
		}
	}
	return []Event{ev}, nil
}

// winners returns every player holding the top score, in join order.
func winners(rm *room) []WinnerDetail {
	scores := rm.match.scores
	if len(scores) == 0 {
		return []WinnerDetail{}
	}
	top := lo.Max(lo.Values(scores))
	return lo.FilterMap(rm.players, func(p arena.Player, _ int) (WinnerDetail, bool) {
		s, ok := scores[p.ConnectionID]
		return WinnerDetail{ConnectionID: p.ConnectionID, Username: p.Username, Score: s}, ok && s == top
	})
}

func summarize(details []WinnerDetail) string {
	switch len(details) {
	case 0:
		return "Match over. No winner this time."
	case 1:
		return fmt.Sprintf("Match over. %s wins with %d points!", details[0].Username, details[0].Score)
	}
	names := lo.Map(details, func(d WinnerDetail, _ int) string { return d.Username })
	return fmt.Sprintf("Match over. It's a tie between %s with %d points each!",
		strings.Join(names, " and "), details[0].Score)
}

// UpdateScore adds points to a player's score while a match is running.
func (r *Registry) UpdateScore(roomID, connID string, points int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok || !rm.match.started {
		return nil
	}
	if _, ok := rm.match.scores[connID]; !ok {
		return nil
	}
	rm.match.scores[connID] += points
	return []Event{rm.scoreSnapshot()}
}

// ActiveChallenge returns the room's current challenge and the round it
// belongs to. The challenge stays available after a stop.
func (r *Registry) ActiveChallenge(roomID string) (arena.Challenge, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok || rm.match.challenge == nil {
		return arena.Challenge{}, 0, fmt.Errorf("room %s: %w", roomID, arena.ErrNoActiveChallenge)
	}
	return rm.match.challenge.Clone(), rm.match.round, nil
}

// ApplyGrade credits newly passed test indices from report. It awards nothing
// unless the same round is still running and the player is still present.
// Runs earn points for visible indices; submissions only for hidden ones.
func (r *Registry) ApplyGrade(roomID, connID string, round int, report arena.GradeReport) (int, []Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok || !rm.match.started || rm.match.round != round {
		return 0, nil
	}
	if _, ok := rm.match.scores[connID]; !ok {
		return 0, nil
	}

	awarded := 0
	if report.Submission {
		end := min(report.VisibleCount+report.HiddenCount, len(report.Results))
		for i := report.VisibleCount; i < end; i++ {
			if report.Results[i].Passed && credit(rm.match.creditedHidden, connID, i-report.VisibleCount) {
				awarded += submissionPoints
			}
		}
	} else {
		end := min(report.VisibleCount, len(report.Results))
		for i := 0; i < end; i++ {
			if report.Results[i].Passed && credit(rm.match.creditedVisible, connID, i) {
				awarded += runPoints
			}
		}
	}
	if awarded == 0 {
		return 0, nil
	}

	rm.match.scores[connID] += awarded
	return awarded, []Event{rm.scoreSnapshot()}
}
