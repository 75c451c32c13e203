package challenge_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/srujan4705/Code-Battle/internal/arena"
	"github.com/srujan4705/Code-Battle/internal/challenge"
)

type stubSource struct {
	c     arena.Challenge
	err   error
	calls int
}

func (s *stubSource) Challenge(context.Context, arena.Difficulty) (arena.Challenge, error) {
	s.calls++
	return s.c, s.err
}

func TestChainReturnsFirstSuccess(t *testing.T) {
	req := require.New(t)
	failing := &stubSource{err: errors.New("connection refused")}
	empty := &stubSource{err: challenge.ErrNotFound}
	good := &stubSource{c: arena.Challenge{Title: "Good"}}
	never := &stubSource{c: arena.Challenge{Title: "Never"}}

	chain := challenge.NewChain(slog.Default(), failing, empty, good, never)
	c, err := chain.Challenge(context.Background(), arena.DifficultyEasy)

	req.NoError(err)
	req.Equal("Good", c.Title)
	req.Equal(1, failing.calls)
	req.Equal(1, empty.calls)
	req.Zero(never.calls)
}

func TestChainAllFail(t *testing.T) {
	chain := challenge.NewChain(slog.Default(),
		&stubSource{err: errors.New("boom")},
		&stubSource{err: challenge.ErrNotFound},
	)
	_, err := chain.Challenge(context.Background(), arena.DifficultyHard)
	require.True(t, errors.Is(err, challenge.ErrNotFound))
}

func TestFallbackHasEnoughCases(t *testing.T) {
	req := require.New(t)
	c := challenge.Fallback()
	req.GreaterOrEqual(len(c.VisibleTestCases), 2)
	req.GreaterOrEqual(len(c.HiddenTestCases), 2)
	req.Equal(c, challenge.Fallback())
}
