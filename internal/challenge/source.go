// Package challenge provides the sources a match draws its challenge from.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

var ErrNotFound = errors.New("no challenge found")

// Source yields a challenge for the requested difficulty. Implementations
// return ErrNotFound when they have nothing to offer.
type Source interface {
	Challenge(ctx context.Context, difficulty arena.Difficulty) (arena.Challenge, error)
}

// Chain asks each source in turn and returns the first challenge found.
type Chain struct {
	sources []Source
	logger  *slog.Logger
}

func NewChain(logger *slog.Logger, sources ...Source) *Chain {
	return &Chain{sources: sources, logger: logger}
}

func (c *Chain) Challenge(ctx context.Context, difficulty arena.Difficulty) (arena.Challenge, error) {
	for _, s := range c.sources {
		ch, err := s.Challenge(ctx, difficulty)
		if err == nil {
			return ch, nil
		}
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("challenge source failed",
				"source", fmt.Sprintf("%T", s),
				"difficulty", difficulty,
				"error", err,
			)
		}
		if ctx.Err() != nil {
			return arena.Challenge{}, ctx.Err()
		}
	}
	return arena.Challenge{}, fmt.Errorf("difficulty %s: %w", difficulty, ErrNotFound)
}
