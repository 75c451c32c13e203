package challenge

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

//go:embed catalog.json
var defaultCatalog []byte

// Catalog is an in-memory list of challenges loaded from JSON. It serves as
// the seed data for the database and as a standalone Source.
type Catalog struct {
	challenges []arena.Challenge
}

func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var list []arena.Challenge
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	for i := range list {
		d, err := arena.ParseDifficulty(string(list[i].Difficulty))
		if err != nil {
			return nil, fmt.Errorf("challenge %d: %w", i, err)
		}
		list[i].Difficulty = d
		if list[i].Title == "" {
			return nil, fmt.Errorf("challenge %d: missing title: %w", i, arena.ErrInvalidArgument)
		}
		if len(list[i].VisibleTestCases) == 0 {
			return nil, fmt.Errorf("challenge %q: no visible test cases: %w", list[i].Title, arena.ErrInvalidArgument)
		}
	}
	return &Catalog{challenges: list}, nil
}

func (c *Catalog) Len() int { return len(c.challenges) }

func (c *Catalog) All() []arena.Challenge {
	out := make([]arena.Challenge, len(c.challenges))
	for i, ch := range c.challenges {
		out[i] = ch.Clone()
	}
	return out
}

func (c *Catalog) Find(difficulty arena.Difficulty) []arena.Challenge {
	var out []arena.Challenge
	for _, ch := range c.challenges {
		if ch.Difficulty == difficulty {
			out = append(out, ch.Clone())
		}
	}
	return out
}

// Challenge picks a random challenge of the given difficulty.
func (c *Catalog) Challenge(_ context.Context, difficulty arena.Difficulty) (arena.Challenge, error) {
	matches := c.Find(difficulty)
	if len(matches) == 0 {
		return arena.Challenge{}, ErrNotFound
	}
	return matches[rand.IntN(len(matches))], nil
}
