package challenge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

// Store keeps challenges in the challenges table. The full document lives in
// the data column; id, title and difficulty are duplicated for querying.
type Store struct {
	db *sqlx.DB
}

type challengeRow struct {
	ID         string `db:"id"`
	Title      string `db:"title"`
	Difficulty string `db:"difficulty"`
	Data       string `db:"data"`
	CreatedAt  string `db:"created_at"`
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "sqlite3")}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Challenge returns a random challenge of the given difficulty. Difficulty is
// matched case-insensitively because older rows were written in lowercase.
func (s *Store) Challenge(ctx context.Context, difficulty arena.Difficulty) (arena.Challenge, error) {
	var row challengeRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, title, difficulty, data, created_at
		 FROM challenges
		 WHERE lower(difficulty) = lower(?)
		 ORDER BY RANDOM()
		 LIMIT 1`, string(difficulty))
	if errors.Is(err, sql.ErrNoRows) {
		return arena.Challenge{}, ErrNotFound
	}
	if err != nil {
		return arena.Challenge{}, fmt.Errorf("querying challenge: %w", err)
	}
	return row.decode()
}

func (s *Store) Get(ctx context.Context, id string) (arena.Challenge, error) {
	var row challengeRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, title, difficulty, data, created_at FROM challenges WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return arena.Challenge{}, ErrNotFound
	}
	if err != nil {
		return arena.Challenge{}, fmt.Errorf("querying challenge %s: %w", id, err)
	}
	return row.decode()
}

func (s *Store) Insert(ctx context.Context, c arena.Challenge) (arena.Challenge, error) {
	return insertChallenge(ctx, s.db, c)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM challenges`); err != nil {
		return 0, fmt.Errorf("counting challenges: %w", err)
	}
	return n, nil
}

// CountByDifficulty folds differently-cased difficulty values together.
func (s *Store) CountByDifficulty(ctx context.Context) (map[arena.Difficulty]int, error) {
	var rows []struct {
		Difficulty string `db:"difficulty"`
		N          int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT difficulty, COUNT(*) AS n FROM challenges GROUP BY difficulty`); err != nil {
		return nil, fmt.Errorf("counting challenges by difficulty: %w", err)
	}

	counts := make(map[arena.Difficulty]int, 3)
	for _, r := range rows {
		d, err := arena.ParseDifficulty(r.Difficulty)
		if err != nil {
			continue
		}
		counts[d] += r.N
	}
	return counts, nil
}

// Seed inserts challenges when the table is empty. With force the table is
// cleared first. It returns the number of rows inserted.
func (s *Store) Seed(ctx context.Context, challenges []arena.Challenge, force bool) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 && !force {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning seed: %w", err)
	}
	defer tx.Rollback()

	if n > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM challenges`); err != nil {
			return 0, fmt.Errorf("clearing challenges: %w", err)
		}
	}
	for _, c := range challenges {
		if _, err := insertChallenge(ctx, tx, c); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed: %w", err)
	}
	return len(challenges), nil
}

func insertChallenge(ctx context.Context, db sqlx.ExtContext, c arena.Challenge) (arena.Challenge, error) {
	d, err := arena.ParseDifficulty(string(c.Difficulty))
	if err != nil {
		return arena.Challenge{}, err
	}
	c.Difficulty = d
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	data, err := json.Marshal(c)
	if err != nil {
		return arena.Challenge{}, fmt.Errorf("encoding challenge: %w", err)
	}

	_, err = sqlx.NamedExecContext(ctx, db,
		`INSERT INTO challenges (id, title, difficulty, data, created_at)
		 VALUES (:id, :title, :difficulty, :data, :created_at)`,
		challengeRow{
			ID:         c.ID,
			Title:      c.Title,
			Difficulty: string(c.Difficulty),
			Data:       string(data),
			CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
		})
	if err != nil {
		return arena.Challenge{}, fmt.Errorf("inserting challenge %q: %w", c.Title, err)
	}
	return c, nil
}

func (r challengeRow) decode() (arena.Challenge, error) {
	var c arena.Challenge
	if err := json.Unmarshal([]byte(r.Data), &c); err != nil {
		return arena.Challenge{}, fmt.Errorf("decoding challenge %s: %w", r.ID, err)
	}
	c.ID = r.ID
	if d, err := arena.ParseDifficulty(r.Difficulty); err == nil {
		c.Difficulty = d
	}
	return c, nil
}
