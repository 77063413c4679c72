package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is a persisted planning run. Outcome holds the JSON-encoded outcome
// of successful runs.
type Run struct {
	ID              string
	Profile         string
	Status          string
	Seed            uint64
	CreativityLevel float64
	BaseCalories    float64
	RefinedCalories float64
	CreativityScore float64
	Outcome         []byte
	Err             string
	CreatedAt       time.Time
}

const runColumns = `id, profile, status, seed, creativity_level, base_calories,
	refined_calories, creativity_score, outcome, error, created_at`

// SaveRun inserts r and returns its id. A missing id is generated and a zero
// CreatedAt is set to now.
func (s *Store) SaveRun(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Profile, r.Status, int64(r.Seed), r.CreativityLevel, r.BaseCalories,
		r.RefinedCalories, r.CreativityScore, r.Outcome, r.Err, r.CreatedAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to save run %s: %w", r.ID, err)
	}
	return r.ID, nil
}

// GetRun returns the run with id, or an error wrapping ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return r, err
}

// ListRuns returns up to limit runs, newest first. An empty profile lists
// every profile; a limit <= 0 lists everything.
func (s *Store) ListRuns(ctx context.Context, profile string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE (? = '' OR profile = ?)
		ORDER BY created_at DESC, id LIMIT ?`
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, query, profile, profile, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		seed    int64
		created int64
	)
	err := sc.Scan(&r.ID, &r.Profile, &r.Status, &seed, &r.CreativityLevel, &r.BaseCalories,
		&r.RefinedCalories, &r.CreativityScore, &r.Outcome, &r.Err, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("failed to scan run: %w", err)
	}
	r.Seed = uint64(seed)
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, nil
}
