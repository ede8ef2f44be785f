package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kibi-puzzle/internal/errs"
	"kibi-puzzle/internal/model"
)

const dailyColumns = `id, user_address, puzzle_date, question, hint,
		commitment, salt, solved, created_at, updated_at`

// DailyPuzzleRepository handles daily puzzle persistence. Records are keyed
// by (user_address, puzzle_date) with a uniqueness constraint; creation goes
// through GetOrCreate so concurrent duplicate requests collapse to one row.
type DailyPuzzleRepository struct {
	pool *pgxpool.Pool
}

// NewDailyPuzzleRepository creates a new DailyPuzzleRepository instance.
func NewDailyPuzzleRepository(pool *pgxpool.Pool) *DailyPuzzleRepository {
	return &DailyPuzzleRepository{pool: pool}
}

func scanDaily(row pgx.Row) (*model.DailyPuzzle, error) {
	var d model.DailyPuzzle
	err := row.Scan(
		&d.ID,
		&d.UserAddress,
		&d.Date,
		&d.Question,
		&d.Hint,
		&d.Commitment,
		&d.Salt,
		&d.Solved,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetForDate retrieves the daily puzzle for a user and calendar day.
// Returns errs.ErrNotFound if none exists yet.
func (r *DailyPuzzleRepository) GetForDate(ctx context.Context, address, date string) (*model.DailyPuzzle, error) {
	query := `SELECT ` + dailyColumns + ` FROM daily_puzzles WHERE user_address = $1 AND puzzle_date = $2`

	d, err := scanDaily(r.pool.QueryRow(ctx, query, strings.ToLower(address), date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("daily puzzle for %s on %s: %w", address, date, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get daily puzzle: %w", err)
	}

	return d, nil
}

// GetOrCreate inserts the candidate daily puzzle, recovering on conflict by
// re-reading the row that won. Exactly one record ever exists per
// (user_address, puzzle_date); the second return value reports whether this
// call created it. The insert is atomic, so a cancelled call leaves either
// the full row or nothing.
func (r *DailyPuzzleRepository) GetOrCreate(ctx context.Context, d *model.DailyPuzzle) (*model.DailyPuzzle, bool, error) {
	if d.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate daily puzzle id: %w", err)
		}
		d.ID = id
	}

	query := `
		INSERT INTO daily_puzzles (id, user_address, puzzle_date, question, hint,
			commitment, salt, solved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW())
		ON CONFLICT (user_address, puzzle_date) DO NOTHING
		RETURNING ` + dailyColumns

	created, err := scanDaily(r.pool.QueryRow(ctx, query,
		d.ID, strings.ToLower(d.UserAddress), d.Date,
		d.Question, d.Hint, d.Commitment, d.Salt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create daily puzzle: %w", err)
	}

	// Conflict: another caller created today's puzzle first. Return theirs.
	existing, err := r.GetForDate(ctx, d.UserAddress, d.Date)
	if err != nil {
		return nil, false, fmt.Errorf("failed to re-read after conflict: %w", err)
	}
	return existing, false, nil
}

// MarkSolved flips the daily puzzle to solved with a compare-and-set.
// Returns errs.ErrAlreadySolved if it was already solved, errs.ErrNotFound
// if no puzzle exists for the key.
func (r *DailyPuzzleRepository) MarkSolved(ctx context.Context, address, date string) (*model.DailyPuzzle, error) {
	query := `
		UPDATE daily_puzzles
		SET solved = TRUE, updated_at = NOW()
		WHERE user_address = $1 AND puzzle_date = $2 AND NOT solved
		RETURNING ` + dailyColumns

	d, err := scanDaily(r.pool.QueryRow(ctx, query, strings.ToLower(address), date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetForDate(ctx, address, date); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("daily puzzle for %s on %s: %w", address, date, errs.ErrAlreadySolved)
		}
		return nil, fmt.Errorf("failed to mark daily puzzle solved: %w", err)
	}

	return d, nil
}

// History returns a user's daily puzzles, newest day first.
func (r *DailyPuzzleRepository) History(ctx context.Context, address string, limit int) ([]*model.DailyPuzzle, error) {
	query := `SELECT ` + dailyColumns + `
		FROM daily_puzzles
		WHERE user_address = $1
		ORDER BY puzzle_date DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, strings.ToLower(address), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily puzzles: %w", err)
	}
	defer rows.Close()

	var out []*model.DailyPuzzle
	for rows.Next() {
		d, err := scanDaily(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily puzzle: %w", err)
		}
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily puzzles: %w", err)
	}

	return out, nil
}
