package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kibi-puzzle/internal/errs"
	"kibi-puzzle/internal/model"
)

const puzzleColumns = `puzzle_id, creator, question, hint, commitment, salt,
		reward_amount, difficulty, solved, solver, created_at, updated_at`

// PuzzleRepository handles marketplace puzzle persistence. Commitment and
// salt are written once at create time and never updated; only the
// solved/solver pair mutates, through the conditional MarkSolved.
type PuzzleRepository struct {
	pool *pgxpool.Pool
}

// NewPuzzleRepository creates a new PuzzleRepository instance.
func NewPuzzleRepository(pool *pgxpool.Pool) *PuzzleRepository {
	return &PuzzleRepository{pool: pool}
}

func scanPuzzle(row pgx.Row) (*model.Puzzle, error) {
	var p model.Puzzle
	err := row.Scan(
		&p.PuzzleID,
		&p.Creator,
		&p.Question,
		&p.Hint,
		&p.Commitment,
		&p.Salt,
		&p.RewardAmount,
		&p.Difficulty,
		&p.Solved,
		&p.Solver,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new puzzle with solved=false.
// Returns errs.ErrDuplicateID if the puzzle_id already exists.
func (r *PuzzleRepository) Create(ctx context.Context, p *model.Puzzle) (*model.Puzzle, error) {
	query := `
		INSERT INTO puzzles (puzzle_id, creator, question, hint, commitment, salt,
			reward_amount, difficulty, solved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, NOW(), NOW())
		RETURNING ` + puzzleColumns

	created, err := scanPuzzle(r.pool.QueryRow(ctx, query,
		p.PuzzleID, strings.ToLower(p.Creator), p.Question, p.Hint,
		p.Commitment, p.Salt, p.RewardAmount, p.Difficulty,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("puzzle %s: %w", p.PuzzleID, errs.ErrDuplicateID)
		}
		return nil, fmt.Errorf("failed to create puzzle: %w", err)
	}

	return created, nil
}

// GetByID retrieves a puzzle by its external ID.
// Returns errs.ErrNotFound if absent.
func (r *PuzzleRepository) GetByID(ctx context.Context, puzzleID string) (*model.Puzzle, error) {
	query := `SELECT ` + puzzleColumns + ` FROM puzzles WHERE puzzle_id = $1`

	p, err := scanPuzzle(r.pool.QueryRow(ctx, query, puzzleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("puzzle %s: %w", puzzleID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get puzzle: %w", err)
	}

	return p, nil
}

// MarkSolved records the solver with a compare-and-set on solved. The update
// only succeeds when transitioning from solved=false, so at most one solver
// is ever recorded even under concurrent submissions.
// Returns errs.ErrAlreadySolved when a concurrent caller won the race, and
// errs.ErrNotFound when the puzzle does not exist at all.
func (r *PuzzleRepository) MarkSolved(ctx context.Context, puzzleID, solver string) (*model.Puzzle, error) {
	query := `
		UPDATE puzzles
		SET solved = TRUE, solver = $2, updated_at = NOW()
		WHERE puzzle_id = $1 AND NOT solved
		RETURNING ` + puzzleColumns

	p, err := scanPuzzle(r.pool.QueryRow(ctx, query, puzzleID, strings.ToLower(solver)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish missing puzzle from lost race.
			if _, getErr := r.GetByID(ctx, puzzleID); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("puzzle %s: %w", puzzleID, errs.ErrAlreadySolved)
		}
		return nil, fmt.Errorf("failed to mark puzzle solved: %w", err)
	}

	return p, nil
}

// ListUnsolved retrieves all unsolved puzzles, newest first.
func (r *PuzzleRepository) ListUnsolved(ctx context.Context) ([]*model.Puzzle, error) {
	query := `SELECT ` + puzzleColumns + ` FROM puzzles WHERE NOT solved ORDER BY created_at DESC`
	return r.list(ctx, query)
}

// ListAll retrieves all puzzles, newest first.
func (r *PuzzleRepository) ListAll(ctx context.Context) ([]*model.Puzzle, error) {
	query := `SELECT ` + puzzleColumns + ` FROM puzzles ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *PuzzleRepository) list(ctx context.Context, query string) ([]*model.Puzzle, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list puzzles: %w", err)
	}
	defer rows.Close()

	var puzzles []*model.Puzzle
	for rows.Next() {
		p, err := scanPuzzle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan puzzle: %w", err)
		}
		puzzles = append(puzzles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating puzzles: %w", err)
	}

	return puzzles, nil
}
