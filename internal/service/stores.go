// Package service provides business logic implementations.
package service

import (
	"context"

	"kibi-puzzle/internal/model"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them; tests substitute in-memory fakes.

// UserStore persists registered players.
type UserStore interface {
	Create(ctx context.Context, address, username string) (*model.User, error)
	GetByAddress(ctx context.Context, address string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ListAll(ctx context.Context) ([]*model.User, error)
	CountSolvedBy(ctx context.Context, address string) (int, error)
}

// PuzzleStore persists marketplace puzzles.
type PuzzleStore interface {
	Create(ctx context.Context, p *model.Puzzle) (*model.Puzzle, error)
	GetByID(ctx context.Context, puzzleID string) (*model.Puzzle, error)
	MarkSolved(ctx context.Context, puzzleID, solver string) (*model.Puzzle, error)
	ListUnsolved(ctx context.Context) ([]*model.Puzzle, error)
	ListAll(ctx context.Context) ([]*model.Puzzle, error)
}

// DailyStore persists per-user daily puzzles.
type DailyStore interface {
	GetForDate(ctx context.Context, address, date string) (*model.DailyPuzzle, error)
	GetOrCreate(ctx context.Context, d *model.DailyPuzzle) (*model.DailyPuzzle, bool, error)
	MarkSolved(ctx context.Context, address, date string) (*model.DailyPuzzle, error)
	History(ctx context.Context, address string, limit int) ([]*model.DailyPuzzle, error)
}
