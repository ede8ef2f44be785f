package service

import (
	"context"
	"fmt"

	"kibi-puzzle/internal/chain"
	"kibi-puzzle/internal/commit"
	"kibi-puzzle/internal/errs"
	"kibi-puzzle/internal/model"
)

// CreatePuzzleInput carries the creator-supplied fields for a new
// marketplace puzzle. Answer is consumed to derive the commitment and
// discarded; it is never persisted.
type CreatePuzzleInput struct {
	PuzzleID     string
	Creator      string
	Question     string
	Hint         string
	Answer       string
	Difficulty   string
	RewardAmount int64
}

// PuzzleService handles marketplace puzzle creation and reads.
type PuzzleService struct {
	puzzles PuzzleStore
	users   UserStore
	chain   chain.Client
}

// NewPuzzleService creates a new PuzzleService instance.
func NewPuzzleService(puzzles PuzzleStore, users UserStore, chainClient chain.Client) *PuzzleService {
	return &PuzzleService{puzzles: puzzles, users: users, chain: chainClient}
}

// Create validates the input, generates the commitment, registers it on
// chain and then mirrors the record off chain. Ordering matters: the store
// write happens only after the chain accepts, so the mirror and the contract
// either agree or the record does not exist.
func (s *PuzzleService) Create(ctx context.Context, in CreatePuzzleInput) (*model.Puzzle, error) {
	if in.PuzzleID == "" || in.Question == "" || in.Hint == "" {
		return nil, fmt.Errorf("puzzle id, question and hint are required: %w", errs.ErrInvalidPuzzleFormat)
	}
	floor, ok := model.MinReward(in.Difficulty)
	if !ok {
		return nil, fmt.Errorf("unknown difficulty %q, valid: %v: %w",
			in.Difficulty, model.Difficulties(), errs.ErrInvalidPuzzleFormat)
	}
	if in.RewardAmount < floor {
		return nil, fmt.Errorf("reward %d below %s floor %d: %w",
			in.RewardAmount, in.Difficulty, floor, errs.ErrInvalidPuzzleFormat)
	}

	creator, err := s.users.GetByAddress(ctx, in.Creator)
	if err != nil {
		return nil, fmt.Errorf("creator lookup: %w", err)
	}

	// Fast duplicate pre-check before spending a chain call. The store's
	// primary key still closes the race for concurrent creators.
	if _, err := s.puzzles.GetByID(ctx, in.PuzzleID); err == nil {
		return nil, fmt.Errorf("puzzle %s: %w", in.PuzzleID, errs.ErrDuplicateID)
	}

	c, err := commit.Generate(in.Answer)
	if err != nil {
		return nil, fmt.Errorf("commitment for puzzle %s: %w", in.PuzzleID, err)
	}

	receipt, err := s.chain.CreatePuzzle(ctx, in.PuzzleID, c.Hash, in.Difficulty, in.RewardAmount)
	if err != nil {
		return nil, fmt.Errorf("chain create for puzzle %s: %w", in.PuzzleID, err)
	}
	if !receipt.Accepted {
		return nil, fmt.Errorf("chain rejected puzzle %s creation: %s", in.PuzzleID, receipt.Reason)
	}

	created, err := s.puzzles.Create(ctx, &model.Puzzle{
		PuzzleID:     in.PuzzleID,
		Creator:      creator.Address,
		Question:     in.Question,
		Hint:         in.Hint,
		Commitment:   c.Hash,
		Salt:         c.Salt,
		RewardAmount: in.RewardAmount,
		Difficulty:   in.Difficulty,
	})
	if err != nil {
		return nil, fmt.Errorf("store create for puzzle %s: %w", in.PuzzleID, err)
	}

	return created, nil
}

// GetByID retrieves a puzzle by its external ID.
func (s *PuzzleService) GetByID(ctx context.Context, puzzleID string) (*model.Puzzle, error) {
	return s.puzzles.GetByID(ctx, puzzleID)
}

// ListUnsolved returns the open marketplace view.
func (s *PuzzleService) ListUnsolved(ctx context.Context) ([]*model.Puzzle, error) {
	return s.puzzles.ListUnsolved(ctx)
}

// ListAll returns every puzzle, solved or not.
func (s *PuzzleService) ListAll(ctx context.Context) ([]*model.Puzzle, error) {
	return s.puzzles.ListAll(ctx)
}
