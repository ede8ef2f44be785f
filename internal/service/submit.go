package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kibi-puzzle/internal/chain"
	"kibi-puzzle/internal/commit"
	"kibi-puzzle/internal/errs"
	"kibi-puzzle/internal/felt"
)

// SubmitStatus describes the outcome of an accepted submission.
type SubmitStatus string

const (
	// StatusSolved means this submission recorded the solve.
	StatusSolved SubmitStatus = "solved"
	// StatusAlreadySolved means the puzzle was already in its terminal state;
	// treated as success for the submitter.
	StatusAlreadySolved SubmitStatus = "already_solved"
)

// SubmitResult is the outcome of a verified submission.
type SubmitResult struct {
	Status  SubmitStatus
	TxHash  string
	Solver  string
	Rewards int64
}

// SubmitService verifies claimed answers. The local commitment re-derivation
// is only a cheap rejection filter; the contract is the authoritative
// verifier, and no local state mutates before the chain accepts.
type SubmitService struct {
	puzzles PuzzleStore
	dailies DailyStore
	users   UserStore
	chain   chain.Client
	loc     *time.Location
	now     func() time.Time
}

// NewSubmitService creates a new SubmitService instance.
func NewSubmitService(puzzles PuzzleStore, dailies DailyStore, users UserStore, chainClient chain.Client, loc *time.Location) *SubmitService {
	if loc == nil {
		loc = time.UTC
	}
	return &SubmitService{
		puzzles: puzzles,
		dailies: dailies,
		users:   users,
		chain:   chainClient,
		loc:     loc,
		now:     time.Now,
	}
}

// Submit verifies a marketplace puzzle submission.
// Order is fixed: lookup, solved short-circuit, local commitment pre-check,
// chain verification, then the conditional solve write.
func (s *SubmitService) Submit(ctx context.Context, puzzleID, solverAddress, answer, salt string) (*SubmitResult, error) {
	solver, err := s.users.GetByAddress(ctx, solverAddress)
	if err != nil {
		return nil, err
	}

	p, err := s.puzzles.GetByID(ctx, puzzleID)
	if err != nil {
		return nil, err
	}
	if p.Solved {
		return &SubmitResult{Status: StatusAlreadySolved, Rewards: p.RewardAmount}, nil
	}

	if salt == "" {
		salt = p.Salt
	}
	if err := s.localCheck(puzzleID, answer, salt, p.Commitment); err != nil {
		return nil, err
	}

	receipt, err := s.verifyOnChain(ctx, puzzleID, answer, salt)
	if err != nil {
		return nil, err
	}

	updated, err := s.puzzles.MarkSolved(ctx, puzzleID, solver.Address)
	if err != nil {
		if errors.Is(err, errs.ErrAlreadySolved) {
			// Another submission won between chain acceptance and our write.
			return &SubmitResult{Status: StatusAlreadySolved, TxHash: receipt.TxHash, Rewards: p.RewardAmount}, nil
		}
		return nil, fmt.Errorf("failed to record solve for %s: %w", puzzleID, err)
	}

	return &SubmitResult{
		Status:  StatusSolved,
		TxHash:  receipt.TxHash,
		Solver:  *updated.Solver,
		Rewards: updated.RewardAmount,
	}, nil
}

// SubmitDaily verifies the user's answer to today's daily puzzle using the
// stored salt.
func (s *SubmitService) SubmitDaily(ctx context.Context, address, answer string) (*SubmitResult, error) {
	user, err := s.users.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	date := s.now().In(s.loc).Format(DateLayout)

	d, err := s.dailies.GetForDate(ctx, user.Address, date)
	if err != nil {
		return nil, err
	}
	if d.Solved {
		return &SubmitResult{Status: StatusAlreadySolved, Solver: user.Address}, nil
	}

	if err := s.localCheck(d.ID.String(), answer, d.Salt, d.Commitment); err != nil {
		return nil, err
	}

	receipt, err := s.verifyOnChain(ctx, d.ID.String(), answer, d.Salt)
	if err != nil {
		return nil, err
	}

	if _, err := s.dailies.MarkSolved(ctx, user.Address, date); err != nil {
		if errors.Is(err, errs.ErrAlreadySolved) {
			return &SubmitResult{Status: StatusAlreadySolved, TxHash: receipt.TxHash, Solver: user.Address}, nil
		}
		return nil, fmt.Errorf("failed to record daily solve for %s/%s: %w", address, date, err)
	}

	return &SubmitResult{Status: StatusSolved, TxHash: receipt.TxHash, Solver: user.Address}, nil
}

// localCheck re-derives the commitment and rejects mismatches before any
// chain call is spent. An un-encodable answer cannot be the committed one,
// so it is reported as a wrong answer rather than an encoding fault.
func (s *SubmitService) localCheck(puzzleID, answer, salt, expected string) error {
	ok, err := commit.Verify(answer, salt, expected)
	if err != nil {
		if errors.Is(err, errs.ErrEncoding) {
			return fmt.Errorf("puzzle %s: %w", puzzleID, errs.ErrWrongAnswer)
		}
		return fmt.Errorf("local verification for %s: %w", puzzleID, err)
	}
	if !ok {
		return fmt.Errorf("puzzle %s: %w", puzzleID, errs.ErrWrongAnswer)
	}
	return nil
}

// verifyOnChain delegates to the authoritative verifier. A chain rejection
// after a passing local check is a parameter-mismatch bug signal, logged by
// callers via the wrapped error context.
func (s *SubmitService) verifyOnChain(ctx context.Context, puzzleID, answer, salt string) (chain.Receipt, error) {
	encoded, err := felt.Encode(answer)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("puzzle %s: %w", puzzleID, errs.ErrWrongAnswer)
	}

	receipt, err := s.chain.SubmitSolution(ctx, puzzleID, felt.Hex(encoded), salt)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("chain submit for %s: %w", puzzleID, err)
	}
	if !receipt.Accepted {
		return chain.Receipt{}, fmt.Errorf("puzzle %s rejected on chain: %w", puzzleID, errs.ErrWrongAnswer)
	}
	return receipt, nil
}
