package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"kibi-puzzle/internal/errs"
	"kibi-puzzle/internal/model"
	"kibi-puzzle/internal/rank"
)

// usernameRe bounds display names to 3-30 alphanumeric/underscore characters.
var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

// AccountService handles registration and player progression reads.
type AccountService struct {
	users UserStore
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(users UserStore) *AccountService {
	return &AccountService{users: users}
}

// Register creates a user for a wallet address. The address is normalized to
// lower case and is immutable afterwards. Returns errs.ErrAlreadyExists when
// the address or username is taken.
func (s *AccountService) Register(ctx context.Context, address, username string) (*model.User, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return nil, fmt.Errorf("address is required: %w", errs.ErrEncoding)
	}
	if !usernameRe.MatchString(username) {
		return nil, fmt.Errorf("username must be 3-30 alphanumeric or underscore characters: %w", errs.ErrEncoding)
	}

	user, err := s.users.Create(ctx, address, username)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", address, err)
	}
	return user, nil
}

// GetByAddress retrieves a registered user.
func (s *AccountService) GetByAddress(ctx context.Context, address string) (*model.User, error) {
	return s.users.GetByAddress(ctx, address)
}

// Find resolves a user by wallet address, falling back to a username lookup
// when the key does not match any address.
func (s *AccountService) Find(ctx context.Context, key string) (*model.User, error) {
	user, err := s.users.GetByAddress(ctx, key)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	return s.users.GetByUsername(ctx, key)
}

// List returns all registered users ordered by registration time.
func (s *AccountService) List(ctx context.Context) ([]*model.User, error) {
	return s.users.ListAll(ctx)
}

// Progress returns the user's solve count and derived rank. The rank is
// recomputed from the counter on every read; nothing rank-related is stored.
func (s *AccountService) Progress(ctx context.Context, address string) (int, rank.Progress, error) {
	if _, err := s.users.GetByAddress(ctx, address); err != nil {
		return 0, rank.Progress{}, err
	}
	solves, err := s.users.CountSolvedBy(ctx, address)
	if err != nil {
		return 0, rank.Progress{}, fmt.Errorf("failed to count solves for %s: %w", address, err)
	}
	return solves, rank.RankOf(solves), nil
}
