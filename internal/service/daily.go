package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"

	"kibi-puzzle/internal/ai"
	"kibi-puzzle/internal/chain"
	"kibi-puzzle/internal/commit"
	"kibi-puzzle/internal/model"
	"kibi-puzzle/internal/pkg/lock"
)

// DateLayout is the calendar-day key format for daily puzzles.
const DateLayout = "2006-01-02"

// DailyService coordinates daily puzzle creation: at most one puzzle per
// (user, day), created on first request, returned as-is on every later
// request of the same day whether solved or not.
type DailyService struct {
	dailies DailyStore
	users   UserStore
	gen     ai.Generator
	chain   chain.Client
	locks   *lock.KeyLock
	loc     *time.Location
	reward  int64
	now     func() time.Time
}

// NewDailyService creates a new DailyService instance.
func NewDailyService(
	dailies DailyStore,
	users UserStore,
	gen ai.Generator,
	chainClient chain.Client,
	locks *lock.KeyLock,
	loc *time.Location,
	rewardAmount int64,
) *DailyService {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyService{
		dailies: dailies,
		users:   users,
		gen:     gen,
		chain:   chainClient,
		locks:   locks,
		loc:     loc,
		reward:  rewardAmount,
		now:     time.Now,
	}
}

// Today returns the current calendar-day key in the configured timezone.
func (s *DailyService) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// GetOrCreate returns the user's puzzle for today, generating one if this is
// the first request of the day. Creation is all-or-nothing: a generator
// failure, malformed output or chain failure leaves no record behind. The
// per-user lock only dedupes upstream calls; the store's uniqueness
// constraint on (user, date) is what guarantees a single record.
func (s *DailyService) GetOrCreate(ctx context.Context, address string) (*model.DailyPuzzle, error) {
	user, err := s.users.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	date := s.Today()

	// Fast path: today's puzzle already exists (solved or not).
	if d, err := s.dailies.GetForDate(ctx, user.Address, date); err == nil {
		return d, nil
	}

	var result *model.DailyPuzzle
	err = s.locks.WithLock(user.Address, func() error {
		// Re-check under the lock: a concurrent request may have created it.
		if d, err := s.dailies.GetForDate(ctx, user.Address, date); err == nil {
			result = d
			return nil
		}

		d, err := s.createToday(ctx, user.Address, date)
		if err != nil {
			return err
		}
		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *DailyService) createToday(ctx context.Context, address, date string) (*model.DailyPuzzle, error) {
	generated, err := s.gen.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("daily puzzle generation for %s: %w", address, err)
	}

	c, err := commit.Generate(generated.Solution)
	if err != nil {
		return nil, fmt.Errorf("daily commitment for %s: %w", address, err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate daily puzzle id: %w", err)
	}

	// Chain first: the on-chain commitment and the off-chain mirror must
	// agree, or neither exists.
	receipt, err := s.chain.CreatePuzzle(ctx, id.String(), c.Hash, model.DifficultyEasy, s.reward)
	if err != nil {
		return nil, fmt.Errorf("chain create for daily %s/%s: %w", address, date, err)
	}
	if !receipt.Accepted {
		return nil, fmt.Errorf("chain rejected daily %s/%s: %s", address, date, receipt.Reason)
	}

	d, created, err := s.dailies.GetOrCreate(ctx, &model.DailyPuzzle{
		ID:          id,
		UserAddress: address,
		Date:        date,
		Question:    generated.Question,
		Hint:        generated.Hint,
		Commitment:  c.Hash,
		Salt:        c.Salt,
	})
	if err != nil {
		return nil, fmt.Errorf("store create for daily %s/%s: %w", address, date, err)
	}
	if !created {
		// Lost the insert race to a caller outside this process; their
		// record wins and our chain registration is orphaned.
		log.Warn().Str("address", address).Str("date", date).
			Msg("daily puzzle insert lost race, returning existing record")
	}
	return d, nil
}

// GetForDate returns the user's daily puzzle for a specific day.
func (s *DailyService) GetForDate(ctx context.Context, address, date string) (*model.DailyPuzzle, error) {
	user, err := s.users.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	return s.dailies.GetForDate(ctx, user.Address, date)
}

// History returns the user's past daily puzzles, newest first.
func (s *DailyService) History(ctx context.Context, address string, limit int) ([]*model.DailyPuzzle, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.dailies.History(ctx, address, limit)
}

// Reward returns the fixed system-defined daily puzzle reward.
func (s *DailyService) Reward() int64 {
	return s.reward
}
