package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kibi-puzzle/internal/ai"
	"kibi-puzzle/internal/errs"
	"kibi-puzzle/internal/model"
	"kibi-puzzle/internal/pkg/lock"
)

type dailyFixture struct {
	svc     *DailyService
	users   *fakeUserStore
	dailies *fakeDailyStore
	gen     *fakeGenerator
	chain   *fakeChain
}

func newDailyFixture(t *testing.T) *dailyFixture {
	t.Helper()
	f := &dailyFixture{
		users:   newFakeUserStore(),
		dailies: newFakeDailyStore(),
		gen: &fakeGenerator{puzzle: ai.Puzzle{
			Question: "I prove without revealing. What am I?",
			Solution: "zkp",
			Hint:     "three letters",
		}},
		chain: acceptingChain(),
	}
	f.svc = NewDailyService(f.dailies, f.users, f.gen, f.chain, lock.New(), time.UTC, 50)
	f.svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	f.users.add("0xplayer", "player_1")
	return f
}

func TestDailyGetOrCreateCreatesOnce(t *testing.T) {
	f := newDailyFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetOrCreate(ctx, "0xplayer")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", first.Date)
	assert.Equal(t, "0xplayer", first.UserAddress)
	assert.NotEmpty(t, first.Commitment)
	assert.NotEmpty(t, first.Salt)
	assert.False(t, first.Solved)
	assert.NotEqual(t, uuid.Nil, first.ID)

	// Second request of the same day returns the same record without
	// spending another generation or chain call.
	second, err := f.svc.GetOrCreate(ctx, "0xplayer")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Commitment, second.Commitment)
	assert.Equal(t, 1, f.gen.callCount())
	assert.Equal(t, 1, f.chain.createCount())
}

func TestDailyGetOrCreateNewDayNewPuzzle(t *testing.T) {
	f := newDailyFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetOrCreate(ctx, "0xplayer")
	require.NoError(t, err)

	f.svc.now = func() time.Time {
		return time.Date(2025, 6, 2, 0, 0, 1, 0, time.UTC)
	}
	second, err := f.svc.GetOrCreate(ctx, "0xplayer")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "2025-06-02", second.Date)
	assert.Equal(t, 2, f.gen.callCount())
}

func TestDailyGetOrCreateReturnsSolvedAsIs(t *testing.T) {
	f := newDailyFixture(t)
	id := uuid.Must(uuid.NewV4())
	f.dailies.add(&model.DailyPuzzle{
		ID:          id,
		UserAddress: "0xplayer",
		Date:        "2025-06-01",
		Question:    "done already",
		Hint:        "h",
		Commitment:  "0x1",
		Salt:        "0x2",
		Solved:      true,
	})

	got, err := f.svc.GetOrCreate(context.Background(), "0xplayer")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.True(t, got.Solved)
	assert.Zero(t, f.gen.callCount(), "no regeneration for a solved day")
}

func TestDailyGetOrCreateUnknownUser(t *testing.T) {
	f := newDailyFixture(t)
	_, err := f.svc.GetOrCreate(context.Background(), "0xnobody")
	require.ErrorIs(t, err, errs.ErrNotFound)
	assert.Zero(t, f.gen.callCount())
}

func TestDailyGetOrCreateGeneratorFailureLeavesNothing(t *testing.T) {
	f := newDailyFixture(t)
	f.gen.err = errs.ErrUpstreamTimeout

	_, err := f.svc.GetOrCreate(context.Background(), "0xplayer")
	require.ErrorIs(t, err, errs.ErrUpstreamTimeout)
	assert.Zero(t, f.dailies.count(), "no partial record on generator failure")
	assert.Zero(t, f.chain.createCount(), "no chain call without a puzzle")
}

func TestDailyGetOrCreateChainFailureLeavesNothing(t *testing.T) {
	f := newDailyFixture(t)
	f.chain.createErr = errs.ErrUpstreamTimeout

	_, err := f.svc.GetOrCreate(context.Background(), "0xplayer")
	require.ErrorIs(t, err, errs.ErrUpstreamTimeout)
	assert.Zero(t, f.dailies.count(), "no record when the chain call fails")
}

func TestDailyGetOrCreateChainRejectionLeavesNothing(t *testing.T) {
	f := newDailyFixture(t)
	f.chain.createReceipt.Accepted = false
	f.chain.createReceipt.Reason = "commitment out of range"

	_, err := f.svc.GetOrCreate(context.Background(), "0xplayer")
	require.Error(t, err)
	assert.Zero(t, f.dailies.count())
}

func TestDailyHistoryLimit(t *testing.T) {
	f := newDailyFixture(t)
	ctx := context.Background()

	_, err := f.svc.History(ctx, "0xplayer", 0)
	require.NoError(t, err)
	assert.Equal(t, 30, f.dailies.historyLimit, "non-positive limit defaults")

	_, err = f.svc.History(ctx, "0xplayer", 500)
	require.NoError(t, err)
	assert.Equal(t, 30, f.dailies.historyLimit, "oversized limit defaults")

	_, err = f.svc.History(ctx, "0xplayer", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, f.dailies.historyLimit)
}

func TestDailyToday(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	svc := NewDailyService(newFakeDailyStore(), newFakeUserStore(), &fakeGenerator{}, acceptingChain(), lock.New(), loc, 50)
	// 23:30 UTC on May 31 is already June 1 in Tokyo.
	svc.now = func() time.Time {
		return time.Date(2025, 5, 31, 23, 30, 0, 0, time.UTC)
	}
	assert.Equal(t, "2025-06-01", svc.Today())
}

func TestDailyReward(t *testing.T) {
	f := newDailyFixture(t)
	assert.Equal(t, int64(50), f.svc.Reward())
}
