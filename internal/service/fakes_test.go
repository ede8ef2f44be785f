package service

import (
	"context"
	"sort"
	"sync"

	"kibi-puzzle/internal/ai"
	"kibi-puzzle/internal/chain"
	"kibi-puzzle/internal/errs"
	"kibi-puzzle/internal/model"
)

// In-memory fakes for the store and collaborator interfaces. They mimic the
// repository semantics the services rely on: sentinel errors, one-way solve
// transitions and idempotent daily creation.

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*model.User
	solves map[string]int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[string]*model.User),
		solves: make(map[string]int),
	}
}

func (f *fakeUserStore) add(address, username string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &model.User{Address: address, Username: username}
	f.users[address] = u
	return u
}

func (f *fakeUserStore) Create(_ context.Context, address, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[address]; ok {
		return nil, errs.ErrAlreadyExists
	}
	for _, u := range f.users {
		if u.Username == username {
			return nil, errs.ErrAlreadyExists
		}
	}
	u := &model.User{Address: address, Username: username}
	f.users[address] = u
	return u, nil
}

func (f *fakeUserStore) GetByAddress(_ context.Context, address string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[address]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUserStore) ListAll(_ context.Context) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (f *fakeUserStore) CountSolvedBy(_ context.Context, address string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.solves[address], nil
}

type fakePuzzleStore struct {
	mu      sync.Mutex
	puzzles map[string]*model.Puzzle

	// markSolvedErr, when set, is returned by MarkSolved instead of the
	// normal transition. Used to simulate losing the solve race.
	markSolvedErr error
}

func newFakePuzzleStore() *fakePuzzleStore {
	return &fakePuzzleStore{puzzles: make(map[string]*model.Puzzle)}
}

func (f *fakePuzzleStore) add(p *model.Puzzle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.puzzles[p.PuzzleID] = &cp
}

func (f *fakePuzzleStore) Create(_ context.Context, p *model.Puzzle) (*model.Puzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.puzzles[p.PuzzleID]; ok {
		return nil, errs.ErrDuplicateID
	}
	cp := *p
	f.puzzles[p.PuzzleID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePuzzleStore) GetByID(_ context.Context, puzzleID string) (*model.Puzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.puzzles[puzzleID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakePuzzleStore) MarkSolved(_ context.Context, puzzleID, solver string) (*model.Puzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markSolvedErr != nil {
		return nil, f.markSolvedErr
	}
	p, ok := f.puzzles[puzzleID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if p.Solved {
		return nil, errs.ErrAlreadySolved
	}
	p.Solved = true
	s := solver
	p.Solver = &s
	out := *p
	return &out, nil
}

func (f *fakePuzzleStore) ListUnsolved(_ context.Context) ([]*model.Puzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Puzzle
	for _, p := range f.puzzles {
		if !p.Solved {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PuzzleID < out[j].PuzzleID })
	return out, nil
}

func (f *fakePuzzleStore) ListAll(_ context.Context) ([]*model.Puzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Puzzle
	for _, p := range f.puzzles {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PuzzleID < out[j].PuzzleID })
	return out, nil
}

type fakeDailyStore struct {
	mu      sync.Mutex
	dailies map[string]*model.DailyPuzzle

	historyLimit int
}

func newFakeDailyStore() *fakeDailyStore {
	return &fakeDailyStore{dailies: make(map[string]*model.DailyPuzzle)}
}

func dailyKey(address, date string) string { return address + "|" + date }

func (f *fakeDailyStore) add(d *model.DailyPuzzle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.dailies[dailyKey(d.UserAddress, d.Date)] = &cp
}

func (f *fakeDailyStore) GetForDate(_ context.Context, address, date string) (*model.DailyPuzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dailies[dailyKey(address, date)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	out := *d
	return &out, nil
}

func (f *fakeDailyStore) GetOrCreate(_ context.Context, d *model.DailyPuzzle) (*model.DailyPuzzle, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := dailyKey(d.UserAddress, d.Date)
	if existing, ok := f.dailies[key]; ok {
		out := *existing
		return &out, false, nil
	}
	cp := *d
	f.dailies[key] = &cp
	out := cp
	return &out, true, nil
}

func (f *fakeDailyStore) MarkSolved(_ context.Context, address, date string) (*model.DailyPuzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dailies[dailyKey(address, date)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if d.Solved {
		return nil, errs.ErrAlreadySolved
	}
	d.Solved = true
	out := *d
	return &out, nil
}

func (f *fakeDailyStore) History(_ context.Context, address string, limit int) ([]*model.DailyPuzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyLimit = limit
	var out []*model.DailyPuzzle
	for _, d := range f.dailies {
		if d.UserAddress == address {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeDailyStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dailies)
}

type fakeGenerator struct {
	mu     sync.Mutex
	puzzle ai.Puzzle
	err    error
	calls  int
}

func (f *fakeGenerator) Generate(context.Context) (ai.Puzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return ai.Puzzle{}, f.err
	}
	return f.puzzle, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type submitCall struct {
	puzzleID string
	answer   string
	salt     string
}

type fakeChain struct {
	mu sync.Mutex

	createReceipt chain.Receipt
	createErr     error
	submitReceipt chain.Receipt
	submitErr     error

	createCalls int
	submitCalls []submitCall
}

func acceptingChain() *fakeChain {
	return &fakeChain{
		createReceipt: chain.Receipt{TxHash: "0xcreate", Accepted: true},
		submitReceipt: chain.Receipt{TxHash: "0xsubmit", Accepted: true},
	}
}

func (f *fakeChain) CreatePuzzle(_ context.Context, _, _, _ string, _ int64) (chain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return chain.Receipt{}, f.createErr
	}
	return f.createReceipt, nil
}

func (f *fakeChain) SubmitSolution(_ context.Context, puzzleID, answerFelt, salt string) (chain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls = append(f.submitCalls, submitCall{puzzleID: puzzleID, answer: answerFelt, salt: salt})
	if f.submitErr != nil {
		return chain.Receipt{}, f.submitErr
	}
	return f.submitReceipt, nil
}

func (f *fakeChain) submitted() []submitCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]submitCall, len(f.submitCalls))
	copy(out, f.submitCalls)
	return out
}

func (f *fakeChain) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}
