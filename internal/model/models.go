// Package model defines the data models for the puzzle commitment service.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User represents a registered player keyed by wallet address.
// The address is case-normalized to lower case and never changes.
type User struct {
	Address   string    `db:"address" json:"address"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Puzzle represents a marketplace puzzle. The answer is never stored;
// only the commitment (hash of encoded answer + salt) and the salt are.
// Commitment and salt are immutable once written, only solved/solver mutate.
type Puzzle struct {
	PuzzleID     string    `db:"puzzle_id" json:"puzzleId"`
	Creator      string    `db:"creator" json:"creator"`
	Question     string    `db:"question" json:"question"`
	Hint         string    `db:"hint" json:"hint"`
	Commitment   string    `db:"commitment" json:"commitment"`
	Salt         string    `db:"salt" json:"salt"`
	RewardAmount int64     `db:"reward_amount" json:"rewardAmount"`
	Difficulty   string    `db:"difficulty" json:"difficulty"`
	Solved       bool      `db:"solved" json:"solved"`
	Solver       *string   `db:"solver" json:"solver"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// DailyPuzzle is a puzzle instance scoped to one user and one calendar day.
// At most one exists per (user_address, puzzle_date); history is append-only.
type DailyPuzzle struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserAddress string    `db:"user_address" json:"userAddress"`
	Date        string    `db:"puzzle_date" json:"date"` // YYYY-MM-DD
	Question    string    `db:"question" json:"question"`
	Hint        string    `db:"hint" json:"hint"`
	Commitment  string    `db:"commitment" json:"commitment"`
	Salt        string    `db:"salt" json:"salt"`
	Solved      bool      `db:"solved" json:"solved"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Puzzle difficulties.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// MinReward returns the minimum reward amount for a difficulty,
// or false for an unknown difficulty.
func MinReward(difficulty string) (int64, bool) {
	switch difficulty {
	case DifficultyEasy:
		return 100, true
	case DifficultyMedium:
		return 250, true
	case DifficultyHard:
		return 500, true
	default:
		return 0, false
	}
}

// Difficulties returns the valid difficulty values in ascending order.
func Difficulties() []string {
	return []string{DifficultyEasy, DifficultyMedium, DifficultyHard}
}
