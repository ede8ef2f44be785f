package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOfScenario(t *testing.T) {
	tests := []struct {
		solves   int
		wantTier string
	}{
		{0, "Beginner"},
		{9, "Beginner"},
		{10, "Novice"},
		{24, "Novice"},
		{25, "Advanced"},
		{49, "Advanced"},
		{50, "Expert"},
		{99, "Expert"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.wantTier, RankOf(tt.solves).Tier.Name, "solves=%d", tt.solves)
	}
}

func TestRankOfBoundaries(t *testing.T) {
	p := RankOf(0)
	assert.Equal(t, "Beginner", p.Tier.Name)
	require.NotNil(t, p.Next)
	assert.Equal(t, "Novice", p.Next.Name)
	assert.Equal(t, 10, p.Remaining)
	assert.Zero(t, p.Fraction)

	p = RankOf(5)
	assert.InDelta(t, 0.5, p.Fraction, 1e-9)
	assert.Equal(t, 5, p.Remaining)
}

func TestRankOfTopTier(t *testing.T) {
	for _, solves := range []int{100, 101, 100000} {
		p := RankOf(solves)
		assert.Equal(t, "Master", p.Tier.Name, "solves=%d", solves)
		assert.Nil(t, p.Next)
		assert.Equal(t, 1.0, p.Fraction)
		assert.Zero(t, p.Remaining)
	}
}

func TestRankOfNegativeTreatedAsZero(t *testing.T) {
	assert.Equal(t, RankOf(0), RankOf(-5))
}

func TestTiersOrdered(t *testing.T) {
	ts := Tiers()
	require.NotEmpty(t, ts)
	assert.Zero(t, ts[0].MinSolves)
	for i := 1; i < len(ts); i++ {
		assert.Greater(t, ts[i].MinSolves, ts[i-1].MinSolves)
	}
}

func TestTiersCopyIsolated(t *testing.T) {
	ts := Tiers()
	ts[0].Name = "mutated"
	assert.Equal(t, "Beginner", Tiers()[0].Name)
}
