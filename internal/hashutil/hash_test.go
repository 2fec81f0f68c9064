package hashutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHashDeterministic(t *testing.T) {
	inputs := []string{"", "a", "Chiefs|Bills|nfl|2026-01-15", "some longer seed with spaces"}
	for _, in := range inputs {
		first := Hash(in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Hash(in), "hash must be stable for %q", in)
		}
	}
}

func TestHashNonNegative(t *testing.T) {
	// The sign bit is cleared so conversions to int32 stay non-negative
	for _, in := range []string{"x", "yy", "zzz", "Chiefs", "Bills", "total|over"} {
		h := Hash(in)
		assert.GreaterOrEqual(t, int32(h), int32(0))
	}
}

func TestHashDistinctInputs(t *testing.T) {
	assert.NotEqual(t, Hash("Chiefs"), Hash("Bills"))
	assert.NotEqual(t, Hash("a|b"), Hash("b|a"))
}

func TestBoundedRange(t *testing.T) {
	tests := []struct {
		seed   string
		lo, hi int
	}{
		{"alpha", 35, 95},
		{"beta", 0, 1},
		{"gamma", -10, 10},
		{"delta", 5, 5},
	}
	for _, tt := range tests {
		got := Bounded(tt.seed, tt.lo, tt.hi)
		assert.GreaterOrEqual(t, got, tt.lo, "seed %q", tt.seed)
		assert.LessOrEqual(t, got, tt.hi, "seed %q", tt.seed)
		assert.Equal(t, got, Bounded(tt.seed, tt.lo, tt.hi), "bounded must be deterministic")
	}
}

func TestBoundedDegenerateRange(t *testing.T) {
	assert.Equal(t, 7, Bounded("anything", 7, 7))
	assert.Equal(t, 7, Bounded("anything", 7, 3))
}

func TestBoundedFloatRange(t *testing.T) {
	for _, seed := range []string{"one", "two", "three"} {
		got := BoundedFloat(seed, 0.25, 0.75)
		assert.GreaterOrEqual(t, got, 0.25)
		assert.Less(t, got, 0.75)
	}
}

func TestDayBucketUTC(t *testing.T) {
	loc := time.FixedZone("behind", -5*3600)
	// 23:30 local on Jan 14 is already Jan 15 in UTC
	local := time.Date(2026, 1, 14, 23, 30, 0, 0, loc)
	assert.Equal(t, "2026-01-15", DayBucket(local))

	utc := time.Date(2026, 1, 15, 4, 30, 0, 0, time.UTC)
	assert.Equal(t, DayBucket(local), DayBucket(utc))
}

func TestSeedJoining(t *testing.T) {
	assert.Equal(t, "a|b|c", Seed("a", "b", "c"))
	assert.Equal(t, "a", Seed("a"))
	assert.NotEqual(t, Seed("ab", "c"), Seed("a", "bc"))
}

func TestMatchupSeedStableWithinDay(t *testing.T) {
	morning := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 1, 15, 22, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)

	assert.Equal(t,
		MatchupSeed("Chiefs", "Bills", "nfl", morning),
		MatchupSeed("Chiefs", "Bills", "nfl", evening))
	assert.NotEqual(t,
		MatchupSeed("Chiefs", "Bills", "nfl", morning),
		MatchupSeed("Chiefs", "Bills", "nfl", nextDay))
	assert.NotEqual(t,
		MatchupSeed("Chiefs", "Bills", "nfl", morning),
		MatchupSeed("Bills", "Chiefs", "nfl", morning))
}
