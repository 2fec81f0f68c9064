// Package hashutil provides deterministic hashing for reproducible scoring.
package hashutil

import (
	"fmt"
	"time"
)

// FNV-1a 32-bit parameters.
const (
	offsetBasis uint32 = 2166136261
	prime       uint32 = 16777619
)

// Hash maps an arbitrary string to a stable non-negative 32-bit integer.
// Equal inputs always produce equal outputs across runs and platforms.
func Hash(s string) uint32 {
	h := offsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	// Clear the sign bit so the value stays non-negative when callers
	// convert to a signed type.
	return h & 0x7fffffff
}

// Bounded maps a seed string into the inclusive range [lo, hi].
func Bounded(seed string, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	span := uint32(hi - lo + 1)
	return lo + int(Hash(seed)%span)
}

// BoundedFloat maps a seed string into the half-open range [lo, hi).
func BoundedFloat(seed string, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	frac := float64(Hash(seed)) / float64(0x7fffffff)
	return lo + frac*(hi-lo)
}

// DayBucket returns a UTC calendar-day key. Seeding hashes with the day
// bucket keeps synthesized values stable within a day but lets them roll
// over between days.
func DayBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed joins key parts into a single hash seed.
func Seed(parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}

// MatchupSeed builds a stable seed for a home/away pairing on a given day.
func MatchupSeed(homeTeam, awayTeam, sport string, t time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s", homeTeam, awayTeam, sport, DayBucket(t))
}
