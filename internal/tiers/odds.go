package tiers

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/tombolalabs/tombola/internal/fixedpoint"
)

// oddsTable precomputes per-draw win odds and expected prize counts for
// every legal tier count, anchored on one grand prize period.
type oddsTable struct {
	// odds[n][t] is the 18-decimal chance that tier t hits a draw under a
	// table of n tiers.
	odds [MaxTiers + 1][MaxTiers]uint64

	// expected[n] is the number of prizes a table of n tiers pays per draw
	// in expectation.
	expected [MaxTiers + 1]uint32
}

func newOddsTable(grandPrizePeriod uint32) oddsTable {
	var t oddsTable
	for n := MinTiers; n <= MaxTiers; n++ {
		var sum uint64
		for tier := 0; tier < n; tier++ {
			o := tierOdds(tier, n, grandPrizePeriod)
			t.odds[n][tier] = o

			// floor(prizeCount * odds), summed per tier.
			count := uint256.NewInt(uint64(PrizeCount(uint8(tier))))
			hits, _ := fixedpoint.MulDiv(count, uint256.NewInt(o), uint256.NewInt(fixedpoint.Scale))
			sum += hits.Uint64()
		}
		t.expected[n] = uint32(sum)
	}
	return t
}

// tierOdds returns the 18-decimal odds that a tier hits a given draw under
// a table of numTiers tiers. The grand prize hits once per period in
// expectation, the two canary tiers hit every draw, and the tiers between
// sit on a geometric curve joining those anchors.
func tierOdds(tier, numTiers int, grandPrizePeriod uint32) uint64 {
	switch {
	case tier >= numTiers-canaryCount:
		return fixedpoint.Scale
	case tier == 0:
		return fixedpoint.Scale / uint64(grandPrizePeriod)
	default:
		exp := float64(canaryCount+tier-numTiers) / float64(numTiers-canaryCount)
		return uint64(math.Round(math.Pow(float64(grandPrizePeriod), exp) * float64(fixedpoint.Scale)))
	}
}

// PrizeCount returns the number of prizes a tier pays on a draw it hits:
// 4^tier. Indices outside the largest possible table pay nothing.
func PrizeCount(tier uint8) uint32 {
	if tier >= MaxTiers {
		return 0
	}
	return 1 << (2 * tier)
}
