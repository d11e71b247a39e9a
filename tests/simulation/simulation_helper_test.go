package simulation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/tombolalabs/tombola/internal/fixedpoint"
	"github.com/tombolalabs/tombola/internal/pool"
	"github.com/tombolalabs/tombola/internal/tiers"
)

// shadowLedger recomputes the distributor's balances the long way: every
// award moves whole amounts between explicit per-tier buckets, with no
// exchange rates involved. Agreement between the two bookkeeping styles over
// a long random walk is the property the simulation exercises.
type shadowLedger struct {
	cfg           tiers.Config
	numberOfTiers uint8
	remaining     [tiers.MaxTiers]uint256.Int
	reserve       uint256.Int
	supplied      uint256.Int
	consumed      uint256.Int
}

func newShadowLedger(numberOfTiers uint8, cfg tiers.Config) *shadowLedger {
	return &shadowLedger{cfg: cfg, numberOfTiers: numberOfTiers}
}

func (s *shadowLedger) shares(tier, numberOfTiers uint8) uint64 {
	if tier+2 >= numberOfTiers {
		return uint64(s.cfg.CanaryShares)
	}
	return uint64(s.cfg.TierShares)
}

func (s *shadowLedger) totalShares(numberOfTiers uint8) uint64 {
	total := uint64(s.cfg.ReserveShares)
	for t := uint8(0); t < numberOfTiers; t++ {
		total += s.shares(t, numberOfTiers)
	}
	return total
}

// award reproduces a draw award: reclaim the tail tiers below the shrink
// floor, split the pot by share weight, credit survivors and reseed the rest.
// Division dust lands in the reserve.
func (s *shadowLedger) award(next uint8, fresh *uint256.Int) {
	floor := s.numberOfTiers
	if next < floor {
		floor = next
	}
	floor -= 2

	pot := fresh.Clone()
	for t := floor; t < s.numberOfTiers; t++ {
		pot.Add(pot, &s.remaining[t])
		s.remaining[t].Clear()
	}

	total := uint256.NewInt(s.totalShares(next))
	delta := new(uint256.Int).Div(pot, total)
	dust := new(uint256.Int).Mod(pot, total)

	s.reserve.Add(&s.reserve, dust)
	s.reserve.Add(&s.reserve, new(uint256.Int).Mul(delta, uint256.NewInt(uint64(s.cfg.ReserveShares))))

	for t := uint8(0); t < next; t++ {
		slice := new(uint256.Int).Mul(delta, uint256.NewInt(s.shares(t, next)))
		if t < floor {
			s.remaining[t].Add(&s.remaining[t], slice)
		} else {
			s.remaining[t].Set(slice)
		}
	}
	for t := next; t < tiers.MaxTiers; t++ {
		s.remaining[t].Clear()
	}

	s.numberOfTiers = next
	s.supplied.Add(&s.supplied, fresh)
}

// consume spends a prize from a tier bucket, pulling any excess from the
// reserve. Returns false when the reserve cannot cover the overdraft.
func (s *shadowLedger) consume(tier uint8, amount *uint256.Int) bool {
	rem := &s.remaining[tier]
	if amount.Cmp(rem) <= 0 {
		rem.Sub(rem, amount)
		s.consumed.Add(&s.consumed, amount)
		return true
	}
	excess := new(uint256.Int).Sub(amount, rem)
	if excess.Cmp(&s.reserve) > 0 {
		return false
	}
	s.reserve.Sub(&s.reserve, excess)
	s.consumed.Add(&s.consumed, amount)
	rem.Clear()
	return true
}

func (s *shadowLedger) prizeSize(tier uint8) *uint256.Int {
	if tier >= s.numberOfTiers {
		return new(uint256.Int)
	}
	utilized := new(uint256.Int).Mul(&s.remaining[tier], uint256.NewInt(s.cfg.UtilizationRate))
	utilized.Div(utilized, uint256.NewInt(fixedpoint.Scale))
	count := tiers.PrizeCount(tier)
	return utilized.Div(utilized, uint256.NewInt(uint64(count)))
}

// balance is what the ledger still owes plus what it already paid out.
// Conservation means it equals everything ever supplied.
func (s *shadowLedger) balance() *uint256.Int {
	total := s.consumed.Clone()
	for t := range s.remaining {
		total.Add(total, &s.remaining[t])
	}
	return total.Add(total, &s.reserve)
}

func dumpShadow(s *shadowLedger) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tiers: %d\n", s.numberOfTiers)
	for t := uint8(0); t < tiers.MaxTiers; t++ {
		fmt.Fprintf(&b, "tier %d: remaining=%s prize=%s\n", t, s.remaining[t].Dec(), s.prizeSize(t).Dec())
	}
	fmt.Fprintf(&b, "reserve: %s\n", s.reserve.Dec())
	return b.String()
}

func dumpPool(p *pool.PrizePool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tiers: %d\n", p.NumberOfTiers())
	for t := uint8(0); t < tiers.MaxTiers; t++ {
		fmt.Fprintf(&b, "tier %d: remaining=%s prize=%s\n", t, p.RemainingLiquidity(t).Dec(), p.PrizeSize(t).Dec())
	}
	fmt.Fprintf(&b, "reserve: %s\n", p.Reserve().Dec())
	return b.String()
}

func requireEqualLedgers(t *testing.T, expected, actual string) {
	t.Helper()
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "Expected",
		FromDate: "",
		ToFile:   "Actual",
		ToDate:   "",
		Context:  1,
	})
	if diff != "" {
		t.Fatalf("Ledger mismatch:\n%s", diff)
	}
}
