// Package tiers apportions awarded liquidity across a resizable table of
// prize tiers.
//
// The accounting pivots on a single monotone exchange rate, the pool's
// tokens-per-share. Awarding a draw divides the pot by the total share
// weight and advances the global rate by the whole-share quotient; each
// tier's record pins the rate it was last settled at, so the rate gap times
// the tier's shares is exactly the liquidity it still holds. Truncation
// dust and the reserve weight's slice accrue to an explicit reserve, which
// also backstops consumption overdrafts. No wei is created or lost by an
// award: the pot splits exactly between the tiers and the reserve.
//
// The two highest tier indices are canary tiers. They reset every draw and
// their prize volume estimates demand, steering the tier count for the next
// draw.
package tiers

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/tombolalabs/tombola/internal/drawtime"
	"github.com/tombolalabs/tombola/internal/fixedpoint"
	"github.com/tombolalabs/tombola/internal/safemath"
)

const (
	// MinTiers and MaxTiers bound the tier count, canary tiers included.
	MinTiers = 4
	MaxTiers = 11

	// canaryCount is the number of short-lived tiers at the bottom of the
	// table.
	canaryCount = 2
)

const (
	// RateBits bounds the exchange rates. Awards that would push the
	// global rate past this width fail loudly.
	RateBits = 128

	// ReserveBits bounds the reserve balance.
	ReserveBits = 96

	// PrizeSizeBits bounds the reported per-prize amount, which saturates
	// rather than fails: prize sizes carry no accounting weight.
	PrizeSizeBits = 104
)

// Config fixes a distributor's share weights and odds horizon for its
// lifetime.
type Config struct {
	// TierShares weights each ordinary tier's slice of awarded liquidity.
	TierShares uint32

	// CanaryShares weights each of the two canary tiers.
	CanaryShares uint32

	// ReserveShares weights the reserve. Zero is legal; truncation dust
	// still accrues to the reserve.
	ReserveShares uint32

	// GrandPrizePeriod is the expected number of draws between grand
	// prizes.
	GrandPrizePeriod uint32

	// UtilizationRate scales how much of a tier's remaining liquidity is
	// offered as prizes, as an 18-decimal mantissa in (0, Scale].
	UtilizationRate uint64
}

func (c Config) validate() error {
	if c.TierShares == 0 || c.CanaryShares == 0 {
		return ErrSharesZero
	}
	if c.GrandPrizePeriod == 0 {
		return ErrGrandPrizePeriodZero
	}
	if c.UtilizationRate == 0 || c.UtilizationRate > fixedpoint.Scale {
		return ErrUtilizationRate
	}
	return nil
}

// Tier is one prize tier's accounting record. TokensPerShare pins the
// global exchange rate the tier was last settled at; the gap up to the
// current global rate, times the tier's shares, is its remaining
// liquidity. PrizeSize is a cached reporting value that goes stale when a
// draw is awarded without reseeding the tier; reads refresh it lazily.
type Tier struct {
	LastUpdatedDraw drawtime.DrawID
	TokensPerShare  uint256.Int
	PrizeSize       uint256.Int
}

// Distributor holds the tier table, the global exchange rate and the
// reserve. Use New to construct one; the zero value is not usable.
type Distributor struct {
	cfg Config

	numberOfTiers   uint8
	tokensPerShare  uint256.Int
	reserve         uint256.Int
	lastAwardedDraw drawtime.DrawID
	lastAwardedAt   time.Time

	tiers map[uint8]*Tier
	odds  oddsTable
}

var now = time.Now

// New builds a distributor opening with numberOfTiers tiers. All tiers
// start settled at the zero rate, holding nothing.
func New(numberOfTiers uint8, cfg Config) (*Distributor, error) {
	if numberOfTiers < MinTiers || numberOfTiers > MaxTiers {
		return nil, fmt.Errorf("%w: %d", ErrTierCountOutOfRange, numberOfTiers)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Distributor{
		cfg:           cfg,
		numberOfTiers: numberOfTiers,
		tiers:         make(map[uint8]*Tier),
		odds:          newOddsTable(cfg.GrandPrizePeriod),
	}, nil
}

// AwardDraw closes a draw. Liquidity reclaimed from the canary tiers, and
// from any tiers a shrink retires, joins the fresh liquidity; the pot is
// split per share across the next table and the reserve. Affected tiers
// are reseeded at the pre-award exchange rate, so after the global rate
// advances they hold exactly their slice of the pot. The truncation
// remainder of the per-share division lands in the reserve. On any error
// the distributor is left untouched.
func (d *Distributor) AwardDraw(draw drawtime.DrawID, nextNumberOfTiers uint8, liquidity *uint256.Int) error {
	if nextNumberOfTiers < MinTiers || nextNumberOfTiers > MaxTiers {
		return fmt.Errorf("%w: %d", ErrTierCountOutOfRange, nextNumberOfTiers)
	}

	floor := reclamationFloor(d.numberOfTiers, nextNumberOfTiers)
	pot := liquidity.Clone()
	for tier := floor; tier < d.numberOfTiers; tier++ {
		rec := d.record(tier)
		remaining := remainingBetween(&rec.TokensPerShare, &d.tokensPerShare, d.shares(tier, d.numberOfTiers))
		sum, err := fixedpoint.Add(pot, remaining)
		if err != nil {
			return fmt.Errorf("award draw %d: reclaiming tier %d: %w", draw, tier, err)
		}
		pot = sum
	}

	shares := d.totalShares(nextNumberOfTiers)
	delta, dust, err := fixedpoint.DivU64(pot, shares)
	if err != nil {
		return fmt.Errorf("award draw %d: %w", draw, err)
	}

	newRate, err := fixedpoint.Add(&d.tokensPerShare, delta)
	if err != nil {
		return fmt.Errorf("award draw %d: exchange rate: %w", draw, err)
	}
	if !fixedpoint.FitsBits(newRate, RateBits) {
		return fmt.Errorf("award draw %d: exchange rate: %w", draw, fixedpoint.ErrOverflow)
	}

	reserveCut, err := fixedpoint.MulU64(delta, uint64(d.cfg.ReserveShares))
	if err != nil {
		return fmt.Errorf("award draw %d: reserve: %w", draw, err)
	}
	newReserve, err := fixedpoint.Add(&d.reserve, reserveCut)
	if err != nil {
		return fmt.Errorf("award draw %d: reserve: %w", draw, err)
	}
	newReserve, err = fixedpoint.Add(newReserve, dust)
	if err != nil {
		return fmt.Errorf("award draw %d: reserve: %w", draw, err)
	}
	if !fixedpoint.FitsBits(newReserve, ReserveBits) {
		return fmt.Errorf("award draw %d: reserve: %w", draw, fixedpoint.ErrOverflow)
	}

	prevRate := d.tokensPerShare.Clone()
	for tier := floor; tier < nextNumberOfTiers; tier++ {
		d.tiers[tier] = &Tier{
			LastUpdatedDraw: draw,
			TokensPerShare:  *prevRate,
			PrizeSize:       *d.computePrizeSize(tier, nextNumberOfTiers, prevRate, newRate),
		}
	}
	d.tokensPerShare.Set(newRate)
	d.numberOfTiers = nextNumberOfTiers
	d.lastAwardedDraw = draw
	d.lastAwardedAt = now()
	d.reserve.Set(newReserve)
	return nil
}

// ConsumeLiquidity spends amount from a tier, drawing any shortfall from
// the reserve. A covered spend advances the tier's rate by the ceiling of
// the per-share cost, so rounding can only over-charge the tier, never
// under-charge it; an overdraft snaps the tier to the global rate and
// debits the reserve for the difference. A spend that not even the reserve
// can cover fails and leaves every balance untouched.
func (d *Distributor) ConsumeLiquidity(tier uint8, amount *uint256.Int) error {
	if tier >= d.numberOfTiers {
		return fmt.Errorf("%w: tier %d of %d", ErrInvalidTier, tier, d.numberOfTiers)
	}

	rec := d.freshRecord(tier)
	shares := d.shares(tier, d.numberOfTiers)
	remaining := remainingBetween(&rec.TokensPerShare, &d.tokensPerShare, shares)

	if amount.Cmp(remaining) > 0 {
		excess := new(uint256.Int).Sub(amount, remaining)
		if excess.Cmp(&d.reserve) > 0 {
			return fmt.Errorf("%w: consuming %s from tier %d", ErrInsufficientLiquidity, amount.Dec(), tier)
		}
		d.reserve.Sub(&d.reserve, excess)
		rec.TokensPerShare.Set(&d.tokensPerShare)
	} else {
		// remaining covers amount, so the ceiling advance cannot push the
		// tier's rate past the global rate.
		advance, err := fixedpoint.DivCeilU64(amount, uint64(shares))
		if err != nil {
			return fmt.Errorf("consuming from tier %d: %w", tier, err)
		}
		rec.TokensPerShare.Add(&rec.TokensPerShare, advance)
	}

	d.tiers[tier] = &rec
	return nil
}

// RemainingLiquidity returns the liquidity a tier still holds. Tiers
// outside the active table hold nothing.
func (d *Distributor) RemainingLiquidity(tier uint8) *uint256.Int {
	if tier >= d.numberOfTiers {
		return new(uint256.Int)
	}
	rec := d.record(tier)
	return remainingBetween(&rec.TokensPerShare, &d.tokensPerShare, d.shares(tier, d.numberOfTiers))
}

// Tier returns a tier's record, refreshing the cached prize size if the
// record predates the last awarded draw.
func (d *Distributor) Tier(tier uint8) (Tier, error) {
	if tier >= d.numberOfTiers {
		return Tier{}, fmt.Errorf("%w: tier %d of %d", ErrInvalidTier, tier, d.numberOfTiers)
	}
	return d.freshRecord(tier), nil
}

// PrizeSize returns the per-prize amount a tier pays right now. Tiers
// outside the active table pay nothing.
func (d *Distributor) PrizeSize(tier uint8) *uint256.Int {
	if tier >= d.numberOfTiers {
		return new(uint256.Int)
	}
	rec := d.freshRecord(tier)
	return rec.PrizeSize.Clone()
}

// TierOdds returns the 18-decimal odds of a tier hitting a draw under a
// table of numTiers tiers.
func (d *Distributor) TierOdds(tier, numTiers uint8) (uint64, error) {
	if numTiers < MinTiers || numTiers > MaxTiers {
		return 0, fmt.Errorf("%w: %d", ErrTierCountOutOfRange, numTiers)
	}
	if tier >= numTiers {
		return 0, fmt.Errorf("%w: tier %d of %d", ErrInvalidTier, tier, numTiers)
	}
	return d.odds.odds[numTiers][tier], nil
}

// EstimatedPrizeCount returns the number of prizes a table of numTiers
// tiers pays per draw in expectation.
func (d *Distributor) EstimatedPrizeCount(numTiers uint8) (uint32, error) {
	if numTiers < MinTiers || numTiers > MaxTiers {
		return 0, fmt.Errorf("%w: %d", ErrTierCountOutOfRange, numTiers)
	}
	return d.odds.expected[numTiers], nil
}

// EstimateTierCountForPrizes picks the next tier count from an observed
// prize claim count: the observation is doubled for claim headroom, and the
// smallest legal table expected to pay more than that wins, capped at
// MaxTiers.
func (d *Distributor) EstimateTierCountForPrizes(observed uint32) uint8 {
	target, ok := safemath.Mul32(observed, 2)
	if !ok {
		return MaxTiers
	}
	for n := uint8(MinTiers); n <= MaxTiers; n++ {
		if d.odds.expected[n] > target {
			return n
		}
	}
	return MaxTiers
}

// NumberOfTiers returns the size of the active tier table.
func (d *Distributor) NumberOfTiers() uint8 {
	return d.numberOfTiers
}

// LastAwardedDraw returns the most recently awarded draw, or NoDraw before
// the first award.
func (d *Distributor) LastAwardedDraw() drawtime.DrawID {
	return d.lastAwardedDraw
}

// LastAwardedAt returns the wall-clock instant of the last award.
func (d *Distributor) LastAwardedAt() time.Time {
	return d.lastAwardedAt
}

// Reserve returns the reserve balance.
func (d *Distributor) Reserve() *uint256.Int {
	return d.reserve.Clone()
}

// TokensPerShare returns the current global exchange rate.
func (d *Distributor) TokensPerShare() *uint256.Int {
	return d.tokensPerShare.Clone()
}

// TotalShares returns the combined share weight of the active table and the
// reserve.
func (d *Distributor) TotalShares() uint64 {
	return d.totalShares(d.numberOfTiers)
}

// Config returns the distributor's immutable configuration.
func (d *Distributor) Config() Config {
	return d.cfg
}

// record returns the stored record for a tier, or the zero record if the
// tier has never been written. The zero record is settled at the zero
// rate, which is where every tier starts.
func (d *Distributor) record(tier uint8) Tier {
	if rec, ok := d.tiers[tier]; ok {
		return *rec
	}
	return Tier{}
}

// freshRecord returns a tier's record with the cached prize size
// recomputed when the stored one predates the last award.
func (d *Distributor) freshRecord(tier uint8) Tier {
	rec := d.record(tier)
	if rec.LastUpdatedDraw != d.lastAwardedDraw {
		rec.PrizeSize = *d.computePrizeSize(tier, d.numberOfTiers, &rec.TokensPerShare, &d.tokensPerShare)
		rec.LastUpdatedDraw = d.lastAwardedDraw
	}
	return rec
}

// computePrizeSize returns the per-prize amount for a tier: its remaining
// liquidity scaled by the utilization rate, split evenly across the tier's
// prizes, saturating at the reporting width.
func (d *Distributor) computePrizeSize(tier, numTiers uint8, tierRate, globalRate *uint256.Int) *uint256.Int {
	remaining := remainingBetween(tierRate, globalRate, d.shares(tier, numTiers))
	if remaining.IsZero() {
		return new(uint256.Int)
	}

	// The utilization mantissa is at most one, so the scaled value never
	// exceeds remaining, and a tier inside the table pays at least one
	// prize; neither division can fail.
	utilized, _ := fixedpoint.MulDiv(remaining, uint256.NewInt(d.cfg.UtilizationRate), uint256.NewInt(fixedpoint.Scale))
	size, _, _ := fixedpoint.DivU64(utilized, uint64(PrizeCount(tier)))
	return fixedpoint.SaturateBits(size, PrizeSizeBits)
}

// shares returns a tier's weight under a table of numTiers tiers; the two
// highest indices are canary tiers.
func (d *Distributor) shares(tier, numTiers uint8) uint32 {
	if tier >= numTiers-canaryCount {
		return d.cfg.CanaryShares
	}
	return d.cfg.TierShares
}

// totalShares returns the combined weight of numTiers tiers plus the
// reserve.
func (d *Distributor) totalShares(numTiers uint8) uint64 {
	ordinary := uint64(numTiers-canaryCount) * uint64(d.cfg.TierShares)
	canary := uint64(canaryCount) * uint64(d.cfg.CanaryShares)
	return ordinary + canary + uint64(d.cfg.ReserveShares)
}

// reclamationFloor returns the lowest tier index reclaimed when moving
// between tier counts: both canaries of the smaller table, plus everything
// a shrink retires.
func reclamationFloor(current, next uint8) uint8 {
	floor := current
	if next < floor {
		floor = next
	}
	return floor - canaryCount
}

// remainingBetween returns the liquidity held between a tier's settled
// rate and the global rate: (globalRate - tierRate) * shares. A tier
// settled at or past the global rate holds nothing.
func remainingBetween(tierRate, globalRate *uint256.Int, shares uint32) *uint256.Int {
	if tierRate.Cmp(globalRate) >= 0 {
		return new(uint256.Int)
	}
	gap := new(uint256.Int).Sub(globalRate, tierRate)

	// A 128-bit rate gap times 32-bit shares stays far below 256 bits.
	return gap.Mul(gap, uint256.NewInt(uint64(shares)))
}
