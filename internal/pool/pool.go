// Package pool ties the contribution ledger and the tier distributor
// together behind one concurrency-safe facade.
//
// Contributions accrue per draw, tagged by source, until the draw is
// awarded; awarding pulls every contribution since the previous award into
// the distributor, which splits it across the prize tiers and the reserve.
// Read operations take a shared lock and never observe a half-applied
// award.
package pool

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/tombolalabs/tombola/internal/draws"
	"github.com/tombolalabs/tombola/internal/drawtime"
	"github.com/tombolalabs/tombola/internal/fixedpoint"
	"github.com/tombolalabs/tombola/internal/tiers"
	"github.com/tombolalabs/tombola/pkg/metrics"
)

// SourceID names a contribution source. Sources are opaque to the pool;
// they exist so per-source portions of a draw range can be answered.
type SourceID string

// PrizePool is the accounting core: a pooled contribution ledger, one
// ledger per source, and the tier distributor the pooled funds flow into.
type PrizePool struct {
	mu  sync.RWMutex
	log zerolog.Logger

	total   *draws.Accumulator
	sources map[SourceID]*draws.Accumulator
	dist    *tiers.Distributor
}

// AwardResult summarizes a closed draw.
type AwardResult struct {
	Draw          drawtime.DrawID
	NumberOfTiers uint8
	Liquidity     *uint256.Int
	Reserve       *uint256.Int
	AwardedAt     time.Time
}

// New builds a pool opening with numberOfTiers prize tiers.
func New(numberOfTiers uint8, cfg tiers.Config, logger zerolog.Logger) (*PrizePool, error) {
	dist, err := tiers.New(numberOfTiers, cfg)
	if err != nil {
		return nil, err
	}
	return &PrizePool{
		log:     logger,
		total:   draws.NewAccumulator(),
		sources: make(map[SourceID]*draws.Accumulator),
		dist:    dist,
	}, nil
}

// Contribute credits amount to draw on behalf of source, reporting whether
// this opened a new draw on the source's ledger. Contributions to awarded
// draws are rejected: the pooled ledger's newest record never trails the
// last awarded draw.
func (p *PrizePool) Contribute(source SourceID, amount *uint256.Int, draw drawtime.DrawID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if draw == drawtime.NoDraw {
		return false, fmt.Errorf("contribution from %q: %w", source, draws.ErrDrawZero)
	}
	// The ledger alone would merge a late credit into the newest record;
	// awarding is what closes a draw, so the award watermark decides.
	if last := p.dist.LastAwardedDraw(); draw <= last {
		return false, fmt.Errorf("contribution from %q: %w: draw %d, last awarded %d", source, draws.ErrDrawClosed, draw, last)
	}

	if _, err := p.total.Add(amount, draw); err != nil {
		return false, fmt.Errorf("contribution from %q: %w", source, err)
	}

	acc, ok := p.sources[source]
	if !ok {
		acc = draws.NewAccumulator()
		p.sources[source] = acc
	}
	// The source ledger records a subset of the pooled one, so a credit
	// the pooled ledger accepted cannot fail here.
	opened, err := acc.Add(amount, draw)
	if err != nil {
		return false, fmt.Errorf("contribution from %q: %w", source, err)
	}

	p.log.Debug().
		Str("source", string(source)).
		Uint32("draw", uint32(draw)).
		Str("amount", amount.Dec()).
		Msg("contribution accepted")
	metrics.Pool().ObserveContribution(string(source), approxTokens(amount))
	return opened, nil
}

// AwardDraw closes draw: every contribution since the last award becomes
// the fresh pot handed to the distributor, and the next draw opens with
// nextNumberOfTiers tiers. Draws close in strict order, once each.
func (p *PrizePool) AwardDraw(draw drawtime.DrawID, nextNumberOfTiers uint8) (AwardResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	last := p.dist.LastAwardedDraw()
	if draw <= last {
		return AwardResult{}, fmt.Errorf("%w: draw %d, last awarded %d", ErrDrawAlreadyAwarded, draw, last)
	}

	liquidity, err := p.total.DisbursedBetween(last+1, draw)
	if err != nil {
		return AwardResult{}, fmt.Errorf("award draw %d: %w", draw, err)
	}

	if err := p.dist.AwardDraw(draw, nextNumberOfTiers, liquidity); err != nil {
		return AwardResult{}, err
	}

	res := AwardResult{
		Draw:          draw,
		NumberOfTiers: p.dist.NumberOfTiers(),
		Liquidity:     liquidity,
		Reserve:       p.dist.Reserve(),
		AwardedAt:     p.dist.LastAwardedAt(),
	}

	p.log.Info().
		Uint32("draw", uint32(draw)).
		Uint8("tiers", res.NumberOfTiers).
		Str("liquidity", res.Liquidity.Dec()).
		Str("reserve", res.Reserve.Dec()).
		Msg("draw awarded")
	m := metrics.Pool()
	m.ObserveAward(res.NumberOfTiers, approxTokens(res.Liquidity), approxTokens(res.Reserve))
	for tier := uint8(0); tier < res.NumberOfTiers; tier++ {
		m.SetPrizeSize(tier, approxTokens(p.dist.PrizeSize(tier)))
	}
	return res, nil
}

// ConsumeLiquidity spends amount from a tier, drawing any shortfall from
// the reserve.
func (p *PrizePool) ConsumeLiquidity(tier uint8, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.dist.ConsumeLiquidity(tier, amount); err != nil {
		return err
	}

	p.log.Debug().
		Uint8("tier", tier).
		Str("amount", amount.Dec()).
		Msg("liquidity consumed")
	metrics.Pool().ObserveConsumption(tier, approxTokens(amount), approxTokens(p.dist.Reserve()))
	return nil
}

// SourcePortion returns the share of pooled contributions source supplied
// over the draw range [start, end], as an 18-decimal mantissa. A range with
// no pooled contributions, or a source unseen in it, yields zero.
func (p *PrizePool) SourcePortion(source SourceID, start, end drawtime.DrawID) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	total, err := p.total.DisbursedBetween(start, end)
	if err != nil {
		return nil, err
	}
	if total.IsZero() {
		return new(uint256.Int), nil
	}

	acc, ok := p.sources[source]
	if !ok {
		return new(uint256.Int), nil
	}
	part, err := acc.DisbursedBetween(start, end)
	if err != nil {
		return nil, err
	}

	// part never exceeds total, so the mantissa is at most one unit.
	return fixedpoint.MulDiv(part, uint256.NewInt(fixedpoint.Scale), total)
}

// DisbursedBetween returns the pooled contribution total over the draw
// range [start, end].
func (p *PrizePool) DisbursedBetween(start, end drawtime.DrawID) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.total.DisbursedBetween(start, end)
}

// NewestDrawID returns the newest draw with a recorded contribution, or
// NoDraw when nothing has been contributed yet.
func (p *PrizePool) NewestDrawID() drawtime.DrawID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.total.NewestDrawID()
}

// LastAwardedDraw returns the most recently awarded draw, or NoDraw before
// the first award.
func (p *PrizePool) LastAwardedDraw() drawtime.DrawID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dist.LastAwardedDraw()
}

// NumberOfTiers returns the size of the active tier table.
func (p *PrizePool) NumberOfTiers() uint8 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dist.NumberOfTiers()
}

// Reserve returns the reserve balance.
func (p *PrizePool) Reserve() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dist.Reserve()
}

// RemainingLiquidity returns the liquidity a tier still holds.
func (p *PrizePool) RemainingLiquidity(tier uint8) *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dist.RemainingLiquidity(tier)
}

// PrizeSize returns the per-prize amount a tier pays right now.
func (p *PrizePool) PrizeSize(tier uint8) *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dist.PrizeSize(tier)
}

// TierOdds returns the 18-decimal odds of a tier hitting a draw under the
// active table.
func (p *PrizePool) TierOdds(tier uint8) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dist.TierOdds(tier, p.dist.NumberOfTiers())
}

// EstimateNextTierCount picks the tier count for the next award from the
// number of prizes claimed on the last one.
func (p *PrizePool) EstimateNextTierCount(claimedPrizes uint32) uint8 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dist.EstimateTierCountForPrizes(claimedPrizes)
}

// approxTokens renders a wei amount as whole tokens for logs and gauges.
// Reporting only; the ledger itself never rounds.
func approxTokens(v *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f / float64(fixedpoint.Scale)
}
