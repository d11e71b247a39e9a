// Package metrics exposes the pool's prometheus instruments. Collectors are
// registered once on first use and every observer is safe to call on a nil
// receiver, so instrumented code needs no wiring in tests.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "tombola"
	subsystem = "pool"
)

// PoolMetrics carries the instruments for the prize pool's ledger flow.
// Token-denominated series are approximate; the ledger itself never rounds.
type PoolMetrics struct {
	contributions     *prometheus.CounterVec
	contributedTokens *prometheus.CounterVec
	drawsAwarded      prometheus.Counter
	awardedTokens     prometheus.Counter
	consumedTokens    *prometheus.CounterVec
	reserveTokens     prometheus.Gauge
	tierCount         prometheus.Gauge
	prizeSizeTokens   *prometheus.GaugeVec
}

var (
	poolOnce    sync.Once
	poolMetrics *PoolMetrics
)

// Pool returns the process-wide pool metrics, registering them on first
// call.
func Pool() *PoolMetrics {
	poolOnce.Do(func() {
		poolMetrics = &PoolMetrics{
			contributions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "contributions_total",
				Help:      "Number of contributions accepted, by source.",
			}, []string{"source"}),
			contributedTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "contributed_tokens_total",
				Help:      "Approximate token volume contributed, by source.",
			}, []string{"source"}),
			drawsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "draws_awarded_total",
				Help:      "Number of draws awarded.",
			}),
			awardedTokens: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "awarded_tokens_total",
				Help:      "Approximate token volume pushed through awards.",
			}),
			consumedTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "consumed_tokens_total",
				Help:      "Approximate token volume consumed, by tier.",
			}, []string{"tier"}),
			reserveTokens: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reserve_tokens",
				Help:      "Approximate reserve balance in tokens.",
			}),
			tierCount: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tier_count",
				Help:      "Size of the active tier table.",
			}),
			prizeSizeTokens: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "prize_size_tokens",
				Help:      "Approximate per-prize amount, by tier.",
			}, []string{"tier"}),
		}
		prometheus.MustRegister(
			poolMetrics.contributions,
			poolMetrics.contributedTokens,
			poolMetrics.drawsAwarded,
			poolMetrics.awardedTokens,
			poolMetrics.consumedTokens,
			poolMetrics.reserveTokens,
			poolMetrics.tierCount,
			poolMetrics.prizeSizeTokens,
		)
	})
	return poolMetrics
}

// ObserveContribution records one accepted contribution.
func (m *PoolMetrics) ObserveContribution(source string, tokens float64) {
	if m == nil {
		return
	}
	m.contributions.WithLabelValues(source).Inc()
	m.contributedTokens.WithLabelValues(source).Add(tokens)
}

// ObserveAward records one awarded draw and the pool state it left behind.
func (m *PoolMetrics) ObserveAward(tiers uint8, liquidityTokens, reserveTokens float64) {
	if m == nil {
		return
	}
	m.drawsAwarded.Inc()
	m.awardedTokens.Add(liquidityTokens)
	m.tierCount.Set(float64(tiers))
	m.reserveTokens.Set(reserveTokens)
}

// ObserveConsumption records liquidity spent from a tier and the reserve
// left afterwards.
func (m *PoolMetrics) ObserveConsumption(tier uint8, tokens, reserveTokens float64) {
	if m == nil {
		return
	}
	m.consumedTokens.WithLabelValues(strconv.Itoa(int(tier))).Add(tokens)
	m.reserveTokens.Set(reserveTokens)
}

// SetPrizeSize records a tier's current per-prize amount.
func (m *PoolMetrics) SetPrizeSize(tier uint8, tokens float64) {
	if m == nil {
		return
	}
	m.prizeSizeTokens.WithLabelValues(strconv.Itoa(int(tier))).Set(tokens)
}
