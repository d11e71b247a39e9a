package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tombolalabs/tombola/internal/tiers"
)

// maxPeriodSeconds keeps the draw period representable as a time.Duration.
const maxPeriodSeconds = uint64(math.MaxInt64 / int64(time.Second))

// Validate rejects configurations the pool or the draw clock could not be
// built from.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir is empty")
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		return fmt.Errorf("MetricsAddress is empty")
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("LogFormat %q is not console or json", c.LogFormat)
	}

	if c.Draws.Genesis != "" {
		if _, err := time.Parse(time.RFC3339, c.Draws.Genesis); err != nil {
			return fmt.Errorf("draws: Genesis: %w", err)
		}
	}
	if c.Draws.PeriodSeconds == 0 {
		return fmt.Errorf("draws: PeriodSeconds is zero")
	}
	if c.Draws.PeriodSeconds > maxPeriodSeconds {
		return fmt.Errorf("draws: PeriodSeconds %d too large", c.Draws.PeriodSeconds)
	}

	if c.Pool.NumberOfTiers < tiers.MinTiers || c.Pool.NumberOfTiers > tiers.MaxTiers {
		return fmt.Errorf("pool: NumberOfTiers %d outside [%d, %d]",
			c.Pool.NumberOfTiers, tiers.MinTiers, tiers.MaxTiers)
	}
	if c.Pool.TierShares == 0 {
		return fmt.Errorf("pool: TierShares is zero")
	}
	if c.Pool.CanaryShares == 0 {
		return fmt.Errorf("pool: CanaryShares is zero")
	}
	if c.Pool.GrandPrizePeriod == 0 {
		return fmt.Errorf("pool: GrandPrizePeriod is zero")
	}
	if c.Pool.UtilizationRate <= 0 || c.Pool.UtilizationRate > 1 {
		return fmt.Errorf("pool: UtilizationRate %v outside (0, 1]", c.Pool.UtilizationRate)
	}
	return nil
}
