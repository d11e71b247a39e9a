package tiers

import "errors"

var (
	// ErrTierCountOutOfRange is returned when a tier count falls outside
	// [MinTiers, MaxTiers].
	ErrTierCountOutOfRange = errors.New("tier count out of range")

	// ErrInvalidTier is returned when a tier index does not exist in the
	// active table.
	ErrInvalidTier = errors.New("tier index out of range")

	// ErrInsufficientLiquidity is returned when a consumption cannot be
	// covered by the tier's remaining liquidity and the reserve together.
	// The pool's balances are left untouched.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrSharesZero is returned when a config weights ordinary or canary
	// tiers at zero shares.
	ErrSharesZero = errors.New("tier and canary shares must be non-zero")

	// ErrGrandPrizePeriodZero is returned when a config has no grand prize
	// horizon to anchor the odds curve on.
	ErrGrandPrizePeriodZero = errors.New("grand prize period must be non-zero")

	// ErrUtilizationRate is returned when the utilization mantissa is zero
	// or exceeds one.
	ErrUtilizationRate = errors.New("utilization rate outside (0, 1]")
)
