package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tombolalabs/tombola/internal/drawtime"
	"github.com/tombolalabs/tombola/internal/fixedpoint"
	"github.com/tombolalabs/tombola/internal/tiers"
)

// Config is the daemon configuration.
type Config struct {
	DataDir        string `toml:"DataDir"`
	MetricsAddress string `toml:"MetricsAddress"`
	LogLevel       string `toml:"LogLevel"`
	LogFormat      string `toml:"LogFormat"`

	Draws DrawsConfig `toml:"draws"`
	Pool  PoolConfig  `toml:"pool"`
}

// DrawsConfig fixes the draw clock. An empty Genesis falls back to the
// built-in genesis instant.
type DrawsConfig struct {
	Genesis       string `toml:"Genesis"`
	PeriodSeconds uint64 `toml:"PeriodSeconds"`
}

// PoolConfig fixes the share table the pool opens with.
type PoolConfig struct {
	NumberOfTiers    uint8   `toml:"NumberOfTiers"`
	TierShares       uint32  `toml:"TierShares"`
	CanaryShares     uint32  `toml:"CanaryShares"`
	ReserveShares    uint32  `toml:"ReserveShares"`
	GrandPrizePeriod uint32  `toml:"GrandPrizePeriod"`
	UtilizationRate  float64 `toml:"UtilizationRate"`
}

// Default returns the configuration written when no file exists yet.
func Default() *Config {
	return &Config{
		DataDir:        "./tombola-data",
		MetricsAddress: ":9090",
		LogLevel:       "info",
		LogFormat:      "console",
		Draws: DrawsConfig{
			Genesis:       drawtime.Genesis.Format(time.RFC3339),
			PeriodSeconds: uint64(drawtime.DefaultDrawPeriod / time.Second),
		},
		Pool: PoolConfig{
			NumberOfTiers:    tiers.MinTiers,
			TierShares:       100,
			CanaryShares:     100,
			ReserveShares:    10,
			GrandPrizePeriod: 365,
			UtilizationRate:  1.0,
		},
	}
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills fields the file left unset. ReserveShares is exempt:
// zero is a valid weight that sends nothing to the reserve, not a gap.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.MetricsAddress == "" {
		cfg.MetricsAddress = def.MetricsAddress
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = def.LogFormat
	}
	if cfg.Draws.PeriodSeconds == 0 {
		cfg.Draws.PeriodSeconds = def.Draws.PeriodSeconds
	}
	if cfg.Pool.NumberOfTiers == 0 {
		cfg.Pool.NumberOfTiers = def.Pool.NumberOfTiers
	}
	if cfg.Pool.TierShares == 0 {
		cfg.Pool.TierShares = def.Pool.TierShares
	}
	if cfg.Pool.CanaryShares == 0 {
		cfg.Pool.CanaryShares = def.Pool.CanaryShares
	}
	if cfg.Pool.GrandPrizePeriod == 0 {
		cfg.Pool.GrandPrizePeriod = def.Pool.GrandPrizePeriod
	}
	if cfg.Pool.UtilizationRate == 0 {
		cfg.Pool.UtilizationRate = def.Pool.UtilizationRate
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Schedule returns the draw clock the daemon paces itself by.
func (c *Config) Schedule() (drawtime.Schedule, error) {
	genesis := drawtime.Genesis
	if c.Draws.Genesis != "" {
		parsed, err := time.Parse(time.RFC3339, c.Draws.Genesis)
		if err != nil {
			return drawtime.Schedule{}, fmt.Errorf("draws: Genesis: %w", err)
		}
		genesis = parsed
	}
	return drawtime.NewSchedule(genesis, time.Duration(c.Draws.PeriodSeconds)*time.Second)
}

// Distributor returns the share table handed to the prize pool. The
// utilization fraction becomes an 18-decimal mantissa.
func (c *Config) Distributor() tiers.Config {
	return tiers.Config{
		TierShares:       c.Pool.TierShares,
		CanaryShares:     c.Pool.CanaryShares,
		ReserveShares:    c.Pool.ReserveShares,
		GrandPrizePeriod: c.Pool.GrandPrizePeriod,
		UtilizationRate:  uint64(math.Round(c.Pool.UtilizationRate * float64(fixedpoint.Scale))),
	}
}
