package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tombolalabs/tombola/config"
	"github.com/tombolalabs/tombola/internal/drawtime"
	"github.com/tombolalabs/tombola/internal/fixedpoint"
	"github.com/tombolalabs/tombola/internal/pool"
	"github.com/tombolalabs/tombola/internal/store"
	"github.com/tombolalabs/tombola/internal/tiers"
	"github.com/tombolalabs/tombola/pkg/db/pebble"
	"github.com/tombolalabs/tombola/pkg/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "./config.toml", "Path to the TOML configuration file")
	simDraws := flag.Uint("sim", 0, "Award N synthetic draws with random contributions and exit")
	simSeed := flag.Int64("seed", 1, "Random seed for simulation mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	level, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("LogLevel: %w", err)
	}
	loggerType := log.ConsoleLogger
	if cfg.LogFormat == "json" {
		loggerType = log.JSONLogger
	}
	log.Init(log.Options{LogLevel: level, Type: loggerType})

	sched, err := cfg.Schedule()
	if err != nil {
		return err
	}

	p, err := pool.New(cfg.Pool.NumberOfTiers, cfg.Distributor(), log.Pool)
	if err != nil {
		return err
	}

	kv, err := pebble.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.DataDir, err)
	}
	archive := store.NewArchive(kv)
	defer archive.Close() //nolint:errcheck

	if *simDraws > 0 {
		return simulate(p, archive, *simDraws, *simSeed)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return serve(ctx, cfg, sched, p, archive)
}

// serve paces the pool by the draw schedule: sleep to each draw's close,
// award it, archive the result. The metrics endpoint runs alongside.
func serve(ctx context.Context, cfg *config.Config, sched drawtime.Schedule, p *pool.PrizePool, archive *store.Archive) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}
	go func() {
		log.Root.Info().Str("address", cfg.MetricsAddress).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Root.Error().Err(err).Msg("metrics server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	for {
		current, err := sched.Current()
		if errors.Is(err, drawtime.ErrBeforeGenesis) {
			log.Sched.Info().Time("genesis", sched.Genesis()).Msg("waiting for genesis")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Until(sched.Genesis())):
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("current draw: %w", err)
		}

		closes, err := sched.ClosesAt(current)
		if err != nil {
			return fmt.Errorf("close of draw %d: %w", current, err)
		}
		log.Sched.Info().
			Uint32("draw", uint32(current)).
			Time("closes", closes).
			Msg("draw open")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Until(closes)):
		}

		res, err := p.AwardDraw(current, cfg.Pool.NumberOfTiers)
		if err != nil {
			// A clock step backwards can re-open an already closed draw.
			if errors.Is(err, pool.ErrDrawAlreadyAwarded) {
				log.Sched.Warn().Uint32("draw", uint32(current)).Msg("draw already awarded, skipping")
				continue
			}
			return fmt.Errorf("award draw %d: %w", current, err)
		}
		if err := archiveAward(archive, res); err != nil {
			return err
		}
	}
}

// simulate awards draws back to back with random contributions and
// consumption, steering the tier count from the canary estimate.
func simulate(p *pool.PrizePool, archive *store.Archive, draws uint, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	sources := []pool.SourceID{"vault-a", "vault-b", "vault-c"}

	next := p.NumberOfTiers()
	for draw := drawtime.DrawID(1); uint(draw) <= draws; draw++ {
		for _, source := range sources {
			if rng.Intn(4) == 0 {
				continue
			}
			amount := new(uint256.Int).Mul(
				uint256.NewInt(uint64(1+rng.Intn(500))),
				uint256.NewInt(fixedpoint.Scale),
			)
			if _, err := p.Contribute(source, amount, draw); err != nil {
				return fmt.Errorf("contribute to draw %d: %w", draw, err)
			}
		}

		res, err := p.AwardDraw(draw, next)
		if err != nil {
			return fmt.Errorf("award draw %d: %w", draw, err)
		}
		if err := archiveAward(archive, res); err != nil {
			return err
		}

		claimed := uint32(0)
		for tier := uint8(0); tier < res.NumberOfTiers; tier++ {
			if rng.Intn(3) == 0 {
				continue
			}
			remaining := p.RemainingLiquidity(tier)
			if remaining.IsZero() {
				continue
			}
			spend := new(uint256.Int).Rsh(remaining, 1)
			if spend.IsZero() {
				continue
			}
			if err := p.ConsumeLiquidity(tier, spend); err != nil {
				if errors.Is(err, tiers.ErrInsufficientLiquidity) {
					continue
				}
				return fmt.Errorf("consume from tier %d: %w", tier, err)
			}
			claimed += tiers.PrizeCount(tier) / 2
		}
		next = p.EstimateNextTierCount(claimed)
	}

	newest, err := archive.Newest()
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	log.Root.Info().
		Uint32("draws", uint32(draws)).
		Uint8("tiers", newest.NumberOfTiers).
		Str("reserve", p.Reserve().Dec()).
		Msg("simulation finished")
	return nil
}

func archiveAward(archive *store.Archive, res pool.AwardResult) error {
	rec := store.AwardRecord{
		Draw:          res.Draw,
		NumberOfTiers: res.NumberOfTiers,
		Liquidity:     *res.Liquidity,
		Reserve:       *res.Reserve,
		AwardedAt:     res.AwardedAt,
	}
	if err := archive.Put(rec); err != nil {
		return fmt.Errorf("archive draw %d: %w", res.Draw, err)
	}
	log.Store.Debug().Uint32("draw", uint32(res.Draw)).Msg("award archived")
	return nil
}
