// internal/arena/benchmark.go
//
// Offline tournaments between tiers.
// Responsibilities:
//   - Play N seeded all-AI matches in parallel (errgroup, bounded workers).
//   - Rotate seats per game; game i depends only on (Seed, i).
//   - Summarize wins and turns-to-win per tier (montanaflynn/stats).
package arena

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/AsyncSite/deduction-server/internal/game"
	"github.com/AsyncSite/deduction-server/internal/keywords"
	"github.com/AsyncSite/deduction-server/internal/solver"
)

// ErrInvalidBenchmark is returned for a benchmark that cannot be run.
var ErrInvalidBenchmark = errors.New("invalid benchmark")

// BenchmarkConfig describes a tournament: Games independent all-AI matches
// with the same tier line-up. Seats rotate every game so no tier always
// moves first.
type BenchmarkConfig struct {
	Match    game.Config // Players is ignored; seats come from Tiers
	Tiers    []solver.Tier
	Games    int
	Seed     uint64
	Parallel int // <= 0 means GOMAXPROCS
	Pool     *keywords.Pool
	Options  solver.Options

	// OnFinish, if set, is called with every finished match. It runs on
	// worker goroutines and must be safe for concurrent use.
	OnFinish func(*game.Match)
}

// TierSummary aggregates one tier's seats over the whole tournament.
// Turn statistics cover the games that tier won and count its own guesses.
type TierSummary struct {
	Tier        string  `json:"tier"`
	Games       int     `json:"games"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"winRate"`
	MeanTurns   float64 `json:"meanTurns"`
	MedianTurns float64 `json:"medianTurns"`
	StdDevTurns float64 `json:"stdDevTurns"`
	MinTurns    float64 `json:"minTurns"`
	MaxTurns    float64 `json:"maxTurns"`
}

// Summary is the result of Benchmark.
type Summary struct {
	Games   int           `json:"games"`
	Unwon   int           `json:"unwon"` // hit the turn limit
	Tiers   []TierSummary `json:"tiers"`
	Elapsed time.Duration `json:"elapsedNs"`
}

type outcome struct {
	seats  []string // tier name per seat, in turn order
	winner int      // seat index, -1 if nobody won
	turns  []int    // guesses per seat
}

// Benchmark plays cfg.Games matches in parallel and summarizes them per tier.
// Game i is fully determined by (Seed, i), so results do not depend on
// Parallel.
func Benchmark(ctx context.Context, cfg BenchmarkConfig) (Summary, error) {
	if err := cfg.validate(); err != nil {
		return Summary{}, err
	}
	if cfg.Pool == nil {
		cfg.Pool = keywords.Default()
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = runtime.GOMAXPROCS(0)
	}

	start := time.Now()
	results := make([]outcome, cfg.Games)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel)
	for i := range cfg.Games {
		g.Go(func() error {
			out, err := playOne(gctx, cfg, i)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sum := summarize(cfg.Tiers, results)
	sum.Elapsed = time.Since(start)
	log.Info().Int("games", sum.Games).Int("unwon", sum.Unwon).Dur("elapsed", sum.Elapsed).
		Int("parallel", cfg.Parallel).Msg("benchmark finished")
	return sum, nil
}

func (cfg BenchmarkConfig) validate() error {
	switch {
	case len(cfg.Tiers) == 0:
		return fmt.Errorf("%w: no tiers", ErrInvalidBenchmark)
	case cfg.Games <= 0:
		return fmt.Errorf("%w: games must be positive", ErrInvalidBenchmark)
	case cfg.Match.PoolSize <= cfg.Match.AnswerCount || cfg.Match.AnswerCount < 1:
		return fmt.Errorf("%w: pool %d with %d answers", ErrInvalidBenchmark, cfg.Match.PoolSize, cfg.Match.AnswerCount)
	}
	return nil
}

func playOne(ctx context.Context, cfg BenchmarkConfig, i int) (outcome, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))

	n := len(cfg.Tiers)
	seats := make([]string, n)
	players := make([]game.Player, n)
	for s := range n {
		t := cfg.Tiers[(s+i)%n]
		seats[s] = t.String()
		players[s] = game.Player{
			ID:   fmt.Sprintf("seat%d", s),
			Name: t.String(),
			Kind: game.PlayerAI,
			Tier: t.String(),
		}
	}

	pool, err := cfg.Pool.Draw(cfg.Match.PoolSize, rng)
	if err != nil {
		return outcome{}, err
	}
	mc := cfg.Match
	mc.Players = players
	m, err := game.NewMatch(mc, pool, rng)
	if err != nil {
		return outcome{}, err
	}
	strategies, err := Strategies(players, cfg.Options, rng)
	if err != nil {
		return outcome{}, err
	}
	if err := Play(ctx, m, strategies, rng); err != nil {
		return outcome{}, err
	}
	if cfg.OnFinish != nil {
		cfg.OnFinish(m)
	}

	out := outcome{seats: seats, winner: -1, turns: make([]int, n)}
	seat := make(map[string]int, n)
	for s, p := range players {
		seat[p.ID] = s
	}
	for _, rec := range m.History {
		out.turns[seat[rec.ActorID]]++
	}
	if s, ok := seat[m.Winner]; ok && m.Won {
		out.winner = s
	}
	return out, nil
}

func summarize(tiers []solver.Tier, results []outcome) Summary {
	type acc struct {
		games, wins int
		turns       stats.Float64Data
	}
	order := make([]string, 0, len(tiers))
	byTier := map[string]*acc{}
	for _, t := range tiers {
		if _, ok := byTier[t.String()]; !ok {
			byTier[t.String()] = &acc{}
			order = append(order, t.String())
		}
	}

	sum := Summary{Games: len(results)}
	for _, r := range results {
		if r.winner < 0 {
			sum.Unwon++
		}
		for s, name := range r.seats {
			a := byTier[name]
			a.games++
			if s == r.winner {
				a.wins++
				a.turns = append(a.turns, float64(r.turns[s]))
			}
		}
	}

	for _, name := range order {
		a := byTier[name]
		ts := TierSummary{Tier: name, Games: a.games, Wins: a.wins}
		if a.games > 0 {
			ts.WinRate = float64(a.wins) / float64(a.games)
		}
		// stats only fails on empty input, which the length check rules out.
		if len(a.turns) > 0 {
			ts.MeanTurns, _ = a.turns.Mean()
			ts.MedianTurns, _ = a.turns.Median()
			ts.StdDevTurns, _ = a.turns.StandardDeviation()
			ts.MinTurns, _ = a.turns.Min()
			ts.MaxTurns, _ = a.turns.Max()
		}
		sum.Tiers = append(sum.Tiers, ts)
	}
	return sum
}
