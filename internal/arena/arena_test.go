package arena

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AsyncSite/deduction-server/internal/game"
	"github.com/AsyncSite/deduction-server/internal/solver"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testRand(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }

func pool(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("kw%02d", i)
	}
	return out
}

// fixed always answers with the same guess.
type fixed []int

func (f fixed) Name() string                           { return "fixed" }
func (f fixed) SelectGuess(*game.State) ([]int, error) { return []int(f), nil }

func TestStrategies(t *testing.T) {
	players := []game.Player{
		{ID: "me", Kind: game.PlayerHuman},
		{ID: "a", Kind: game.PlayerAI, Tier: "hard"},
		{ID: "b", Kind: game.PlayerAI, Tier: "challenger"},
	}
	s, err := Strategies(players, solver.Options{}, testRand(1))
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, "logical", s["a"].Name())
	assert.Equal(t, "master", s["b"].Name())

	players = append(players, game.Player{ID: "c", Kind: game.PlayerAI, Tier: "grandmaster"})
	_, err = Strategies(players, solver.Options{}, testRand(1))
	assert.ErrorIs(t, err, solver.ErrUnknownTier)
}

func TestAdvance_StopsAtHuman(t *testing.T) {
	players := []game.Player{
		{ID: "bot", Kind: game.PlayerAI, Tier: "master"},
		{ID: "me", Kind: game.PlayerHuman},
	}
	m := game.NewMatchWithAnswer(pool(20), []int{1, 4, 7, 13}, 0, players)
	rng := testRand(2)
	s, err := Strategies(players, solver.Options{}, rng)
	require.NoError(t, err)

	recs, err := Advance(context.Background(), m, s, rng)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "bot", recs[0].ActorID)
	cur, ok := m.CurrentPlayer()
	require.True(t, ok)
	assert.Equal(t, "me", cur.ID)

	// Nothing to do while a human is up.
	recs, err = Advance(context.Background(), m, s, rng)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAdvance_Errors(t *testing.T) {
	players := []game.Player{{ID: "bot", Kind: game.PlayerAI, Tier: "master"}}
	m := game.NewMatchWithAnswer(pool(6), []int{0, 1}, 0, players)

	_, err := Advance(context.Background(), m, map[string]solver.Strategy{}, testRand(3))
	assert.ErrorIs(t, err, ErrNoStrategy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recs, err := Advance(ctx, m, map[string]solver.Strategy{"bot": fixed{2, 3}}, testRand(3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, recs)
	assert.Empty(t, m.History)
}

func TestAdvance_MalformedGuessReplaced(t *testing.T) {
	players := []game.Player{
		{ID: "bot", Kind: game.PlayerAI},
		{ID: "me", Kind: game.PlayerHuman},
	}
	m := game.NewMatchWithAnswer(pool(8), []int{0, 1, 2}, 0, players)
	recs, err := Advance(context.Background(), m, map[string]solver.Strategy{"bot": fixed{5, 5, 99}}, testRand(4))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	_, err = game.NormalizeGuess(recs[0].Guess, 8, 3)
	assert.NoError(t, err)
}

func TestPlay(t *testing.T) {
	players := []game.Player{
		{ID: "m", Kind: game.PlayerAI, Tier: "master"},
		{ID: "r", Kind: game.PlayerAI, Tier: "random"},
	}
	for seed := uint64(1); seed <= 5; seed++ {
		rng := testRand(seed)
		m, err := game.NewMatch(game.Config{AnswerCount: 3, HintCount: 2, MaxTurns: 40, Players: players}, pool(12), rng)
		require.NoError(t, err)
		s, err := Strategies(players, solver.Options{}, rng)
		require.NoError(t, err)

		require.NoError(t, Play(context.Background(), m, s, rng))
		assert.True(t, m.Finished, "seed %d", seed)
		for _, rec := range m.History {
			assert.Len(t, rec.Guess, 3)
		}
	}

	human := []game.Player{{ID: "me", Kind: game.PlayerHuman}}
	m := game.NewMatchWithAnswer(pool(6), []int{0, 1}, 0, human)
	assert.ErrorIs(t, Play(context.Background(), m, nil, testRand(1)), game.ErrInvalidConfig)
}

func benchConfig(parallel int) BenchmarkConfig {
	return BenchmarkConfig{
		Match:    game.Config{PoolSize: 12, AnswerCount: 3, HintCount: 2, MaxTurns: 30},
		Tiers:    []solver.Tier{solver.TierMaster, solver.TierRandom},
		Games:    8,
		Seed:     42,
		Parallel: parallel,
	}
}

func TestBenchmark(t *testing.T) {
	var finished atomic.Int32
	cfg := benchConfig(4)
	cfg.OnFinish = func(m *game.Match) {
		if m.Finished {
			finished.Add(1)
		}
	}
	sum, err := Benchmark(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(8), finished.Load())
	assert.Equal(t, 8, sum.Games)
	require.Len(t, sum.Tiers, 2)

	wins := 0
	for _, ts := range sum.Tiers {
		assert.Equal(t, 8, ts.Games)
		assert.InDelta(t, float64(ts.Wins)/8, ts.WinRate, 1e-9)
		if ts.Wins > 0 {
			assert.GreaterOrEqual(t, ts.MeanTurns, 1.0)
			assert.LessOrEqual(t, ts.MinTurns, ts.MedianTurns)
			assert.LessOrEqual(t, ts.MedianTurns, ts.MaxTurns)
		} else {
			assert.Zero(t, ts.MeanTurns)
		}
		wins += ts.Wins
	}
	assert.Equal(t, sum.Games-sum.Unwon, wins)
	assert.Equal(t, "master", sum.Tiers[0].Tier)
}

func TestBenchmark_IndependentOfParallelism(t *testing.T) {
	serial, err := Benchmark(context.Background(), benchConfig(1))
	require.NoError(t, err)
	parallel, err := Benchmark(context.Background(), benchConfig(3))
	require.NoError(t, err)

	if diff := cmp.Diff(serial, parallel, cmpopts.IgnoreFields(Summary{}, "Elapsed")); diff != "" {
		t.Errorf("summary differs (-serial +parallel):\n%s", diff)
	}
}

func TestBenchmark_Invalid(t *testing.T) {
	for _, mutate := range []func(*BenchmarkConfig){
		func(c *BenchmarkConfig) { c.Tiers = nil },
		func(c *BenchmarkConfig) { c.Games = 0 },
		func(c *BenchmarkConfig) { c.Match.PoolSize = 3 },
		func(c *BenchmarkConfig) { c.Match.AnswerCount = 0 },
	} {
		cfg := benchConfig(1)
		mutate(&cfg)
		_, err := Benchmark(context.Background(), cfg)
		assert.ErrorIs(t, err, ErrInvalidBenchmark)
	}
}
