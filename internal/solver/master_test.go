package solver

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsyncSite/deduction-server/internal/game"
)

func TestMaster_ConcreteScenario(t *testing.T) {
	st := newState(6, 2)
	st.PreviousGuesses = append(st.PreviousGuesses,
		rec("p1", 1, 0, 1),
		rec("p2", 2, 0, 2),
	)
	st.CurrentTurn = 3

	d, err := NewMaster(Options{Rand: testRand(1)}).Decide(st)
	require.NoError(t, err)
	assert.Equal(t, PhaseWinNow, d.Phase)
	assert.Equal(t, []int{0, 2}, d.Guess)
	assert.Equal(t, 1, d.Hypotheses)
	assert.InDelta(t, 1.0, d.SearchSpace, 1e-9)
}

func TestSearchSpace(t *testing.T) {
	st := newState(10, 3)
	assert.InDelta(t, 120.0, SearchSpace(Derive(st, FixedPoint)), 1e-6)

	st.RevealedAnswers = []int{0}
	st.MyHints = []int{1, 2}
	assert.InDelta(t, 21.0, SearchSpace(Derive(st, FixedPoint)), 1e-6, "C(7, 2)")

	st.RevealedAnswers = []int{0, 3, 4, 5}
	assert.Zero(t, SearchSpace(Derive(st, FixedPoint)), "more answers than k")
}

func TestMaster_StrategicHideKeepsOneBack(t *testing.T) {
	st := solvedState()

	d, err := NewMaster(Options{Rand: testRand(2)}).Decide(st)
	require.NoError(t, err)
	require.Equal(t, PhaseStrategicHide, d.Phase)
	require.True(t, isValidGuess(d.Guess, 8, 2))
	assert.Equal(t, 1, game.Score([]int{0, 1}, d.Guess))
	for _, i := range d.Guess {
		assert.NotContains(t, []int{3, 4}, i)
	}
}

func TestMaster_FallbackOnContradiction(t *testing.T) {
	st := newState(4, 2)
	st.PreviousGuesses = append(st.PreviousGuesses,
		rec("a", 1, 0, 1),
		rec("a", 0, 2, 3),
		rec("a", 0, 0, 2),
	)

	d, err := NewMaster(Options{Rand: testRand(3)}).Decide(st)
	require.NoError(t, err)
	assert.Equal(t, PhaseFallback, d.Phase)
	assert.Zero(t, d.Hypotheses)
	assert.True(t, isValidGuess(d.Guess, 4, 2))
	assert.Contains(t, d.Guess, 1)
}

func TestMaster_InvalidState(t *testing.T) {
	m := NewMaster(Options{})

	_, err := m.Decide(newState(3, 4))
	assert.ErrorIs(t, err, game.ErrInvalidState)

	_, err = m.SelectGuess(nil)
	assert.ErrorIs(t, err, game.ErrInvalidState)
}

func TestMaster_AggressivePicksLiveHypothesis(t *testing.T) {
	rng := testRand(17)
	m := NewMaster(Options{Rand: rng})
	seen := 0
	for i := 0; i < 30; i++ {
		st, _ := randomConsistentState(rng, 10, 3, 3)
		st.CurrentTurn = 9
		d, err := m.Decide(st)
		require.NoError(t, err)
		if d.Phase != PhaseAggressive {
			continue
		}
		seen++
		assert.True(t, consistent(d.Guess, st), "aggressive guess %v contradicts history", d.Guess)
	}
	assert.Positive(t, seen)
}

func TestMaster_ExploreNeverRepeats(t *testing.T) {
	rng := testRand(19)
	m := NewMaster(Options{Rand: rng})
	for i := 0; i < 30; i++ {
		st, _ := randomConsistentState(rng, 12, 3, 2)
		st.CurrentTurn = 2
		d, err := m.Decide(st)
		require.NoError(t, err)
		if d.Phase != PhaseExplore {
			continue
		}
		for _, g := range st.PreviousGuesses {
			past := slices.Clone(g.Guess)
			slices.Sort(past)
			assert.NotEqual(t, past, d.Guess)
		}
	}
}

func TestMaster_ConvergesSolo(t *testing.T) {
	lim := Limits{Cap: 500}
	for seed := uint64(1); seed <= 6; seed++ {
		rng := testRand(seed)
		secret := rng.Perm(10)[:3]
		st := newState(10, 3)
		st.PlayerID = "me"
		m := NewMaster(Options{Rand: rng, Limits: lim})

		prev, won := math.MaxInt, false
		for turn := 1; turn <= 40 && !won; turn++ {
			st.CurrentTurn = turn
			n := len(Enumerate(st, Derive(st, FixedPoint), lim).Sets)
			require.LessOrEqual(t, n, prev, "seed %d turn %d", seed, turn)
			require.Positive(t, n)
			prev = n

			d, err := m.Decide(st)
			require.NoError(t, err)
			require.True(t, isValidGuess(d.Guess, 10, 3))
			c := game.Score(secret, d.Guess)
			st.PreviousGuesses = append(st.PreviousGuesses, rec("me", c, d.Guess...))
			won = c == 3
		}
		assert.True(t, won, "seed %d did not converge", seed)
	}
}
