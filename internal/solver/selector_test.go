package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsyncSite/deduction-server/internal/game"
)

// solvedState has both answers revealed and a far-behind opponent.
func solvedState() *game.State {
	st := newState(8, 2)
	st.PlayerID = "me"
	st.RevealedAnswers = []int{0, 1}
	st.PreviousGuesses = append(st.PreviousGuesses, rec("bob", 0, 3, 4))
	st.CurrentTurn = 2
	return st
}

func TestSelectPhase_Solved(t *testing.T) {
	pol := DefaultPolicy()
	phase := func(st *game.State) Phase {
		know := Derive(st, FixedPoint)
		return SelectPhase(st, know, Enumerate(st, know, DefaultLimits()), pol)
	}

	st := solvedState()
	assert.Equal(t, PhaseStrategicHide, phase(st))

	late := solvedState()
	late.CurrentTurn = pol.RevealAfterTurn + 1
	assert.Equal(t, PhaseWinNow, phase(late))

	threat := solvedState()
	threat.PreviousGuesses = append(threat.PreviousGuesses, rec("bob", 1, 0, 5))
	assert.Equal(t, PhaseWinNow, phase(threat))

	lastRound := solvedState()
	lastRound.MaxTurns = 3
	assert.Equal(t, PhaseWinNow, phase(lastRound))

	solo := solvedState()
	solo.PreviousGuesses = nil
	assert.Equal(t, PhaseWinNow, phase(solo))

	mine := solvedState()
	mine.PreviousGuesses = []game.GuessRecord{rec("me", 0, 3, 4)}
	assert.Equal(t, PhaseWinNow, phase(mine))
}

func TestSelectPhase_NothingLeftToHide(t *testing.T) {
	st := newState(2, 2)
	st.PlayerID = "me"
	st.RevealedAnswers = []int{0, 1}
	st.PreviousGuesses = append(st.PreviousGuesses, rec("bob", 0, 5))
	know := Derive(st, FixedPoint)
	require.Empty(t, know.Unknown)

	assert.Equal(t, PhaseWinNow, SelectPhase(st, know, Hypotheses{}, DefaultPolicy()))
}

func TestSelectPhase_ByTurn(t *testing.T) {
	st := newState(8, 2)
	know := Derive(st, FixedPoint)
	pol := DefaultPolicy()
	many := Hypotheses{Sets: [][]int{{0, 1}, {0, 2}, {1, 2}}}

	for turn, want := range map[int]Phase{
		1:  PhaseExplore,
		3:  PhaseExplore,
		4:  PhaseBalanced,
		7:  PhaseBalanced,
		8:  PhaseAggressive,
		20: PhaseAggressive,
	} {
		st.CurrentTurn = turn
		assert.Equal(t, want, SelectPhase(st, know, many, pol), "turn %d", turn)
	}
}

func TestSelectPhase_Hypotheses(t *testing.T) {
	st := newState(8, 2)
	know := Derive(st, FixedPoint)
	pol := DefaultPolicy()

	assert.Equal(t, PhaseUniqueSolution, SelectPhase(st, know, Hypotheses{Sets: [][]int{{2, 5}}}, pol))
	assert.Equal(t, PhaseExplore, SelectPhase(st, know, Hypotheses{Sets: [][]int{{2, 5}}, Capped: true}, pol))
	assert.Equal(t, PhaseFallback, SelectPhase(st, know, Hypotheses{}, pol))
}

func TestPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	bad := []Policy{
		{ExploreUntil: -1, BalancedUntil: 2},
		{ExploreUntil: 5, BalancedUntil: 2},
		{ExploreUntil: 1, BalancedUntil: 2, RevealAfterTurn: -1},
		{ExploreUntil: 1, BalancedUntil: 2, CloseMargin: -1},
		{ExploreUntil: 1, BalancedUntil: 2, BalancedProbabilityWeight: 1.5},
	}
	for _, p := range bad {
		assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy, "%+v", p)
	}
}
