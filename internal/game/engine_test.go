package game

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pool(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("kw%02d", i)
	}
	return out
}

func twoPlayers() []Player {
	return []Player{
		{ID: "me", Kind: PlayerHuman},
		{ID: "bot", Kind: PlayerAI, Tier: "master"},
	}
}

func TestNewMatch(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	cfg := Config{AnswerCount: 3, HintCount: 4, MaxTurns: 10, Players: twoPlayers()}
	m, err := NewMatch(cfg, pool(12), rng)
	require.NoError(t, err)

	assert.Len(t, m.Answer, 3)
	assert.True(t, slices.IsSorted(m.Answer))
	assert.Equal(t, 1, m.Turn)
	assert.Len(t, m.ID, 36)
	for _, p := range cfg.Players {
		h := m.Hints[p.ID]
		assert.Len(t, h, 4)
		for _, i := range h {
			assert.NotContains(t, m.Answer, i, "hint %d is an answer", i)
		}
	}

	bad := []Config{
		{AnswerCount: 0, Players: twoPlayers()},
		{AnswerCount: 12, Players: twoPlayers()},
		{AnswerCount: 3, HintCount: -1, Players: twoPlayers()},
		{AnswerCount: 3},
		{AnswerCount: 3, Players: []Player{{ID: "a"}, {ID: "a"}}},
	}
	for i, c := range bad {
		_, err := NewMatch(c, pool(12), rng)
		assert.ErrorIs(t, err, ErrInvalidConfig, "case %d", i)
	}
}

func TestApplyGuess(t *testing.T) {
	m := NewMatchWithAnswer(pool(8), []int{5, 1}, 4, twoPlayers())
	assert.Equal(t, []int{1, 5}, m.Answer)

	_, _, err := m.ApplyGuess("bot", []int{0, 1})
	assert.ErrorIs(t, err, ErrNotYourTurn)
	_, _, err = m.ApplyGuess("ghost", []int{0, 1})
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	_, _, err = m.ApplyGuess("me", []int{1, 1})
	assert.ErrorIs(t, err, ErrInvalidGuess)

	rec, status, err := m.ApplyGuess("me", []int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, GuessRecord{ActorID: "me", Guess: []int{1, 3}, CorrectCount: 1}, rec)
	assert.Equal(t, "playing", status)
	assert.Equal(t, 2, m.Turn)
	cur, ok := m.CurrentPlayer()
	require.True(t, ok)
	assert.Equal(t, "bot", cur.ID)

	_, status, err = m.ApplyGuess("bot", []int{1, 5})
	require.NoError(t, err)
	assert.Equal(t, "won", status)
	assert.Equal(t, "bot", m.Winner)
	_, ok = m.CurrentPlayer()
	assert.False(t, ok)

	_, _, err = m.ApplyGuess("me", []int{1, 5})
	assert.ErrorIs(t, err, ErrFinished)
}

func TestApplyGuess_TurnLimit(t *testing.T) {
	m := NewMatchWithAnswer(pool(6), []int{0, 1}, 2, twoPlayers())
	_, status, err := m.ApplyGuess("me", []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, "playing", status)
	_, status, err = m.ApplyGuess("bot", []int{4, 5})
	require.NoError(t, err)
	assert.Equal(t, "lost", status)
	assert.Empty(t, m.Winner)
}

func TestStateFor(t *testing.T) {
	m := NewMatchWithAnswer(pool(10), []int{0, 1, 2}, 0, twoPlayers())
	m.Hints["me"] = []int{7}
	m.Hints["bot"] = []int{8, 9}
	_, _, err := m.ApplyGuess("me", []int{0, 3, 4})
	require.NoError(t, err)

	st, err := m.StateFor("me")
	require.NoError(t, err)
	assert.Equal(t, []int{7}, st.MyHints)
	assert.Empty(t, st.OtherHints)
	assert.Equal(t, 2, st.CurrentTurn)
	require.Len(t, st.PreviousGuesses, 1)

	st.PreviousGuesses[0].Guess[0] = 99
	assert.Equal(t, 0, m.History[0].Guess[0])

	require.NoError(t, m.RevealHintsOf("bot"))
	st, err = m.StateFor("me")
	require.NoError(t, err)
	assert.Equal(t, []int{8, 9}, st.OtherHints)

	_, err = m.StateFor("ghost")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	assert.ErrorIs(t, m.RevealHintsOf("ghost"), ErrUnknownPlayer)
}

func TestReveals(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	m := NewMatchWithAnswer(pool(4), []int{0, 1}, 0, twoPlayers())

	seen := map[int]bool{}
	for range 2 {
		idx, ok := m.RevealAnswer(rng)
		require.True(t, ok)
		assert.Contains(t, m.Answer, idx)
		seen[idx] = true
	}
	assert.Len(t, seen, 2)
	_, ok := m.RevealAnswer(rng)
	assert.False(t, ok)

	for range 2 {
		idx, ok := m.RevealWrong(rng)
		require.True(t, ok)
		assert.NotContains(t, m.Answer, idx)
	}
	_, ok = m.RevealWrong(rng)
	assert.False(t, ok)
	assert.Equal(t, 4, m.HintsUsed)
}

func TestAutoGuess(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	m := NewMatchWithAnswer(pool(6), []int{0, 1, 2}, 0, twoPlayers())
	m.RevealedWrongAnswers = []int{3, 4}
	for range 20 {
		g := m.AutoGuess(rng)
		_, err := NormalizeGuess(g, 6, 3)
		require.NoError(t, err)
		assert.NotContains(t, g, 3)
		assert.NotContains(t, g, 4)
	}
}

func TestNormalizeGuess(t *testing.T) {
	g, err := NormalizeGuess([]int{4, 0, 2}, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, g)

	for _, bad := range [][]int{{0, 1}, {0, 1, 5}, {-1, 0, 1}, {2, 2, 3}} {
		_, err := NormalizeGuess(bad, 5, 3)
		assert.ErrorIs(t, err, ErrInvalidGuess, "%v", bad)
	}
	assert.Equal(t, 2, Score([]int{1, 3, 5}, []int{0, 1, 5}))
}

func TestStateValidate(t *testing.T) {
	var nilState *State
	assert.ErrorIs(t, nilState.Validate(), ErrInvalidState)
	assert.ErrorIs(t, (&State{Keywords: pool(3), AnswerCount: 4}).Validate(), ErrInvalidState)
	assert.ErrorIs(t, (&State{Keywords: pool(3), AnswerCount: -1}).Validate(), ErrInvalidState)
	assert.NoError(t, (&State{Keywords: pool(3), AnswerCount: 0}).Validate())
}
