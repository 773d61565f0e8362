package solver

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/AsyncSite/deduction-server/internal/game"
)

func newState(n, k int) *game.State {
	kw := make([]string, n)
	for i := range kw {
		kw[i] = fmt.Sprintf("kw%02d", i)
	}
	return &game.State{Keywords: kw, AnswerCount: k, CurrentTurn: 1}
}

func rec(actor string, count int, idx ...int) game.GuessRecord {
	return game.GuessRecord{ActorID: actor, Guess: idx, CorrectCount: count}
}

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// randomConsistentState deals a secret, gives the player hints from the
// non-answers and plays a few random guesses scored against the secret.
func randomConsistentState(rng *rand.Rand, n, k, turns int) (*game.State, []int) {
	st := newState(n, k)
	st.PlayerID = "me"
	perm := rng.Perm(n)
	secret := slices.Clone(perm[:k])
	slices.Sort(secret)
	rest := perm[k:]
	st.MyHints = slices.Clone(rest[:min(2, len(rest))])
	for t := 0; t < turns; t++ {
		g := rng.Perm(n)[:k]
		actor := "me"
		if t%2 == 1 {
			actor = "bob"
		}
		st.PreviousGuesses = append(st.PreviousGuesses, rec(actor, game.Score(secret, g), g...))
	}
	st.CurrentTurn = turns + 1
	return st, secret
}

// randomHostileState produces history that need not be consistent with any
// answer: random counts, out-of-range and duplicated indices, and hints that
// collide with revealed answers.
func randomHostileState(rng *rand.Rand, n, k, turns int) *game.State {
	st := newState(n, k)
	st.PlayerID = "me"
	for i := 0; i < rng.IntN(4); i++ {
		st.MyHints = append(st.MyHints, rng.IntN(n+2)-1)
	}
	for i := 0; i < rng.IntN(k+2); i++ {
		st.RevealedAnswers = append(st.RevealedAnswers, rng.IntN(n))
	}
	for i := 0; i < rng.IntN(3); i++ {
		st.RevealedWrongAnswers = append(st.RevealedWrongAnswers, rng.IntN(n))
	}
	for t := 0; t < turns; t++ {
		g := make([]int, 0, k+1)
		for j := 0; j < k+rng.IntN(2); j++ {
			g = append(g, rng.IntN(n+3)-1)
		}
		st.PreviousGuesses = append(st.PreviousGuesses, rec("x", rng.IntN(k+1), g...))
	}
	st.CurrentTurn = 1 + rng.IntN(15)
	return st
}

func isValidGuess(g []int, n, k int) bool {
	if len(g) != k {
		return false
	}
	seen := make(map[int]bool, k)
	for _, i := range g {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}
