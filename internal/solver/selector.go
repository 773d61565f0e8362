// internal/solver/selector.go
//
// Phase selector for the master tier. Evaluated in priority order each turn:
//
//	WinNow          all answers known and hiding no longer pays off
//	StrategicHide   all answers known, opponents still far away
//	UniqueSolution  exactly one hypothesis after an exhaustive search
//	Fallback        no hypothesis at all (contradiction or exhausted budget)
//	Explore         early turns
//	Balanced        middle turns
//	Aggressive      late turns
//
// The selector is a pure function of its inputs; it holds no state between turns.
package solver

import (
	"github.com/AsyncSite/deduction-server/internal/game"
)

// Phase names the guess-construction algorithm chosen for a turn.
type Phase string

const (
	PhaseWinNow         Phase = "win_now"
	PhaseStrategicHide  Phase = "strategic_hide"
	PhaseUniqueSolution Phase = "unique_solution"
	PhaseFallback       Phase = "fallback"
	PhaseExplore        Phase = "explore"
	PhaseBalanced       Phase = "balanced"
	PhaseAggressive     Phase = "aggressive"
)

// SelectPhase decides which algorithm the master tier runs this turn.
func SelectPhase(st *game.State, know *Knowledge, hyps Hypotheses, pol Policy) Phase {
	if len(know.DefiniteCorrect) == st.AnswerCount {
		if shouldReveal(st, pol) || len(know.Unknown) == 0 {
			return PhaseWinNow
		}
		return PhaseStrategicHide
	}
	if hyps.Unique() {
		return PhaseUniqueSolution
	}
	if len(hyps.Sets) == 0 {
		return PhaseFallback
	}
	switch {
	case st.CurrentTurn <= pol.ExploreUntil:
		return PhaseExplore
	case st.CurrentTurn <= pol.BalancedUntil:
		return PhaseBalanced
	default:
		return PhaseAggressive
	}
}

// shouldReveal reports whether a solved answer must be submitted now: the
// turn ceiling passed, the match is about to run out of turns, an opponent is
// close to winning, or there is nobody to hide from.
func shouldReveal(st *game.State, pol Policy) bool {
	if st.AnswerCount == 0 || st.CurrentTurn > pol.RevealAfterTurn {
		return true
	}
	latest := latestOpponentCounts(st)
	if len(latest) == 0 {
		return true
	}
	// Fewer turns left than one full round: this may be our last chance.
	if st.MaxTurns > 0 && st.MaxTurns-st.CurrentTurn < len(latest)+1 {
		return true
	}
	for _, c := range latest {
		if c >= st.AnswerCount-pol.CloseMargin {
			return true
		}
	}
	return false
}

// latestOpponentCounts maps every opponent to the count of their most recent
// guess. Without a PlayerID every actor counts as an opponent.
func latestOpponentCounts(st *game.State) map[string]int {
	out := make(map[string]int)
	for _, g := range st.PreviousGuesses {
		if st.PlayerID != "" && g.ActorID == st.PlayerID {
			continue
		}
		out[g.ActorID] = g.CorrectCount
	}
	return out
}
