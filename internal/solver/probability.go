// internal/solver/probability.go
//
// Per-index answer estimates from the history.
// Responsibilities:
//   - Probabilities: weighted residual estimate used by the master tier.
//   - meanProbabilities: unweighted variant used by the logical tier.
//   - rankUnknown: order unknown indices by score with random tie breaks.
package solver

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/AsyncSite/deduction-server/internal/game"
)

// NeutralPrior is the estimate for an unknown index no guess ever contained.
const NeutralPrior = 0.5

// Probabilities estimates, per index, the chance that it is an answer.
// Correct indices get 1, wrong ones 0. For an unknown index i the estimate is
// the weighted mean over every guess containing i of
//
//	(count − knownCorrectInGuess) / unknownInGuess
//
// weighted by 1/unknownInGuess, so guesses with fewer unknowns count more.
func Probabilities(st *game.State, know *Knowledge) []float64 {
	n := know.Universe()
	num := make([]float64, n)
	den := make([]float64, n)
	for _, r := range cleanHistory(st) {
		knownCorrect, unknown := know.guessStats(r.guess)
		if unknown == 0 {
			continue
		}
		u := float64(unknown)
		term := clamp01(float64(r.count-knownCorrect) / u)
		w := 1 / u
		for _, i := range r.guess {
			if know.IsUnknown(i) {
				num[i] += w * term
				den[i] += w
			}
		}
	}

	p := make([]float64, n)
	for i := range p {
		switch {
		case know.IsCorrect(i):
			p[i] = 1
		case know.IsWrong(i):
			p[i] = 0
		case den[i] > 0:
			p[i] = num[i] / den[i]
		default:
			p[i] = NeutralPrior
		}
	}
	return p
}

// meanProbabilities is the unweighted variant used by the logical tier: the
// plain average of the per-guess ratios, NeutralPrior when never guessed.
func meanProbabilities(st *game.State, know *Knowledge) []float64 {
	n := know.Universe()
	sum := make([]float64, n)
	cnt := make([]int, n)
	for _, r := range cleanHistory(st) {
		knownCorrect, unknown := know.guessStats(r.guess)
		if unknown == 0 {
			continue
		}
		ratio := float64(r.count-knownCorrect) / float64(unknown)
		for _, i := range r.guess {
			if know.IsUnknown(i) {
				sum[i] += ratio
				cnt[i]++
			}
		}
	}
	p := make([]float64, n)
	for i := range p {
		p[i] = NeutralPrior
		if cnt[i] > 0 {
			p[i] = sum[i] / float64(cnt[i])
		}
	}
	return p
}

// rankUnknown orders the unknown indices by score, best first. Equal scores
// are ordered randomly when rng is non-nil, by index otherwise.
func rankUnknown(know *Knowledge, score []float64, rng *rand.Rand) []int {
	out := slices.Clone(know.Unknown)
	if rng != nil {
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	slices.SortStableFunc(out, func(a, b int) int { return cmp.Compare(score[b], score[a]) })
	return out
}

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}
