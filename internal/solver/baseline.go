// internal/solver/baseline.go
//
// Baseline tiers below the master:
//   - random:    seeds only, recalls ⌊0.7k⌋ revealed answers, fills at random
//     and slips one slot one time in ten.
//   - frequency: one rule pass, scores keywords by hit share, zero-count
//     penalty and pairwise count differences.
//   - logical:   one rule pass, ranks unknowns by their mean hit ratio.
//
// Every tier avoids replaying a guess already in the history.
package solver

import (
	"math/rand/v2"
	"slices"

	"github.com/AsyncSite/deduction-server/internal/game"
)

const (
	// The random tier plays at most ⌊randomRecall·k⌋ of the revealed answers.
	randomRecall = 0.7
	// Chance that the random tier swaps one pick for another unknown.
	randomSlip = 0.1

	zeroCountPenalty = 0.5
	differentialGain = 0.3
)

// randomTier picks uniformly among keywords that are not excluded by the
// seeds. It forgets some revealed answers and occasionally slips.
type randomTier struct {
	rng *rand.Rand
}

func (t *randomTier) Name() string { return TierRandom.String() }

func (t *randomTier) SelectGuess(st *game.State) ([]int, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	know := Derive(st, 0)
	k := st.AnswerCount

	known := slices.Clone(know.DefiniteCorrect)
	t.rng.Shuffle(len(known), func(i, j int) { known[i], known[j] = known[j], known[i] })
	recall := min(int(float64(k)*randomRecall), len(known))
	guess := slices.Clone(known[:recall])

	// Forgotten answers stay drawable like any other non-wrong keyword.
	pool := append(slices.Clone(know.Unknown), known[recall:]...)
	t.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for _, i := range pool {
		if len(guess) == k {
			break
		}
		guess = append(guess, i)
	}

	if len(guess) > 0 && t.rng.Float64() < randomSlip {
		rest := difference(pool, sortedUnique(guess, st.Universe()))
		if len(rest) > 0 {
			guess[t.rng.IntN(len(guess))] = rest[t.rng.IntN(len(rest))]
		}
	}
	slices.Sort(guess)
	guess = avoidRepeat(guess, pool, func(int) bool { return false }, st)
	return finalize(guess, st, know, t.rng), nil
}

// frequencyTier scores each keyword from a single pass over the history:
// guesses with hits raise their members by count/len, guesses without hits
// lower them, and pairs that share keywords but differ in count push the
// keywords unique to the better guess.
type frequencyTier struct {
	rng *rand.Rand
}

func (t *frequencyTier) Name() string { return TierFrequency.String() }

func (t *frequencyTier) SelectGuess(st *game.State) ([]int, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	know := Derive(st, 1)
	score := frequencyScores(st)
	ranking := rankUnknown(know, score, t.rng)
	guess := withKnown(know, ranking)
	guess = avoidRepeat(guess, ranking, know.IsCorrect, st)
	return finalize(guess, st, know, t.rng), nil
}

func frequencyScores(st *game.State) []float64 {
	score := make([]float64, st.Universe())
	records := cleanHistory(st)
	for _, r := range records {
		if len(r.guess) == 0 {
			continue
		}
		if r.count > 0 {
			w := float64(r.count) / float64(len(r.guess))
			for _, i := range r.guess {
				score[i] += w
			}
			continue
		}
		for _, i := range r.guess {
			score[i] -= zeroCountPenalty
		}
	}
	for i := 0; i < len(records)-1; i++ {
		for j := i + 1; j < len(records); j++ {
			a, b := records[i], records[j]
			if a.count == b.count || overlap(a.guess, b.guess) == 0 {
				continue
			}
			if a.count < b.count {
				a, b = b, a
			}
			gain := float64(a.count-b.count) * differentialGain
			for _, x := range difference(a.guess, b.guess) {
				score[x] += gain
			}
		}
	}
	return score
}

// logicalTier runs one pass of the inference rules and ranks the remaining
// unknowns by the unweighted average hit ratio of the guesses they were in.
type logicalTier struct {
	rng *rand.Rand
}

func (t *logicalTier) Name() string { return TierLogical.String() }

func (t *logicalTier) SelectGuess(st *game.State) ([]int, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	know := Derive(st, 1)
	ranking := rankUnknown(know, meanProbabilities(st, know), t.rng)
	guess := withKnown(know, ranking)
	guess = avoidRepeat(guess, ranking, know.IsCorrect, st)
	return finalize(guess, st, know, t.rng), nil
}
