// internal/solver/entropy.go
//
// Information scoring for exploration guesses.
//
// A candidate guess c partitions the hypothesis set H by |c ∩ h|. The Shannon
// entropy (bits) of that outcome distribution is the expected information the
// guess reveals; the candidate with the highest entropy splits H most evenly.
// Candidates are sampled, never enumerated over all C(N, k) guesses.
package solver

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/AsyncSite/deduction-server/internal/game"
)

const (
	DefaultMaxCandidates = 32
	sampledHypotheses    = 10
	highProbabilityPool  = 10
)

// OutcomeEntropy returns the entropy in bits of the correct-count outcome of
// guessing candidate against every hypothesis in hyps. Hypotheses must be
// sorted, as Enumerate returns them.
func OutcomeEntropy(candidate []int, hyps [][]int) float64 {
	if len(hyps) == 0 {
		return 0
	}
	c := slices.Clone(candidate)
	slices.Sort(c)
	counts := make([]float64, len(c)+1)
	for _, h := range hyps {
		counts[overlap(c, h)]++
	}
	total := float64(len(hyps))
	for i := range counts {
		counts[i] /= total
	}
	return stat.Entropy(counts) / math.Ln2
}

// entropyCandidates builds at most limit candidate guesses: a random sample of
// the hypotheses plus definite-correct indices topped up with shuffled
// high-probability unknowns.
func entropyCandidates(st *game.State, know *Knowledge, probs []float64, hyps [][]int, limit int, rng *rand.Rand) [][]int {
	k := st.AnswerCount
	seen := pastGuesses(st)
	var out [][]int
	add := func(c []int) {
		if len(out) >= limit || len(c) != k {
			return
		}
		key := setKey(c)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, c)
	}

	for _, p := range rng.Perm(len(hyps))[:min(sampledHypotheses, len(hyps))] {
		add(slices.Clone(hyps[p]))
	}

	base := know.DefiniteCorrect
	if len(base) > k {
		base = base[:k]
	}
	ranked := rankUnknown(know, probs, rng)
	high := ranked[:min(highProbabilityPool, len(ranked))]
	for attempt := 0; attempt < limit*2 && len(out) < limit; attempt++ {
		pool := slices.Clone(high)
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		c := slices.Clone(base)
		for _, i := range pool {
			if len(c) == k {
				break
			}
			c = append(c, i)
		}
		if len(c) < k {
			// Fewer high-probability unknowns than open slots: widen to all of them.
			rest := slices.Clone(ranked[len(high):])
			rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
			for _, i := range rest {
				if len(c) == k {
					break
				}
				c = append(c, i)
			}
		}
		slices.Sort(c)
		add(c)
	}
	return out
}

// maximizeInformation picks the candidate with the highest outcome entropy.
// Ties keep the earliest candidate. Returns nil when there is no candidate.
func maximizeInformation(cands [][]int, hyps [][]int) []int {
	var best []int
	bestScore := -1.0
	for _, c := range cands {
		if s := OutcomeEntropy(c, hyps); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}
