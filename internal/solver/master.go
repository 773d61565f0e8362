// internal/solver/master.go
//
// Master tier: the full deduction engine.
//
// Per turn: history → Derive (fixed point) → Enumerate → SelectPhase →
// synthesis for that phase → finalize. Nothing is carried over between
// calls; the same State always yields the same knowledge and hypotheses.
package solver

import (
	"slices"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/AsyncSite/deduction-server/internal/game"
)

// Decision explains one master-tier guess.
type Decision struct {
	Guess       []int      `json:"guess"`
	Phase       Phase      `json:"phase"`
	Hypotheses  int        `json:"hypotheses"`
	Capped      bool       `json:"capped"`
	SearchSpace float64    `json:"searchSpace"` // answer sets the classification alone allows
	Knowledge   *Knowledge `json:"-"`
}

// Master is the strategic tier.
type Master struct {
	opts Options
}

// NewMaster builds a master strategy; zero option fields take defaults.
func NewMaster(opts Options) *Master {
	return &Master{opts: opts.withDefaults()}
}

func (m *Master) Name() string { return TierMaster.String() }

// SelectGuess implements Strategy.
func (m *Master) SelectGuess(st *game.State) ([]int, error) {
	d, err := m.Decide(st)
	if err != nil {
		return nil, err
	}
	return d.Guess, nil
}

// Decide runs one full turn of the engine and reports how the guess was made.
func (m *Master) Decide(st *game.State) (Decision, error) {
	if err := st.Validate(); err != nil {
		return Decision{}, err
	}
	know := Derive(st, FixedPoint)
	hyps := Enumerate(st, know, m.opts.Limits)
	probs := Probabilities(st, know)
	phase := SelectPhase(st, know, hyps, m.opts.Policy)

	var guess []int
	switch phase {
	case PhaseWinNow:
		guess = slices.Clone(know.DefiniteCorrect)
	case PhaseStrategicHide:
		guess = m.strategicHide(know, probs)
	case PhaseUniqueSolution:
		guess = slices.Clone(hyps.Sets[0])
	case PhaseExplore:
		cands := entropyCandidates(st, know, probs, hyps.Sets, m.opts.MaxCandidates, m.opts.Rand)
		guess = maximizeInformation(cands, hyps.Sets)
		if guess == nil {
			guess = m.balanced(st, know, probs, hyps.Sets)
		}
	case PhaseBalanced:
		guess = m.balanced(st, know, probs, hyps.Sets)
	case PhaseAggressive:
		guess = aggressive(know, probs, hyps.Sets)
	default:
		guess = m.probabilityRanked(st, know, probs)
	}
	guess = finalize(guess, st, know, m.opts.Rand)

	space := SearchSpace(know)
	ev := m.opts.Logger.Debug().
		Str("phase", string(phase)).
		Int("turn", st.CurrentTurn).
		Int("correct", len(know.DefiniteCorrect)).
		Int("wrong", len(know.DefiniteWrong)).
		Int("hypotheses", len(hyps.Sets)).
		Bool("capped", hyps.Capped).
		Int("nodes", hyps.Nodes)
	ev.Float64("space", space).Ints("guess", guess).Msg("master decision")

	return Decision{
		Guess:       guess,
		Phase:       phase,
		Hypotheses:  len(hyps.Sets),
		Capped:      hyps.Capped,
		SearchSpace: space,
		Knowledge:   know,
	}, nil
}

// SearchSpace is C(|unknown|, k − |correct|): how many answer sets the
// knowledge base alone still allows, before the history narrows them. It is
// 0 when the knowledge is contradictory.
func SearchSpace(know *Knowledge) float64 {
	need := know.Remaining()
	if need < 0 || need > len(know.Unknown) {
		return 0
	}
	return combin.GeneralizedBinomial(float64(len(know.Unknown)), float64(need))
}

// strategicHide submits all but one known answer plus the most likely
// unknown, so the reported count does not give the full answer away.
func (m *Master) strategicHide(know *Knowledge, probs []float64) []int {
	k := know.AnswerCount
	guess := slices.Clone(know.DefiniteCorrect[:k-1])
	ranked := rankUnknown(know, probs, nil)
	return append(guess, ranked[0])
}

// balanced ranks unknowns by a blend of the probability estimate and how
// often they appear in the surviving hypotheses.
func (m *Master) balanced(st *game.State, know *Knowledge, probs []float64, hyps [][]int) []int {
	freq := make([]float64, know.Universe())
	for _, h := range hyps {
		for _, i := range h {
			freq[i]++
		}
	}
	w := m.opts.Policy.BalancedProbabilityWeight
	score := make([]float64, len(probs))
	for i := range score {
		f := 0.0
		if len(hyps) > 0 {
			f = freq[i] / float64(len(hyps))
		}
		score[i] = w*probs[i] + (1-w)*f
	}
	ranking := rankUnknown(know, score, nil)
	guess := withKnown(know, ranking)
	return avoidRepeat(guess, ranking, know.IsCorrect, st)
}

// probabilityRanked is the fallback when no hypothesis survived: known
// answers first, then unknowns by probability with random tie-breaks.
func (m *Master) probabilityRanked(st *game.State, know *Knowledge, probs []float64) []int {
	ranking := rankUnknown(know, probs, m.opts.Rand)
	guess := withKnown(know, ranking)
	return avoidRepeat(guess, ranking, know.IsCorrect, st)
}

// aggressive submits the hypothesis with the highest summed weight: 1 per
// known answer, the probability estimate for everything else.
func aggressive(know *Knowledge, probs []float64, hyps [][]int) []int {
	best, bestScore := -1, -1.0
	for n, h := range hyps {
		s := 0.0
		for _, i := range h {
			if know.IsCorrect(i) {
				s++
			} else {
				s += probs[i]
			}
		}
		if s > bestScore {
			best, bestScore = n, s
		}
	}
	if best < 0 {
		return nil
	}
	return slices.Clone(hyps[best])
}

// withKnown fills a guess with known answers first, then ranking order.
func withKnown(know *Knowledge, ranking []int) []int {
	k := know.AnswerCount
	guess := make([]int, 0, k)
	guess = append(guess, know.DefiniteCorrect[:min(k, len(know.DefiniteCorrect))]...)
	for _, i := range ranking {
		if len(guess) == k {
			break
		}
		guess = append(guess, i)
	}
	slices.Sort(guess)
	return guess
}
