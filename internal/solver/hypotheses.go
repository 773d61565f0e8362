// internal/solver/hypotheses.go
//
// Hypothesis enumerator: bounded backtracking over the unknown indices for
// every size-k answer set consistent with the whole history.
//
// A candidate is consistent iff for every guess g: |candidate ∩ g| == g.count.
// The search always includes the definite-correct indices and never the
// definite-wrong ones. It stops as soon as Limits.Cap hypotheses are found or
// Limits.MaxNodes search nodes were visited; either way the result is marked
// Capped and must not be treated as exhaustive.
package solver

import (
	"slices"

	"github.com/AsyncSite/deduction-server/internal/game"
)

const (
	DefaultHypothesisCap = 100
	DefaultMaxNodes      = 200_000
)

// Limits bounds one enumeration. Cap trades completeness for latency: a
// non-positive Cap returns nothing. MaxNodes <= 0 leaves the node count
// unbounded, so only Cap limits the search.
type Limits struct {
	Cap      int `yaml:"hypothesis_cap" json:"hypothesisCap"`
	MaxNodes int `yaml:"max_nodes" json:"maxNodes"`
}

// DefaultLimits returns the limits used by the built-in strategies.
func DefaultLimits() Limits {
	return Limits{Cap: DefaultHypothesisCap, MaxNodes: DefaultMaxNodes}
}

// Hypotheses is the output of Enumerate. Sets are sorted index lists.
type Hypotheses struct {
	Sets   [][]int
	Capped bool
	Nodes  int
}

// Unique reports whether exactly one hypothesis survived an exhaustive search.
func (h Hypotheses) Unique() bool { return len(h.Sets) == 1 && !h.Capped }

// Enumerate lists hypotheses consistent with st's history under know.
func Enumerate(st *game.State, know *Knowledge, lim Limits) Hypotheses {
	if lim.Cap <= 0 {
		return Hypotheses{Capped: true}
	}
	records := cleanHistory(st)
	need := know.Remaining()
	if need < 0 {
		return Hypotheses{}
	}

	// Contribution of the fixed correct indices to each guess.
	cur := make([]int, len(records))
	for g, r := range records {
		cur[g] = overlap(know.DefiniteCorrect, r.guess)
		if cur[g] > r.count {
			return Hypotheses{}
		}
	}
	if need == 0 {
		for g, r := range records {
			if cur[g] != r.count {
				return Hypotheses{}
			}
		}
		return Hypotheses{Sets: [][]int{slices.Clone(know.DefiniteCorrect)}, Nodes: 1}
	}

	cands := know.Unknown
	if len(cands) < need {
		return Hypotheses{}
	}
	e := &enumerator{
		records: records,
		cands:   cands,
		need:    need,
		cur:     cur,
		fixed:   know.DefiniteCorrect,
		lim:     lim,
		chosen:  make([]int, 0, need),
	}
	e.index()
	if e.feasible(0, need) {
		e.search(0)
	}
	return Hypotheses{Sets: e.found, Capped: e.stopped, Nodes: e.nodes}
}

type enumerator struct {
	records []record
	cands   []int
	need    int
	cur     []int
	fixed   []int
	lim     Limits

	// member[g][p] reports whether cands[p] is in records[g];
	// suffix[g][p] counts members of records[g] among cands[p:].
	member [][]bool
	suffix [][]int

	chosen  []int
	found   [][]int
	nodes   int
	stopped bool
}

func (e *enumerator) index() {
	e.member = make([][]bool, len(e.records))
	e.suffix = make([][]int, len(e.records))
	for g, r := range e.records {
		m := make([]bool, len(e.cands))
		s := make([]int, len(e.cands)+1)
		for p := len(e.cands) - 1; p >= 0; p-- {
			_, m[p] = slices.BinarySearch(r.guess, e.cands[p])
			s[p] = s[p+1]
			if m[p] {
				s[p]++
			}
		}
		e.member[g], e.suffix[g] = m, s
	}
}

// feasible reports whether every guess can still reach its count using at
// most slots more picks from cands[pos:].
func (e *enumerator) feasible(pos, slots int) bool {
	for g, r := range e.records {
		if e.cur[g]+min(slots, e.suffix[g][pos]) < r.count {
			return false
		}
	}
	return true
}

func (e *enumerator) search(pos int) {
	e.nodes++
	if e.lim.MaxNodes > 0 && e.nodes > e.lim.MaxNodes {
		e.stopped = true
		return
	}
	slots := e.need - len(e.chosen)
	if slots == 0 {
		for g, r := range e.records {
			if e.cur[g] != r.count {
				return
			}
		}
		h := make([]int, 0, len(e.fixed)+len(e.chosen))
		h = append(h, e.fixed...)
		h = append(h, e.chosen...)
		slices.Sort(h)
		e.found = append(e.found, h)
		if len(e.found) >= e.lim.Cap {
			e.stopped = true
		}
		return
	}

	for p := pos; p <= len(e.cands)-slots; p++ {
		// Suffix counts only shrink, so once skipping up to p is infeasible
		// every later p is too.
		if !e.feasible(p, slots) {
			return
		}
		ok := true
		for g, r := range e.records {
			if e.member[g][p] {
				e.cur[g]++
				if e.cur[g] > r.count {
					ok = false
				}
			}
		}
		if ok && e.feasible(p+1, slots-1) {
			e.chosen = append(e.chosen, e.cands[p])
			e.search(p + 1)
			e.chosen = e.chosen[:len(e.chosen)-1]
		}
		for g := range e.records {
			if e.member[g][p] {
				e.cur[g]--
			}
		}
		if e.stopped {
			return
		}
	}
}

// consistent reports whether h matches every count in the history.
func consistent(h []int, st *game.State) bool {
	for _, r := range cleanHistory(st) {
		if overlap(h, r.guess) != r.count {
			return false
		}
	}
	return true
}
