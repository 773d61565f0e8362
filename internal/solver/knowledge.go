// internal/solver/knowledge.go
//
// Knowledge base: classifies every keyword index as definite-correct,
// definite-wrong or unknown from the public history alone.
//
// Seeds:
//   - revealed answers            → correct
//   - own hints, others' revealed
//     hints, revealed non-answers  → wrong
//
// Rules (applied in this order each pass):
//   R0  correctCount == 0                  → every guessed index is wrong
//   R1  correctCount == k                  → every guessed index is correct
//   R2  two guesses differ by one index each way with different counts
//                                          → unique index of the higher guess is correct,
//                                            unique index of the lower guess is wrong
//   R3  knownCorrect + unknown == count    → unknowns of that guess are correct
//       knownCorrect == count              → unknowns of that guess are wrong
//
// Correctness evidence always wins: an index proven correct is taken out of
// the wrong set, and a wrong mark never overwrites a correct one.
package solver

import (
	"slices"

	"github.com/AsyncSite/deduction-server/internal/game"
)

// Status is the classification of a single keyword index.
type Status uint8

const (
	Unknown Status = iota
	Correct
	Wrong
)

func (s Status) String() string {
	switch s {
	case Correct:
		return "correct"
	case Wrong:
		return "wrong"
	default:
		return "unknown"
	}
}

// FixedPoint asks Derive to apply the rules until a pass changes nothing.
const FixedPoint = -1

// Knowledge is the derived classification for one state. The three index
// lists are sorted, disjoint and together cover the universe.
type Knowledge struct {
	AnswerCount     int
	DefiniteCorrect []int
	DefiniteWrong   []int
	Unknown         []int

	status []Status
}

// Status returns the classification of i. Out-of-range indices are Wrong so
// that nothing ever selects them.
func (k *Knowledge) Status(i int) Status {
	if i < 0 || i >= len(k.status) {
		return Wrong
	}
	return k.status[i]
}

func (k *Knowledge) IsCorrect(i int) bool { return k.Status(i) == Correct }
func (k *Knowledge) IsWrong(i int) bool   { return k.Status(i) == Wrong }
func (k *Knowledge) IsUnknown(i int) bool { return k.Status(i) == Unknown }

// Universe is the number of classified indices.
func (k *Knowledge) Universe() int { return len(k.status) }

// Remaining is how many answers are still unidentified. Negative when the
// evidence claims more correct indices than there are answers.
func (k *Knowledge) Remaining() int { return k.AnswerCount - len(k.DefiniteCorrect) }

// Derive computes the knowledge base for st. passes bounds how many times the
// rule set is applied: 0 uses the seeds only, FixedPoint runs to convergence.
// Derive is a pure function of st.
func Derive(st *game.State, passes int) *Knowledge {
	d := deriver{
		k:       st.AnswerCount,
		status:  make([]Status, st.Universe()),
		records: cleanHistory(st),
	}
	d.seed(st)
	d.pairs = differentialPairs(d.records)

	for pass := 0; passes == FixedPoint || pass < passes; pass++ {
		if !d.pass() {
			break
		}
	}
	return d.knowledge()
}

// record is a guess restricted to valid, distinct indices.
type record struct {
	actor string
	guess []int
	count int
}

// cleanHistory drops out-of-range and duplicate indices from every guess.
func cleanHistory(st *game.State) []record {
	out := make([]record, 0, len(st.PreviousGuesses))
	for _, g := range st.PreviousGuesses {
		out = append(out, record{
			actor: g.ActorID,
			guess: sortedUnique(g.Guess, st.Universe()),
			count: g.CorrectCount,
		})
	}
	return out
}

// differential is an R2 conclusion: win is correct, lose is wrong.
type differential struct{ win, lose int }

// differentialPairs only depends on the history, so it is computed once.
func differentialPairs(records []record) []differential {
	var out []differential
	for i := 0; i < len(records)-1; i++ {
		for j := i + 1; j < len(records); j++ {
			a, b := records[i], records[j]
			if a.count == b.count {
				continue
			}
			onlyA := difference(a.guess, b.guess)
			onlyB := difference(b.guess, a.guess)
			if len(onlyA) != 1 || len(onlyB) != 1 {
				continue
			}
			if a.count > b.count {
				out = append(out, differential{win: onlyA[0], lose: onlyB[0]})
			} else {
				out = append(out, differential{win: onlyB[0], lose: onlyA[0]})
			}
		}
	}
	return out
}

type deriver struct {
	k       int
	status  []Status
	records []record
	pairs   []differential
	changed bool
}

func (d *deriver) seed(st *game.State) {
	for _, list := range [][]int{st.MyHints, st.OtherHints, st.RevealedWrongAnswers} {
		for _, i := range list {
			d.markWrong(i)
		}
	}
	for _, i := range st.RevealedAnswers {
		d.markCorrect(i)
	}
}

func (d *deriver) markCorrect(i int) {
	if i < 0 || i >= len(d.status) || d.status[i] == Correct {
		return
	}
	d.status[i] = Correct
	d.changed = true
}

func (d *deriver) markWrong(i int) {
	if i < 0 || i >= len(d.status) || d.status[i] != Unknown {
		return
	}
	d.status[i] = Wrong
	d.changed = true
}

// pass applies R0..R3 once and reports whether anything changed.
func (d *deriver) pass() bool {
	d.changed = false

	for _, r := range d.records {
		if r.count == 0 {
			for _, i := range r.guess {
				d.markWrong(i)
			}
		}
	}
	for _, r := range d.records {
		if d.k > 0 && r.count == d.k {
			for _, i := range r.guess {
				d.markCorrect(i)
			}
		}
	}
	for _, p := range d.pairs {
		d.markCorrect(p.win)
		d.markWrong(p.lose)
	}
	for _, r := range d.records {
		knownCorrect, unknown := d.split(r.guess)
		if len(unknown) == 0 {
			continue
		}
		switch {
		case knownCorrect+len(unknown) == r.count:
			for _, i := range unknown {
				d.markCorrect(i)
			}
		case knownCorrect == r.count:
			for _, i := range unknown {
				d.markWrong(i)
			}
		}
	}
	return d.changed
}

func (d *deriver) split(guess []int) (knownCorrect int, unknown []int) {
	for _, i := range guess {
		switch d.status[i] {
		case Correct:
			knownCorrect++
		case Unknown:
			unknown = append(unknown, i)
		}
	}
	return knownCorrect, unknown
}

func (d *deriver) knowledge() *Knowledge {
	k := &Knowledge{
		AnswerCount:     d.k,
		DefiniteCorrect: []int{},
		DefiniteWrong:   []int{},
		Unknown:         []int{},
		status:          slices.Clone(d.status),
	}
	for i, s := range d.status {
		switch s {
		case Correct:
			k.DefiniteCorrect = append(k.DefiniteCorrect, i)
		case Wrong:
			k.DefiniteWrong = append(k.DefiniteWrong, i)
		default:
			k.Unknown = append(k.Unknown, i)
		}
	}
	return k
}

// guessStats counts the classified and unknown members of one guess.
func (k *Knowledge) guessStats(guess []int) (knownCorrect, unknown int) {
	for _, i := range guess {
		switch k.Status(i) {
		case Correct:
			knownCorrect++
		case Unknown:
			unknown++
		}
	}
	return knownCorrect, unknown
}
