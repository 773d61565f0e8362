// internal/solver/sets.go
//
// Index-set helpers shared by every tier.
// Responsibilities:
//   - Sorted-set operations over keyword indices (unique, difference, overlap).
//   - Order-independent guess keys and the set of guesses already played.
//   - finalize: turn any selection into exactly k distinct in-range indices.
//   - avoidRepeat: swap one slot when a guess was already played.
package solver

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/AsyncSite/deduction-server/internal/game"
)

// sortedUnique keeps the in-range, distinct members of xs in ascending order.
func sortedUnique(xs []int, n int) []int {
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if x >= 0 && x < n {
			out = append(out, x)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// difference returns the members of a not in b. Both must be sorted.
func difference(a, b []int) []int {
	var out []int
	for _, x := range a {
		if _, ok := slices.BinarySearch(b, x); !ok {
			out = append(out, x)
		}
	}
	return out
}

// overlap counts |a ∩ b| for sorted a and b.
func overlap(a, b []int) int {
	n, i, j := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// setKey is an order-independent identity for a guess.
func setKey(xs []int) string {
	s := slices.Clone(xs)
	slices.Sort(s)
	var b strings.Builder
	for i, x := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(x))
	}
	return b.String()
}

// pastGuesses indexes every guess already in the history.
func pastGuesses(st *game.State) map[string]bool {
	seen := make(map[string]bool, len(st.PreviousGuesses))
	for _, g := range st.PreviousGuesses {
		seen[setKey(sortedUnique(g.Guess, st.Universe()))] = true
	}
	return seen
}

// finalize turns any partial or over-full selection into exactly k distinct
// in-range indices, sorted. Slots are filled from unknown indices at random,
// then from known-correct ones, and only as a last resort from anything not
// yet chosen; that last step means the caller broke its own contract.
func finalize(guess []int, st *game.State, know *Knowledge, rng *rand.Rand) []int {
	k, n := st.AnswerCount, st.Universe()
	out := make([]int, 0, k)
	taken := make([]bool, n)
	for _, i := range guess {
		if len(out) == k {
			break
		}
		if i >= 0 && i < n && !taken[i] {
			taken[i] = true
			out = append(out, i)
		}
	}

	fill := func(pool []int) {
		pool = slices.Clone(pool)
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		for _, i := range pool {
			if len(out) == k {
				return
			}
			if !taken[i] {
				taken[i] = true
				out = append(out, i)
			}
		}
	}
	if len(out) < k {
		fill(know.Unknown)
	}
	if len(out) < k {
		fill(know.DefiniteCorrect)
	}
	if len(out) < k {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		fill(all)
	}
	slices.Sort(out)
	return out
}

// avoidRepeat swaps one slot when guess was already played by somebody.
// Slots are released lowest-ranked first; replacements are taken from
// ranking (best first). locked slots are never released. If no swap yields a
// new combination the guess is returned unchanged.
func avoidRepeat(guess []int, ranking []int, locked func(int) bool, st *game.State) []int {
	seen := pastGuesses(st)
	if !seen[setKey(guess)] {
		return guess
	}
	rank := make(map[int]int, len(ranking))
	for r, i := range ranking {
		rank[i] = r
	}
	release := slices.Clone(guess)
	// Unranked members sort last, i.e. they are released first.
	slices.SortStableFunc(release, func(a, b int) int {
		ra, oka := rank[a]
		rb, okb := rank[b]
		switch {
		case oka && okb:
			return rb - ra
		case oka:
			return 1
		case okb:
			return -1
		}
		return 0
	})
	for _, out := range release {
		if locked(out) {
			continue
		}
		for _, in := range ranking {
			if slices.Contains(guess, in) {
				continue
			}
			next := make([]int, 0, len(guess))
			for _, g := range guess {
				if g != out {
					next = append(next, g)
				}
			}
			next = append(next, in)
			if !seen[setKey(next)] {
				slices.Sort(next)
				return next
			}
		}
	}
	return guess
}
