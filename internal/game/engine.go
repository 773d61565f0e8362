// internal/game/engine.go
//
// Turn loop for a single keyword deduction match.
// Responsibilities:
//   - Deal a match: secret answer set plus private non-answer hints per player.
//   - Validate and apply guesses (turn order, size, distinct in-range indices).
//   - Score guesses (number of answers contained) and append immutable records.
//   - Global reveals (one answer / one non-answer) and time-out auto guesses.
//   - Track state transitions: playing → won/lost.
//
// Randomness comes from the caller's *rand.Rand so matches can be replayed.
package game

import (
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFinished      = errors.New("game finished")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrUnknownPlayer = errors.New("unknown player")
	ErrInvalidGuess  = errors.New("invalid guess")
	ErrInvalidConfig = errors.New("invalid match config")
)

// NewMatch deals a match over the given keyword pool.
// Config.PoolSize is ignored here; the caller already drew the pool.
func NewMatch(cfg Config, pool []string, rng *mrand.Rand) (*Match, error) {
	n := len(pool)
	switch {
	case cfg.AnswerCount < 1 || cfg.AnswerCount >= n:
		return nil, fmt.Errorf("%w: answerCount %d with pool of %d", ErrInvalidConfig, cfg.AnswerCount, n)
	case cfg.HintCount < 0:
		return nil, fmt.Errorf("%w: negative hintCount", ErrInvalidConfig)
	case cfg.MaxTurns < 0:
		return nil, fmt.Errorf("%w: negative maxTurns", ErrInvalidConfig)
	case len(cfg.Players) == 0:
		return nil, fmt.Errorf("%w: no players", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(cfg.Players))
	for _, p := range cfg.Players {
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate or empty player id %q", ErrInvalidConfig, p.ID)
		}
		seen[p.ID] = true
	}

	perm := rng.Perm(n)
	answer := slices.Clone(perm[:cfg.AnswerCount])
	slices.Sort(answer)
	nonAnswers := perm[cfg.AnswerCount:]

	hints := make(map[string][]int, len(cfg.Players))
	for _, p := range cfg.Players {
		shuffled := slices.Clone(nonAnswers)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		h := shuffled[:min(cfg.HintCount, len(shuffled))]
		slices.Sort(h)
		hints[p.ID] = h
	}

	m := NewMatchWithAnswer(pool, answer, cfg.MaxTurns, cfg.Players)
	m.Hints = hints
	return m, nil
}

// NewMatchWithAnswer sets up a match over a fixed keyword list and answer,
// with no hints dealt. Used for replays and the daily puzzle.
func NewMatchWithAnswer(keywords []string, answer []int, maxTurns int, players []Player) *Match {
	answer = slices.Clone(answer)
	slices.Sort(answer)
	hints := make(map[string][]int, len(players))
	for _, p := range players {
		hints[p.ID] = []int{}
	}
	return &Match{
		ID:                   uuid.NewString(),
		Keywords:             slices.Clone(keywords),
		Answer:               answer,
		AnswerCount:          len(answer),
		MaxTurns:             maxTurns,
		Players:              slices.Clone(players),
		Hints:                hints,
		History:              []GuessRecord{},
		RevealedAnswers:      []int{},
		RevealedWrongAnswers: []int{},
		RevealedHints:        map[string]bool{},
		Turn:                 1,
		StartedAt:            time.Now().UTC(),
	}
}

// CurrentPlayer returns the player whose turn it is.
func (m *Match) CurrentPlayer() (Player, bool) {
	if m.Finished || len(m.Players) == 0 {
		return Player{}, false
	}
	return m.Players[m.Current], true
}

// Player looks up a seat by ID.
func (m *Match) Player(id string) (Player, bool) {
	for _, p := range m.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// ApplyGuess validates and scores a guess, mutating the match state.
// Returns the appended record, the new state string ("playing"/"won"/"lost"), or an error.
//
// State transitions:
//   - correctCount == k → Finished = true, Won = true.
//   - Else if the turn counter reaches MaxTurns → Finished = true (nobody wins).
//   - Else the turn passes to the next seat.
func (m *Match) ApplyGuess(playerID string, guess []int) (GuessRecord, string, error) {
	if m.Finished {
		return GuessRecord{}, m.Status(), ErrFinished
	}
	if _, ok := m.Player(playerID); !ok {
		return GuessRecord{}, m.Status(), ErrUnknownPlayer
	}
	if m.Players[m.Current].ID != playerID {
		return GuessRecord{}, m.Status(), ErrNotYourTurn
	}
	g, err := NormalizeGuess(guess, len(m.Keywords), m.AnswerCount)
	if err != nil {
		return GuessRecord{}, m.Status(), err
	}

	rec := GuessRecord{ActorID: playerID, Guess: g, CorrectCount: Score(m.Answer, g)}
	m.History = append(m.History, rec)

	switch {
	case rec.CorrectCount == m.AnswerCount:
		m.Finished, m.Won, m.Winner = true, true, playerID
	case m.MaxTurns > 0 && m.Turn >= m.MaxTurns:
		m.Finished = true
	default:
		m.Turn++
		m.Current = (m.Current + 1) % len(m.Players)
	}
	return rec, m.Status(), nil
}

// Status reports a coarse string representation of the match state.
func (m *Match) Status() string {
	if m.Finished {
		if m.Won {
			return "won"
		}
		return "lost"
	}
	return "playing"
}

// StateFor builds the per-turn snapshot for one player. Every slice is a copy
// so strategies cannot reach back into the match.
func (m *Match) StateFor(playerID string) (*State, error) {
	if _, ok := m.Player(playerID); !ok {
		return nil, ErrUnknownPlayer
	}
	var other []int
	for _, p := range m.Players {
		if p.ID != playerID && m.RevealedHints[p.ID] {
			other = append(other, m.Hints[p.ID]...)
		}
	}
	history := make([]GuessRecord, len(m.History))
	for i, r := range m.History {
		history[i] = GuessRecord{ActorID: r.ActorID, Guess: slices.Clone(r.Guess), CorrectCount: r.CorrectCount}
	}
	return &State{
		Keywords:             slices.Clone(m.Keywords),
		AnswerCount:          m.AnswerCount,
		PlayerID:             playerID,
		MyHints:              slices.Clone(m.Hints[playerID]),
		OtherHints:           other,
		RevealedAnswers:      slices.Clone(m.RevealedAnswers),
		RevealedWrongAnswers: slices.Clone(m.RevealedWrongAnswers),
		PreviousGuesses:      history,
		CurrentTurn:          m.Turn,
		MaxTurns:             m.MaxTurns,
	}, nil
}

// RevealAnswer makes one not-yet-revealed answer public.
// Returns false when every answer is already revealed.
func (m *Match) RevealAnswer(rng *mrand.Rand) (int, bool) {
	var pending []int
	for _, a := range m.Answer {
		if !slices.Contains(m.RevealedAnswers, a) {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return 0, false
	}
	idx := pending[rng.IntN(len(pending))]
	m.RevealedAnswers = append(m.RevealedAnswers, idx)
	m.HintsUsed++
	return idx, true
}

// RevealWrong makes one not-yet-revealed non-answer public.
func (m *Match) RevealWrong(rng *mrand.Rand) (int, bool) {
	var pending []int
	for i := range m.Keywords {
		if !slices.Contains(m.Answer, i) && !slices.Contains(m.RevealedWrongAnswers, i) {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return 0, false
	}
	idx := pending[rng.IntN(len(pending))]
	m.RevealedWrongAnswers = append(m.RevealedWrongAnswers, idx)
	m.HintsUsed++
	return idx, true
}

// RevealHintsOf publishes a player's private hints to everybody else.
func (m *Match) RevealHintsOf(playerID string) error {
	if _, ok := m.Player(playerID); !ok {
		return ErrUnknownPlayer
	}
	m.RevealedHints[playerID] = true
	return nil
}

// AutoGuess picks k random indices avoiding revealed non-answers; used when a
// human runs out of time.
func (m *Match) AutoGuess(rng *mrand.Rand) []int {
	var pool, rest []int
	for i := range m.Keywords {
		if slices.Contains(m.RevealedWrongAnswers, i) {
			rest = append(rest, i)
		} else {
			pool = append(pool, i)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	out := append(pool, rest...)[:m.AnswerCount]
	out = slices.Clone(out)
	slices.Sort(out)
	return out
}

// Score counts how many guessed indices belong to the answer.
func Score(answer, guess []int) int {
	n := 0
	for _, g := range guess {
		if slices.Contains(answer, g) {
			n++
		}
	}
	return n
}

// NormalizeGuess returns a sorted copy of guess after checking it holds
// exactly k distinct indices in [0, n).
func NormalizeGuess(guess []int, n, k int) ([]int, error) {
	if len(guess) != k {
		return nil, fmt.Errorf("%w: want %d keywords, got %d", ErrInvalidGuess, k, len(guess))
	}
	out := slices.Clone(guess)
	slices.Sort(out)
	for i, g := range out {
		if g < 0 || g >= n {
			return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidGuess, g)
		}
		if i > 0 && out[i-1] == g {
			return nil, fmt.Errorf("%w: duplicate index %d", ErrInvalidGuess, g)
		}
	}
	return out, nil
}
