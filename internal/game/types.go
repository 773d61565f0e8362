// internal/game/types.go
//
// Core type definitions for the keyword deduction game.
// Defines:
//   - GuessRecord: one immutable guess and the number of answers it contained.
//   - State: the per-player snapshot handed to a strategy once per turn.
//   - Player / Config / Match: a single in-progress or finished game.

package game

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidState is returned when a State cannot possibly be answered with a
// structurally valid guess (answerCount outside [0, len(keywords)]).
var ErrInvalidState = errors.New("invalid game state")

// GuessRecord is one entry of the public history. Only the count of correct
// keywords is ever revealed, never which ones.
type GuessRecord struct {
	ActorID      string `json:"actorId"`
	Guess        []int  `json:"guess"`
	CorrectCount int    `json:"correctCount"`
}

// State is everything a strategy may look at when choosing its next guess.
// Indices refer to positions in Keywords.
type State struct {
	Keywords             []string      `json:"keywords"`
	AnswerCount          int           `json:"answerCount"`
	PlayerID             string        `json:"playerId,omitempty"` // used to tell own guesses from opponents'
	MyHints              []int         `json:"myHints"`
	OtherHints           []int         `json:"otherHints,omitempty"` // other players' hints, once revealed
	RevealedAnswers      []int         `json:"revealedAnswers"`
	RevealedWrongAnswers []int         `json:"revealedWrongAnswers"`
	PreviousGuesses      []GuessRecord `json:"previousGuesses"`
	CurrentTurn          int           `json:"currentTurn"`
	MaxTurns             int           `json:"maxTurns,omitempty"` // 0 = unlimited
}

// Universe is the number of keywords in play.
func (s *State) Universe() int { return len(s.Keywords) }

// InRange reports whether i is a valid keyword index.
func (s *State) InRange(i int) bool { return i >= 0 && i < len(s.Keywords) }

// Validate checks the one structural precondition no strategy can recover
// from. Malformed history is tolerated and handled by the strategies.
func (s *State) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if s.AnswerCount < 0 || s.AnswerCount > len(s.Keywords) {
		return fmt.Errorf("%w: answerCount %d with %d keywords", ErrInvalidState, s.AnswerCount, len(s.Keywords))
	}
	return nil
}

// PlayerKind distinguishes people from built-in strategies.
type PlayerKind string

const (
	PlayerHuman PlayerKind = "human"
	PlayerAI    PlayerKind = "ai"
)

// Player is a seat at the table. Tier names the built-in strategy for AI
// players and is parsed by the solver package.
type Player struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Kind PlayerKind `json:"kind"`
	Tier string     `json:"tier,omitempty"`
}

// Config describes how a match is dealt.
type Config struct {
	PoolSize    int      `json:"poolSize"`
	AnswerCount int      `json:"answerCount"`
	HintCount   int      `json:"hintCount"`
	MaxTurns    int      `json:"maxTurns"` // 0 = unlimited
	Players     []Player `json:"players"`
}

// Presets are the difficulty levels offered by the lobby.
var Presets = map[string]Config{
	"beginner":     {PoolSize: 30, AnswerCount: 3, HintCount: 5, MaxTurns: 15},
	"intermediate": {PoolSize: 50, AnswerCount: 5, HintCount: 5, MaxTurns: 20},
	"advanced":     {PoolSize: 80, AnswerCount: 7, HintCount: 4, MaxTurns: 25},
}

// Match holds the state of a single game session.
type Match struct {
	ID                   string           // Unique match identifier (UUID v4).
	Keywords             []string         // Keyword universe, immutable once dealt.
	Answer               []int            // Secret answer indices (sorted).
	AnswerCount          int              // k
	MaxTurns             int              // 0 = unlimited
	Players              []Player         // Seating order.
	Hints                map[string][]int // Private non-answer hints per player ID.
	History              []GuessRecord    // Every guess so far, in order.
	RevealedAnswers      []int            // Globally revealed answers.
	RevealedWrongAnswers []int            // Globally revealed non-answers.
	RevealedHints        map[string]bool  // Players whose private hints were made public.
	HintsUsed            int              // Global reveals requested so far.
	Turn                 int              // 1-based turn counter.
	Current              int              // Index into Players of whose turn it is.
	Finished             bool             // True once the match is over.
	Won                  bool             // True if somebody submitted the full answer.
	Winner               string           // Player ID of the winner, if any.
	StartedAt            time.Time
}
