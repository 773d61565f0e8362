// internal/arena/arena.go
//
// Drives AI seats through a match.
// Responsibilities:
//   - Build one strategy per AI seat from its tier.
//   - Advance: play AI turns until a human is up or the match is over.
//   - Check every AI guess before it is applied; a malformed guess is
//     replaced by a random one, and a master guess holding an index the
//     knowledge base already rules out is reported at Warn.
//
// A match is never touched by more than one goroutine at a time; the caller
// serializes access (the HTTP layer through the per-match lock of store.Update).
package arena

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AsyncSite/deduction-server/internal/game"
	"github.com/AsyncSite/deduction-server/internal/solver"
)

// ErrNoStrategy is returned when an AI seat has no strategy to play it.
var ErrNoStrategy = errors.New("no strategy for AI player")

// Strategies builds a strategy for every AI seat of players. Each strategy
// gets its own source split off rng so seats never share random state.
func Strategies(players []game.Player, opts solver.Options, rng *rand.Rand) (map[string]solver.Strategy, error) {
	out := make(map[string]solver.Strategy, len(players))
	for _, p := range players {
		if p.Kind != game.PlayerAI {
			continue
		}
		tier, err := solver.ParseTier(p.Tier)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", p.ID, err)
		}
		o := opts
		o.Rand = rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))
		s, err := solver.New(tier, o)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", p.ID, err)
		}
		out[p.ID] = s
	}
	return out, nil
}

// Advance plays consecutive AI turns and returns the records they produced.
// It stops when the match finishes, a human is to move, or ctx is done.
func Advance(ctx context.Context, m *game.Match, strategies map[string]solver.Strategy, rng *rand.Rand) ([]game.GuessRecord, error) {
	var played []game.GuessRecord
	for {
		p, ok := m.CurrentPlayer()
		if !ok || p.Kind != game.PlayerAI {
			return played, nil
		}
		if err := ctx.Err(); err != nil {
			return played, err
		}
		rec, err := aiTurn(m, p, strategies[p.ID], rng)
		if err != nil {
			return played, err
		}
		played = append(played, rec)
	}
}

// Play runs a match in which every seat is AI until it is over.
func Play(ctx context.Context, m *game.Match, strategies map[string]solver.Strategy, rng *rand.Rand) error {
	for _, p := range m.Players {
		if p.Kind != game.PlayerAI {
			return fmt.Errorf("%w: %s is not an AI seat", game.ErrInvalidConfig, p.ID)
		}
	}
	_, err := Advance(ctx, m, strategies, rng)
	return err
}

func aiTurn(m *game.Match, p game.Player, s solver.Strategy, rng *rand.Rand) (game.GuessRecord, error) {
	if s == nil {
		return game.GuessRecord{}, fmt.Errorf("%w: %s", ErrNoStrategy, p.ID)
	}
	st, err := m.StateFor(p.ID)
	if err != nil {
		return game.GuessRecord{}, err
	}
	guess, err := s.SelectGuess(st)
	if err != nil {
		return game.GuessRecord{}, fmt.Errorf("%s (%s): %w", p.ID, s.Name(), err)
	}

	if _, err := game.NormalizeGuess(guess, len(m.Keywords), m.AnswerCount); err != nil {
		log.Warn().Err(err).Str("match", m.ID).Str("player", p.ID).Str("tier", s.Name()).
			Ints("guess", guess).Msg("strategy returned malformed guess; substituting random guess")
		guess = m.AutoGuess(rng)
	} else if ruledOut := excluded(st, guess); len(ruledOut) > 0 {
		// Weaker tiers reason from partial knowledge and do this routinely.
		lvl := zerolog.DebugLevel
		if s.Name() == solver.TierMaster.String() {
			lvl = zerolog.WarnLevel
		}
		log.WithLevel(lvl).Str("match", m.ID).Str("player", p.ID).Str("tier", s.Name()).
			Ints("guess", guess).Ints("definiteWrong", ruledOut).Int("turn", m.Turn).
			Msg("guess contains indices already known to be wrong")
	}

	rec, status, err := m.ApplyGuess(p.ID, guess)
	if err != nil {
		return game.GuessRecord{}, err
	}
	log.Debug().Str("match", m.ID).Str("player", p.ID).Str("tier", s.Name()).
		Ints("guess", rec.Guess).Int("correct", rec.CorrectCount).Str("state", status).Msg("ai guess")
	return rec, nil
}

// excluded lists the guessed indices the fixed-point knowledge base already
// classifies as wrong.
func excluded(st *game.State, guess []int) []int {
	know := solver.Derive(st, solver.FixedPoint)
	var out []int
	for _, i := range guess {
		if know.IsWrong(i) {
			out = append(out, i)
		}
	}
	return out
}
