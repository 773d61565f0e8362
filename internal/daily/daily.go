// Package daily derives one deterministic puzzle per UTC date and stores
// the results players post for it.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/AsyncSite/deduction-server/internal/game"
	"github.com/AsyncSite/deduction-server/internal/keywords"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns HMAC-SHA256(salt, YYYY-MM-DD) as two PCG seeds.
func Seed(date time.Time, salt string) (uint64, uint64) {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])
}

// Rand is the deterministic source for one date.
func Rand(date time.Time, salt string) *rand.Rand {
	a, b := Seed(date, salt)
	return rand.New(rand.NewPCG(a, b))
}

// Puzzle is the daily keyword pool and answer. Everybody playing on the
// same date with the same salt gets the same one.
type Puzzle struct {
	Date     string
	Keywords []string
	Answer   []int
	Hints    []int
	Config   game.Config
}

// DefaultConfig is the daily shape: the intermediate preset, solo.
func DefaultConfig() game.Config {
	cfg := game.Presets["intermediate"]
	cfg.Players = nil
	return cfg
}

// NewPuzzle draws the puzzle for date from pool.
func NewPuzzle(date time.Time, salt string, pool *keywords.Pool, cfg game.Config) (*Puzzle, error) {
	rng := Rand(date, salt)
	kw, err := pool.Draw(cfg.PoolSize, rng)
	if err != nil {
		return nil, err
	}
	cfg.Players = []game.Player{{ID: "daily", Name: "daily", Kind: game.PlayerHuman}}
	m, err := game.NewMatch(cfg, kw, rng)
	if err != nil {
		return nil, err
	}
	return &Puzzle{
		Date:     DateKey(date),
		Keywords: m.Keywords,
		Answer:   m.Answer,
		Hints:    m.Hints["daily"],
		Config:   cfg,
	}, nil
}

// Match starts a fresh solo match over the puzzle for playerID.
func (p *Puzzle) Match(playerID string) *game.Match {
	m := game.NewMatchWithAnswer(p.Keywords, p.Answer, p.Config.MaxTurns, []game.Player{{ID: playerID, Kind: game.PlayerHuman}})
	m.Hints[playerID] = slices.Clone(p.Hints)
	return m
}
