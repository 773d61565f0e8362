package daily

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsyncSite/deduction-server/internal/keywords"
	"github.com/AsyncSite/deduction-server/internal/store"
)

func TestSeed_Deterministic(t *testing.T) {
	day := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	sameDay := time.Date(2024, 3, 9, 0, 1, 0, 0, time.UTC)
	nextDay := day.Add(2 * time.Minute)

	a1, b1 := Seed(day, "salt")
	a2, b2 := Seed(sameDay, "salt")
	assert.Equal(t, [2]uint64{a1, b1}, [2]uint64{a2, b2})

	a3, _ := Seed(nextDay, "salt")
	assert.NotEqual(t, a1, a3)
	a4, _ := Seed(day, "pepper")
	assert.NotEqual(t, a1, a4)
	assert.Equal(t, "2024-03-09", DateKey(day))
}

func TestNewPuzzle(t *testing.T) {
	pool := keywords.Default()
	day := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()

	p1, err := NewPuzzle(day, "salt", pool, cfg)
	require.NoError(t, err)
	p2, err := NewPuzzle(day.Add(time.Hour), "salt", pool, cfg)
	require.NoError(t, err)

	assert.Equal(t, p1.Keywords, p2.Keywords)
	assert.Equal(t, p1.Answer, p2.Answer)
	assert.Len(t, p1.Keywords, cfg.PoolSize)
	assert.Len(t, p1.Answer, cfg.AnswerCount)
	assert.Len(t, p1.Hints, cfg.HintCount)
	for _, h := range p1.Hints {
		assert.NotContains(t, p1.Answer, h)
	}

	m := p1.Match("u1")
	assert.Equal(t, p1.Answer, m.Answer)
	assert.Equal(t, p1.Hints, m.Hints["u1"])
	st, err := m.StateFor("u1")
	require.NoError(t, err)
	assert.Equal(t, p1.Hints, st.MyHints)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenMigrated(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := NewStore(db)

	played, err := s.AlreadyPlayed(ctx, "u1", "2025-01-02")
	require.NoError(t, err)
	assert.False(t, played)

	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u1", Date: "2025-01-02", Guesses: 6, ElapsedMs: 1000}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u1", Date: "2025-01-02", Guesses: 1, ElapsedMs: 1}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u2", Date: "2025-01-02", Guesses: 4, HintsUsed: 2, ElapsedMs: 9000}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u3", Date: "2025-01-02", Guesses: 4, ElapsedMs: 12000}))

	played, err = s.AlreadyPlayed(ctx, "u1", "2025-01-02")
	require.NoError(t, err)
	assert.True(t, played)

	lb, err := s.Leaderboard(ctx, "2025-01-02", 0)
	require.NoError(t, err)
	assert.Equal(t, []LBRow{
		{UserID: "u3", Guesses: 4, ElapsedMs: 12000},
		{UserID: "u2", Guesses: 4, HintsUsed: 2, ElapsedMs: 9000},
		{UserID: "u1", Guesses: 6, ElapsedMs: 1000},
	}, lb)
}
