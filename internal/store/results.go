package store

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/AsyncSite/deduction-server/internal/game"
)

// Result is the persisted summary of a finished match.
type Result struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	AnonymousID string    `json:"-"`
	PoolSize    int       `json:"poolSize"`
	AnswerCount int       `json:"answerCount"`
	Status      string    `json:"status"` // won | lost
	Winner      string    `json:"winner,omitempty"`
	UserWon     bool      `json:"userWon"`
	Turns       int       `json:"turns"`
	Guesses     int       `json:"guesses"`
	HintsUsed   int       `json:"hintsUsed"`
	Opponents   []string  `json:"opponents"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`

	// Tiers lists every AI seat and whether it won.
	Tiers []TierOutcome `json:"-"`
}

// TierOutcome is one AI seat of a finished match.
type TierOutcome struct {
	Tier string
	Won  bool
}

// NewResult summarizes a finished match from the point of view of the
// human seat humanID (may be empty for all-AI matches).
func NewResult(m *game.Match, humanID string) Result {
	r := Result{
		ID:          m.ID,
		PoolSize:    len(m.Keywords),
		AnswerCount: m.AnswerCount,
		Status:      m.Status(),
		Winner:      m.Winner,
		UserWon:     humanID != "" && m.Winner == humanID,
		Turns:       m.Turn,
		Guesses:     len(m.History),
		HintsUsed:   m.HintsUsed,
		Opponents:   []string{},
		StartedAt:   m.StartedAt,
		FinishedAt:  time.Now().UTC(),
	}
	for _, p := range m.Players {
		if p.Kind != game.PlayerAI {
			continue
		}
		r.Opponents = append(r.Opponents, p.Tier)
		r.Tiers = append(r.Tiers, TierOutcome{Tier: p.Tier, Won: m.Winner == p.ID})
	}
	return r
}

// TierStat aggregates finished matches per strategy tier.
type TierStat struct {
	Tier       string  `json:"tier"`
	Games      int     `json:"games"`
	Wins       int     `json:"wins"`
	TotalTurns int     `json:"totalTurns"`
	WinRate    float64 `json:"winRate"`
}

// Results persists finished matches, user stats and tier stats.
type Results struct{ db *sql.DB }

func NewResults(db *sql.DB) *Results { return &Results{db: db} }

// Record stores r, bumps the owner's stats when r belongs to a user and
// folds every AI seat into tier_stats, all in one transaction. Recording
// the same match twice is a no-op.
func (s *Results) Record(ctx context.Context, r Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
        INSERT OR IGNORE INTO match_results
            (id, user_id, anonymous_id, pool_size, answer_count, status, winner,
             turns, guesses, hints_used, opponents, started_at, finished_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, nullable(r.UserID), nullable(r.AnonymousID), r.PoolSize, r.AnswerCount, r.Status,
		nullable(r.Winner), r.Turns, r.Guesses, r.HintsUsed, strings.Join(r.Opponents, ","),
		r.StartedAt.UTC().Format(time.RFC3339), r.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	if r.UserID != "" {
		if err := bumpStats(ctx, tx, r.UserID, r.UserWon); err != nil {
			return fmt.Errorf("bump stats: %w", err)
		}
	}
	for _, t := range r.Tiers {
		win := 0
		if t.Won {
			win = 1
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO tier_stats (tier, games, wins, total_turns) VALUES (?, 1, ?, ?)
            ON CONFLICT(tier) DO UPDATE SET
                games = games + 1,
                wins = wins + excluded.wins,
                total_turns = total_turns + excluded.total_turns`,
			t.Tier, win, r.Turns); err != nil {
			return fmt.Errorf("tier stats: %w", err)
		}
	}
	return tx.Commit()
}

// bumpStats increments games played; updates wins and streak based on result.
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

// ListByUser returns the user's most recent results, newest first.
func (s *Results) ListByUser(ctx context.Context, userID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, pool_size, answer_count, status, COALESCE(winner,''), turns, guesses,
               hints_used, opponents, started_at, finished_at
        FROM match_results WHERE user_id=? ORDER BY finished_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var r Result
		var opponents, started, finished string
		if err := rows.Scan(&r.ID, &r.PoolSize, &r.AnswerCount, &r.Status, &r.Winner, &r.Turns,
			&r.Guesses, &r.HintsUsed, &opponents, &started, &finished); err != nil {
			return nil, err
		}
		r.UserID = userID
		r.Opponents = []string{}
		if opponents != "" {
			r.Opponents = strings.Split(opponents, ",")
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnonymous moves results recorded for a guest cookie onto a user.
func (s *Results) ClaimAnonymous(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE match_results SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID)
	return err
}

// TierStats returns the aggregate per tier, strongest win rate first.
func (s *Results) TierStats(ctx context.Context) ([]TierStat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tier, games, wins, total_turns FROM tier_stats`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TierStat{}
	for rows.Next() {
		var t TierStat
		if err := rows.Scan(&t.Tier, &t.Games, &t.Wins, &t.TotalTurns); err != nil {
			return nil, err
		}
		if t.Games > 0 {
			t.WinRate = float64(t.Wins) / float64(t.Games)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b TierStat) int {
		if c := cmp.Compare(b.WinRate, a.WinRate); c != 0 {
			return c
		}
		return strings.Compare(a.Tier, b.Tier)
	})
	return out, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
