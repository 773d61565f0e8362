// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily puzzle.
// Exposes four endpoints under /daily:
//   - POST /daily/new         → start today's puzzle (creates or reuses a session)
//   - POST /daily/guess       → submit a guess for today's puzzle
//   - POST /daily/hint        → reveal an answer or a non-answer
//   - GET  /daily/leaderboard → top 20 results for today (or ?date=YYYY-MM-DD)
//
// Each player can finish the puzzle once per day (enforced by DB + in-memory
// session). Sessions are held in memory for active play and persisted on win.
// Keywords and answer are derived from the date and DAILY_SALT.
package httpserver

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/AsyncSite/deduction-server/internal/daily"
	"github.com/AsyncSite/deduction-server/internal/game"
	"github.com/AsyncSite/deduction-server/internal/store"
)

var errNoSession = errors.New("no session")

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	matches  store.Store // daily matches, kept apart from /match
	salt     string
	mu       sync.Mutex               // guards sessions and puzzles
	sessions map[string]*dailySession // keyed by userID|date
	puzzles  map[string]*daily.Puzzle // keyed by date
}

// dailySession holds transient state for an in-progress daily puzzle.
type dailySession struct {
	MatchID  string
	UserID   string
	Date     string
	Start    time.Time
	Finished bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		matches:  store.NewMemoryStore(),
		salt:     s.cfg.DailySalt,
		sessions: make(map[string]*dailySession),
		puzzles:  make(map[string]*daily.Puzzle),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Post("/hint", dd.handleHint)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// puzzle returns today's puzzle, deriving it on first use.
func (d *dailyServer) puzzle() (*daily.Puzzle, error) {
	now := d.srv.now().UTC()
	date := daily.DateKey(now)
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.puzzles[date]; ok {
		return p, nil
	}
	p, err := daily.NewPuzzle(now, d.salt, d.srv.pool, daily.DefaultConfig())
	if err != nil {
		return nil, err
	}
	d.puzzles = map[string]*daily.Puzzle{date: p} // only today's is ever needed
	return p, nil
}

// session finds the caller's live session for today matching matchID.
func (d *dailyServer) session(uid, matchID string) (*dailySession, error) {
	key := uid + "|" + daily.DateKey(d.srv.now())
	d.mu.Lock()
	defer d.mu.Unlock()
	sess, ok := d.sessions[key]
	if !ok || sess.MatchID != matchID {
		return nil, errNoSession
	}
	return sess, nil
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	MatchID     string   `json:"matchId"`
	Date        string   `json:"date"`
	Played      bool     `json:"played"`
	Keywords    []string `json:"keywords,omitempty"`
	AnswerCount int      `json:"answerCount,omitempty"`
	MaxTurns    int      `json:"maxTurns,omitempty"`
	Hints       []int    `json:"hints,omitempty"`
}

// handleNew creates or reuses a daily session for the current date.
//   - If the caller already has a DB row for today → Played=true.
//   - Otherwise create/reuse an in-memory session and return the match.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid, _ := d.srv.identity(w, r)
	p, err := d.puzzle()
	if err != nil {
		writeGameError(w, err)
		return
	}
	res := dailyNewRes{
		Date:        p.Date,
		Keywords:    p.Keywords,
		AnswerCount: len(p.Answer),
		MaxTurns:    p.Config.MaxTurns,
		Hints:       p.Hints,
	}

	if played, err := d.store.AlreadyPlayed(r.Context(), uid, p.Date); err == nil && played {
		writeJSON(w, http.StatusOK, dailyNewRes{Date: p.Date, Played: true})
		return
	}

	key := uid + "|" + p.Date
	d.mu.Lock()
	if sess, ok := d.sessions[key]; ok {
		d.mu.Unlock()
		res.MatchID = sess.MatchID
		writeJSON(w, http.StatusOK, res)
		return
	}
	m := p.Match(uid)
	d.sessions[key] = &dailySession{MatchID: m.ID, UserID: uid, Date: p.Date, Start: d.srv.now()}
	d.mu.Unlock()

	if err := d.matches.Save(r.Context(), m); err != nil {
		writeGameError(w, err)
		return
	}
	res.MatchID = m.ID
	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// /daily/guess

// dailyGuessRes is the response payload for /daily/guess.
type dailyGuessRes struct {
	Record  *game.GuessRecord `json:"record,omitempty"`
	State   string            `json:"state"` // in_progress | won | lost | locked
	Guesses int               `json:"guesses"`
	Answer  []int             `json:"answer,omitempty"`
}

// handleGuess applies a guess to today's session and persists the result on
// a win.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid, _ := d.srv.identity(w, r)
	var req guessReq
	if !decode(w, r, &req) {
		return
	}
	sess, err := d.session(uid, req.MatchID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	var (
		res     dailyGuessRes
		hints   int
		guesses int
	)
	err = d.matches.Update(r.Context(), req.MatchID, func(m *game.Match) error {
		if m.Finished {
			res = dailyGuessRes{State: "locked", Guesses: len(m.History), Answer: m.Answer}
			return nil
		}
		rec, status, err := m.ApplyGuess(uid, req.Guess)
		if err != nil {
			return err
		}
		guesses, hints = len(m.History), m.HintsUsed
		res = dailyGuessRes{Record: &rec, State: "in_progress", Guesses: guesses}
		if m.Finished {
			res.State, res.Answer = status, m.Answer
		}
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}

	if res.State == "won" || res.State == "lost" {
		d.mu.Lock()
		sess.Finished = true
		d.mu.Unlock()
	}
	if res.State == "won" {
		elapsed := int(d.srv.now().Sub(sess.Start).Milliseconds())
		if err := d.store.InsertResult(r.Context(), daily.Result{
			UserID: uid, Date: sess.Date, Guesses: guesses, HintsUsed: hints, ElapsedMs: elapsed,
		}); err != nil {
			log.Warn().Err(err).Str("user", uid).Msg("insert daily result")
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// /daily/hint

func (d *dailyServer) handleHint(w http.ResponseWriter, r *http.Request) {
	uid, _ := d.srv.identity(w, r)
	var req hintReq
	if !decode(w, r, &req) {
		return
	}
	if _, err := d.session(uid, req.MatchID); err != nil {
		writeGameError(w, err)
		return
	}
	res, err := revealHint(r.Context(), d.matches.Update, req, uid)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if rows == nil {
		rows = []daily.LBRow{}
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
