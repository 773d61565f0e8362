// internal/httpserver/routes_match.go
//
// Solver and match endpoints.
//   - POST /solve        stateless: one guess for a client-held state
//   - POST /match/new    deal a match against AI opponents
//   - POST /match/guess  the caller's guess, then every AI turn that follows
//   - POST /match/timeout  a random guess on the caller's behalf
//   - POST /match/hint   reveal one answer or one non-answer to everybody
//   - GET  /match/{id}   public view; the answer only once finished
//   - POST /simulate     AI-only tournament summary
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/AsyncSite/deduction-server/internal/arena"
	"github.com/AsyncSite/deduction-server/internal/game"
	"github.com/AsyncSite/deduction-server/internal/solver"
	"github.com/AsyncSite/deduction-server/internal/store"
)

const (
	maxOpponents    = 3
	maxSimGames     = 200
	defaultSimGames = 20
)

func (s *Server) mountMatch(r chi.Router) {
	r.Route("/match", func(r chi.Router) {
		r.Post("/new", s.handleNewMatch)
		r.Post("/guess", s.handleGuess)
		r.Post("/timeout", s.handleTimeout)
		r.Post("/hint", s.handleHint)
		r.Get("/{id}", s.handleGetMatch)
	})
	r.Post("/simulate", s.handleSimulate)
}

// ------------------------------- SOLVE -------------------------------------

type solveReq struct {
	Tier  string     `json:"tier"` // default master
	State game.State `json:"state"`
}

type solveRes struct {
	Guess       []int    `json:"guess"`
	Keywords    []string `json:"keywords"`
	Phase       string   `json:"phase,omitempty"`
	Hypotheses  int      `json:"hypotheses,omitempty"`
	Capped      bool     `json:"capped,omitempty"`
	SearchSpace float64  `json:"searchSpace,omitempty"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveReq
	if !decode(w, r, &req) {
		return
	}
	if req.Tier == "" {
		req.Tier = solver.TierMaster.String()
	}
	tier, err := solver.ParseTier(req.Tier)
	if err != nil {
		writeGameError(w, err)
		return
	}
	opts := s.solverOptions(newRand())

	var res solveRes
	if tier == solver.TierMaster {
		d, err := solver.NewMaster(opts).Decide(&req.State)
		if err != nil {
			writeGameError(w, err)
			return
		}
		res = solveRes{
			Guess: d.Guess, Phase: string(d.Phase),
			Hypotheses: d.Hypotheses, Capped: d.Capped, SearchSpace: d.SearchSpace,
		}
	} else {
		strat, err := solver.New(tier, opts)
		if err != nil {
			writeGameError(w, err)
			return
		}
		if res.Guess, err = strat.SelectGuess(&req.State); err != nil {
			writeGameError(w, err)
			return
		}
	}
	res.Keywords = make([]string, len(res.Guess))
	for i, idx := range res.Guess {
		res.Keywords[i] = req.State.Keywords[idx]
	}
	writeJSON(w, http.StatusOK, res)
}

// ------------------------------- MATCH -------------------------------------

type newMatchReq struct {
	Preset    string       `json:"preset"`    // beginner | intermediate | advanced
	Config    *game.Config `json:"config"`    // overrides preset; players ignored
	Opponents []string     `json:"opponents"` // tier names, default ["master"]
}

// matchView is what a player may see of a match.
type matchView struct {
	ID                   string             `json:"matchId"`
	Status               string             `json:"status"`
	Keywords             []string           `json:"keywords"`
	AnswerCount          int                `json:"answerCount"`
	Turn                 int                `json:"turn"`
	MaxTurns             int                `json:"maxTurns"`
	Players              []game.Player      `json:"players"`
	Current              string             `json:"current,omitempty"`
	History              []game.GuessRecord `json:"history"`
	RevealedAnswers      []int              `json:"revealedAnswers"`
	RevealedWrongAnswers []int              `json:"revealedWrongAnswers"`
	HintsUsed            int                `json:"hintsUsed"`
	MyHints              []int              `json:"myHints,omitempty"`
	Winner               string             `json:"winner,omitempty"`
	Answer               []int              `json:"answer,omitempty"`
}

func viewOf(m *game.Match, seatID string) matchView {
	v := matchView{
		ID:                   m.ID,
		Status:               m.Status(),
		Keywords:             m.Keywords,
		AnswerCount:          m.AnswerCount,
		Turn:                 m.Turn,
		MaxTurns:             m.MaxTurns,
		Players:              m.Players,
		History:              slices.Clone(m.History),
		RevealedAnswers:      slices.Clone(m.RevealedAnswers),
		RevealedWrongAnswers: slices.Clone(m.RevealedWrongAnswers),
		HintsUsed:            m.HintsUsed,
		Winner:               m.Winner,
	}
	if p, ok := m.CurrentPlayer(); ok {
		v.Current = p.ID
	}
	if _, ok := m.Player(seatID); ok {
		v.MyHints = m.Hints[seatID]
	}
	if m.Finished {
		v.Answer = m.Answer
	}
	return v
}

func (s *Server) handleNewMatch(w http.ResponseWriter, r *http.Request) {
	var req newMatchReq
	if !decode(w, r, &req) {
		return
	}
	cfg, ok := game.Presets[strings.ToLower(req.Preset)]
	if req.Config != nil {
		cfg, ok = *req.Config, true
	} else if req.Preset == "" {
		cfg, ok = game.Presets["beginner"], true
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown preset")
		return
	}
	if len(req.Opponents) == 0 {
		req.Opponents = []string{solver.TierMaster.String()}
	}
	if len(req.Opponents) > maxOpponents {
		writeError(w, http.StatusBadRequest, "too many opponents")
		return
	}

	seatID, name := s.identity(w, r)
	cfg.Players = []game.Player{{ID: seatID, Name: name, Kind: game.PlayerHuman}}
	for i, o := range req.Opponents {
		tier, err := solver.ParseTier(o)
		if err != nil {
			writeGameError(w, err)
			return
		}
		cfg.Players = append(cfg.Players, game.Player{
			ID:   "ai" + strconv.Itoa(i+1),
			Name: tier.String(),
			Kind: game.PlayerAI,
			Tier: tier.String(),
		})
	}

	rng := newRand()
	kw, err := s.pool.Draw(cfg.PoolSize, rng)
	if err != nil {
		writeGameError(w, err)
		return
	}
	m, err := game.NewMatch(cfg, kw, rng)
	if err != nil {
		writeGameError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), m); err != nil {
		log.Error().Err(err).Msg("save match")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("match", m.ID).Int("pool", len(kw)).Int("answers", m.AnswerCount).
		Strs("opponents", req.Opponents).Msg("match started")
	writeJSON(w, http.StatusOK, viewOf(m, seatID))
}

type guessReq struct {
	MatchID string `json:"matchId"`
	Guess   []int  `json:"guess"`
}

type guessRes struct {
	Record  game.GuessRecord   `json:"record"`
	AITurns []game.GuessRecord `json:"aiTurns"`
	Match   matchView          `json:"match"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if !decode(w, r, &req) {
		return
	}
	s.playTurn(w, r, req.MatchID, func(*game.Match) []int { return req.Guess })
}

type matchReq struct {
	MatchID string `json:"matchId"`
}

// handleTimeout plays a random guess for a caller who ran out of time.
func (s *Server) handleTimeout(w http.ResponseWriter, r *http.Request) {
	var req matchReq
	if !decode(w, r, &req) {
		return
	}
	rng := newRand()
	s.playTurn(w, r, req.MatchID, func(m *game.Match) []int { return m.AutoGuess(rng) })
}

// playTurn applies the caller's guess and then every AI turn up to the
// caller's next one, under the match's write lock.
func (s *Server) playTurn(w http.ResponseWriter, r *http.Request, matchID string, pick func(*game.Match) []int) {
	seatID, _ := s.identity(w, r)
	rng := newRand()
	var (
		res      guessRes
		finished *game.Match
	)
	err := s.store.Update(r.Context(), matchID, func(m *game.Match) error {
		bots, err := arena.Strategies(m.Players, s.solverOptions(rng), rng)
		if err != nil {
			return err
		}
		// AI turns left over from an interrupted request come first.
		if _, err := arena.Advance(r.Context(), m, bots, rng); err != nil {
			return err
		}
		rec, _, err := m.ApplyGuess(seatID, pick(m))
		if err != nil {
			return err
		}
		ai, err := arena.Advance(r.Context(), m, bots, rng)
		if err != nil {
			return err
		}
		res = guessRes{Record: rec, AITurns: ai, Match: viewOf(m, seatID)}
		if m.Finished {
			finished = m
		}
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	if res.AITurns == nil {
		res.AITurns = []game.GuessRecord{}
	}
	if finished != nil {
		s.record(r.Context(), finished, seatID)
	}
	writeJSON(w, http.StatusOK, res)
}

type hintReq struct {
	MatchID string `json:"matchId"`
	Kind    string `json:"kind"` // answer | wrong
}

type hintRes struct {
	Kind      string `json:"kind"`
	Index     int    `json:"index"`
	Keyword   string `json:"keyword"`
	HintsUsed int    `json:"hintsUsed"`
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req hintReq
	if !decode(w, r, &req) {
		return
	}
	seatID, _ := s.identity(w, r)
	res, err := revealHint(r.Context(), s.store.Update, req, seatID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

var (
	errHintKind    = errors.New("kind must be answer or wrong")
	errNothingLeft = errors.New("nothing left to reveal")
)

// updateFunc matches store.Store.Update.
type updateFunc func(ctx context.Context, id string, fn func(*game.Match) error) error

// revealHint runs one global reveal through update. Shared with the daily
// routes, which keep their matches in a separate store.
func revealHint(ctx context.Context, update updateFunc, req hintReq, seatID string) (hintRes, error) {
	if req.Kind != "answer" && req.Kind != "wrong" {
		return hintRes{}, errHintKind
	}
	var res hintRes
	rng := newRand()
	err := update(ctx, req.MatchID, func(m *game.Match) error {
		if _, ok := m.Player(seatID); !ok {
			return game.ErrUnknownPlayer
		}
		if m.Finished {
			return game.ErrFinished
		}
		var (
			idx int
			ok  bool
		)
		if req.Kind == "answer" {
			idx, ok = m.RevealAnswer(rng)
		} else {
			idx, ok = m.RevealWrong(rng)
		}
		if !ok {
			return errNothingLeft
		}
		res = hintRes{Kind: req.Kind, Index: idx, Keyword: m.Keywords[idx], HintsUsed: m.HintsUsed}
		return nil
	})
	return res, err
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	seatID, _ := s.identity(w, r)
	var v matchView
	// The match's read lock keeps a half-applied turn out of the view.
	err := s.store.View(r.Context(), chi.URLParam(r, "id"), func(m *game.Match) error {
		v = viewOf(m, seatID)
		return nil
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ------------------------------ SIMULATE -----------------------------------

type simulateReq struct {
	Preset   string   `json:"preset"`
	Tiers    []string `json:"tiers"`
	Games    int      `json:"games"`
	Seed     uint64   `json:"seed"`
	Parallel int      `json:"parallel"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateReq
	if !decode(w, r, &req) {
		return
	}
	if req.Preset == "" {
		req.Preset = "beginner"
	}
	cfg, ok := game.Presets[strings.ToLower(req.Preset)]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown preset")
		return
	}
	if len(req.Tiers) == 0 {
		req.Tiers = []string{"master", "logical"}
	}
	tiers := make([]solver.Tier, 0, len(req.Tiers))
	for _, name := range req.Tiers {
		t, err := solver.ParseTier(name)
		if err != nil {
			writeGameError(w, err)
			return
		}
		tiers = append(tiers, t)
	}
	switch {
	case req.Games <= 0:
		req.Games = defaultSimGames
	case req.Games > maxSimGames:
		req.Games = maxSimGames
	}
	if req.Seed == 0 {
		req.Seed = newRand().Uint64()
	}

	ctx := r.Context()
	sum, err := arena.Benchmark(ctx, arena.BenchmarkConfig{
		Match:    cfg,
		Tiers:    tiers,
		Games:    req.Games,
		Seed:     req.Seed,
		Parallel: req.Parallel,
		Pool:     s.pool,
		Options:  s.solverOptions(nil),
		OnFinish: func(m *game.Match) {
			if err := s.results.Record(ctx, store.NewResult(m, "")); err != nil {
				log.Warn().Err(err).Str("match", m.ID).Msg("record simulated match")
			}
		},
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"seed": req.Seed, "summary": sum})
}
