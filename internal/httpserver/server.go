// internal/httpserver/server.go
//
// HTTP server wiring for the deduction backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", POST /solve, GET /stats/tiers.
//   - Match endpoints (optional auth): /match/*, POST /simulate.
//   - Daily puzzle endpoints (optional auth): mounted under /daily.
//   - Auth + profile endpoints: /auth/*, /stats/me, /matches/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The human seat of a match is keyed by the caller's identity: the user
//     ID when signed in, the anonymous cookie otherwise.
//   - Live matches stay in memory; only finished ones reach the database.
package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/AsyncSite/deduction-server/internal/arena"
	"github.com/AsyncSite/deduction-server/internal/auth"
	"github.com/AsyncSite/deduction-server/internal/config"
	"github.com/AsyncSite/deduction-server/internal/game"
	"github.com/AsyncSite/deduction-server/internal/keywords"
	"github.com/AsyncSite/deduction-server/internal/solver"
	"github.com/AsyncSite/deduction-server/internal/store"
)

// Server bundles router, live match store, DB-backed services and the
// keyword pool.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	store   store.Store
	db      *sql.DB
	auth    *auth.Service
	results *store.Results
	pool    *keywords.Pool
	now     func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, st store.Store, db *sql.DB, pool *keywords.Pool) *Server {
	s := &Server{
		r:     chi.NewRouter(),
		cfg:   cfg,
		store: st,
		db:    db,
		auth: auth.New(db, auth.Options{
			Secret:     cfg.JWTSecret,
			TokenDays:  cfg.JWTDays,
			CookieName: cfg.CookieName,
			Production: cfg.Production,
		}),
		results: store.NewResults(db),
		pool:    pool,
		now:     time.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(15 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin))          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "deduction-server",
			"endpoints": []string{
				"/health", "POST /solve", "POST /match/new", "POST /match/guess",
				"POST /match/hint", "GET /match/{id}", "POST /simulate", "/daily/*", "/auth/*",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/debug/keywords", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"total": s.pool.Len(), "sections": s.pool.Stats()})
	})

	// Stateless solver + tournament stats (public)
	s.r.Post("/solve", s.handleSolve)
	s.r.Get("/stats/tiers", s.handleTierStats)

	// Matches and simulations: OPTIONAL AUTH (guests can play)
	s.r.Group(func(r chi.Router) {
		r.Use(s.auth.Optional)
		s.mountMatch(r)
		s.mountDaily(r)
	})

	// Auth + profile/stats
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusOf maps engine and store errors to status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, game.ErrUnknownPlayer):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotYourTurn), errors.Is(err, game.ErrFinished),
		errors.Is(err, errNothingLeft), errors.Is(err, errNoSession):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidGuess), errors.Is(err, game.ErrInvalidConfig),
		errors.Is(err, game.ErrInvalidState), errors.Is(err, solver.ErrUnknownTier),
		errors.Is(err, keywords.ErrPoolTooSmall), errors.Is(err, arena.ErrInvalidBenchmark),
		errors.Is(err, errHintKind):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeGameError(w http.ResponseWriter, err error) {
	switch status := statusOf(err); status {
	case http.StatusNotFound:
		writeError(w, status, "not_found")
	case http.StatusServiceUnavailable:
		writeError(w, status, "timeout")
	case http.StatusInternalServerError:
		log.Error().Err(err).Msg("request failed")
		writeError(w, status, "server_error")
	default:
		writeError(w, status, err.Error())
	}
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return false
	}
	return true
}

// identity returns the caller's seat ID and display name: the signed-in user
// or the anonymous cookie.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (id, name string) {
	if p := auth.FromContext(r.Context()); p != nil {
		return p.ID, p.Username
	}
	return s.auth.EnsureAnonID(w, r), "guest"
}

// newRand returns an independently seeded source for one request.
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// solverOptions returns the configured strategy options with a fresh source.
func (s *Server) solverOptions(rng *rand.Rand) solver.Options {
	o := s.cfg.Solver.Options()
	o.Rand = rng
	o.Logger = log.Logger
	return o
}

// record persists a finished match on behalf of seatID. Failures are logged
// and otherwise ignored; the match result has already been shown.
func (s *Server) record(ctx context.Context, m *game.Match, seatID string) {
	res := store.NewResult(m, seatID)
	if p := auth.FromContext(ctx); p != nil && p.ID == seatID {
		res.UserID = p.ID
	} else {
		res.AnonymousID = seatID
	}
	if err := s.results.Record(ctx, res); err != nil {
		log.Warn().Err(err).Str("match", m.ID).Msg("record result")
	}
}
