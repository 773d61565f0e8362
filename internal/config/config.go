// internal/config/config.go
//
// Process configuration: environment variables (optionally from a .env file)
// plus an optional YAML file with solver policy overrides.
//
// Environment variables:
//
//	PORT                   listen port (5175)
//	LOG_LEVEL              zerolog level (info)
//	DB_PATH                sqlite file (./data/app.db)
//	JWT_SECRET             HS256 signing key (dev_secret_change_me)
//	JWT_EXPIRES_DAYS       token lifetime (14)
//	COOKIE_NAME            auth cookie (deduction_token)
//	CLIENT_ORIGIN          CORS origin (http://localhost:5173)
//	NODE_ENV               "production" enables Secure cookies
//	DAILY_SALT             daily puzzle HMAC key (local_dev_salt)
//	KEYWORDS_FILE          keyword pool, empty = embedded
//	SOLVER_HYPOTHESIS_CAP  hypotheses per enumeration (100)
//	SOLVER_MAX_NODES       search nodes per enumeration (200000)
//	SOLVER_MAX_CANDIDATES  entropy candidates per turn (32)
//	POLICY_FILE            YAML policy overrides, empty = defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AsyncSite/deduction-server/internal/solver"
)

// Config is the resolved process configuration.
type Config struct {
	Port         string
	LogLevel     string
	DBPath       string
	JWTSecret    string
	JWTDays      int
	CookieName   string
	ClientOrigin string
	Production   bool
	DailySalt    string
	KeywordsFile string
	PolicyFile   string
	Solver       SolverConfig
}

// SolverConfig is the part of the configuration handed to strategies.
type SolverConfig struct {
	Limits        solver.Limits `yaml:"limits"`
	MaxCandidates int           `yaml:"max_candidates"`
	Policy        solver.Policy `yaml:"policy"`
}

// Options turns the solver configuration into strategy options. Rand and
// Logger are left for the caller.
func (s SolverConfig) Options() solver.Options {
	return solver.Options{Policy: s.Policy, Limits: s.Limits, MaxCandidates: s.MaxCandidates}
}

// Load reads .env (if present) and the environment, then applies POLICY_FILE.
func Load() (Config, error) {
	_ = godotenv.Load()

	c := Config{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DBPath:       getEnv("DB_PATH", "./data/app.db"),
		JWTSecret:    getEnv("JWT_SECRET", "dev_secret_change_me"),
		CookieName:   getEnv("COOKIE_NAME", "deduction_token"),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:   os.Getenv("NODE_ENV") == "production",
		DailySalt:    getEnv("DAILY_SALT", "local_dev_salt"),
		KeywordsFile: os.Getenv("KEYWORDS_FILE"),
		PolicyFile:   os.Getenv("POLICY_FILE"),
		Solver: SolverConfig{
			Limits:        solver.DefaultLimits(),
			MaxCandidates: solver.DefaultMaxCandidates,
			Policy:        solver.DefaultPolicy(),
		},
	}
	var err error
	if c.JWTDays, err = getInt("JWT_EXPIRES_DAYS", 14); err != nil {
		return c, err
	}
	if c.Solver.Limits.Cap, err = getInt("SOLVER_HYPOTHESIS_CAP", solver.DefaultHypothesisCap); err != nil {
		return c, err
	}
	if c.Solver.Limits.MaxNodes, err = getInt("SOLVER_MAX_NODES", solver.DefaultMaxNodes); err != nil {
		return c, err
	}
	if c.Solver.MaxCandidates, err = getInt("SOLVER_MAX_CANDIDATES", solver.DefaultMaxCandidates); err != nil {
		return c, err
	}
	if c.PolicyFile != "" {
		if c.Solver, err = LoadSolverFile(c.PolicyFile, c.Solver); err != nil {
			return c, err
		}
	}
	if err := c.Solver.Validate(); err != nil {
		return c, fmt.Errorf("solver config: %w", err)
	}
	return c, nil
}

// LoadSolverFile overlays a YAML file on base. Keys missing from the file
// keep their value from base.
//
//	limits:
//	  hypothesis_cap: 100
//	  max_nodes: 200000
//	max_candidates: 32
//	policy:
//	  explore_until: 3
//	  balanced_until: 7
//	  reveal_after_turn: 10
//	  close_margin: 1
//	  balanced_probability_weight: 0.6
func LoadSolverFile(path string, base SolverConfig) (SolverConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read policy file: %w", err)
	}
	return ParseSolver(b, base)
}

// ParseSolver is LoadSolverFile on an in-memory document.
func ParseSolver(doc []byte, base SolverConfig) (SolverConfig, error) {
	out := base
	if err := yaml.Unmarshal(doc, &out); err != nil {
		return base, fmt.Errorf("parse policy: %w", err)
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}

// Validate rejects a policy the selector cannot use and a hypothesis cap
// that would leave every enumeration empty.
func (s SolverConfig) Validate() error {
	if err := s.Policy.Validate(); err != nil {
		return err
	}
	if s.Limits.Cap <= 0 {
		return errors.New("solver: hypothesis cap must be > 0")
	}
	return nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
