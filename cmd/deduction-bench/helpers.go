package main

import (
	"github.com/rs/zerolog/log"

	"github.com/AsyncSite/deduction-server/internal/config"
	"github.com/AsyncSite/deduction-server/internal/solver"
)

// solverConfig returns the default solver configuration with --policy applied.
func solverConfig() (config.SolverConfig, error) {
	sc := config.SolverConfig{
		Limits:        solver.DefaultLimits(),
		MaxCandidates: solver.DefaultMaxCandidates,
		Policy:        solver.DefaultPolicy(),
	}
	if rootFlags.policy == "" {
		return sc, nil
	}
	return config.LoadSolverFile(rootFlags.policy, sc)
}

// solverOptions is solverConfig as strategy options, logging to the CLI logger.
func solverOptions() (solver.Options, error) {
	sc, err := solverConfig()
	if err != nil {
		return solver.Options{}, err
	}
	opts := sc.Options()
	opts.Logger = log.Logger
	return opts, nil
}
