// internal/solver/policy.go
//
// Tunable thresholds of the master tier's phase selector, loadable from
// YAML or JSON and validated before use.
package solver

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid solver policy")

// Policy holds the tunable thresholds of the phase selector. None of them
// affect correctness; they shape how the master tier plays.
type Policy struct {
	// Turns up to and including ExploreUntil maximise information.
	ExploreUntil int `yaml:"explore_until" json:"exploreUntil"`
	// Turns after ExploreUntil up to BalancedUntil blend probability and
	// hypothesis frequency; later turns play aggressively.
	BalancedUntil int `yaml:"balanced_until" json:"balancedUntil"`
	// After this turn a fully solved answer is always submitted.
	RevealAfterTurn int `yaml:"reveal_after_turn" json:"revealAfterTurn"`
	// An opponent whose latest guess scored >= k-CloseMargin is close to winning.
	CloseMargin int `yaml:"close_margin" json:"closeMargin"`
	// Weight of the probability estimate in the balanced score; the
	// hypothesis frequency gets the rest.
	BalancedProbabilityWeight float64 `yaml:"balanced_probability_weight" json:"balancedProbabilityWeight"`
}

// DefaultPolicy returns the thresholds the master tier ships with.
func DefaultPolicy() Policy {
	return Policy{
		ExploreUntil:              3,
		BalancedUntil:             7,
		RevealAfterTurn:           10,
		CloseMargin:               1,
		BalancedProbabilityWeight: 0.6,
	}
}

// Validate checks the thresholds are ordered and in range.
func (p Policy) Validate() error {
	switch {
	case p.ExploreUntil < 0:
		return fmt.Errorf("%w: explore_until must be >= 0", ErrInvalidPolicy)
	case p.BalancedUntil < p.ExploreUntil:
		return fmt.Errorf("%w: balanced_until (%d) before explore_until (%d)", ErrInvalidPolicy, p.BalancedUntil, p.ExploreUntil)
	case p.RevealAfterTurn < 0:
		return fmt.Errorf("%w: reveal_after_turn must be >= 0", ErrInvalidPolicy)
	case p.CloseMargin < 0:
		return fmt.Errorf("%w: close_margin must be >= 0", ErrInvalidPolicy)
	case p.BalancedProbabilityWeight < 0 || p.BalancedProbabilityWeight > 1:
		return fmt.Errorf("%w: balanced_probability_weight must be in [0,1]", ErrInvalidPolicy)
	}
	return nil
}
