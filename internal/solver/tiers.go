// internal/solver/tiers.go
//
// Strategy tiers available to AI players. The set is closed: a Tier is parsed
// once from configuration and New builds the matching Strategy.
//
//	random     uniform choice among non-excluded keywords
//	frequency  single-pass frequency scoring
//	logical    single-pass rule propagation + average probability
//	master     full engine: fixed-point knowledge, hypothesis search,
//	           phase selector, entropy/probability synthesis
//
// Strategies are not safe for concurrent use: each owns a *rand.Rand.
package solver

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AsyncSite/deduction-server/internal/game"
)

// ErrUnknownTier is returned by ParseTier.
var ErrUnknownTier = errors.New("unknown strategy tier")

// Strategy chooses one guess per turn from a State. The returned guess always
// holds exactly AnswerCount distinct in-range indices; an error is returned
// only when the State itself is structurally unsatisfiable.
type Strategy interface {
	Name() string
	SelectGuess(st *game.State) ([]int, error)
}

// Tier identifies a built-in strategy.
type Tier int

const (
	TierRandom Tier = iota
	TierFrequency
	TierLogical
	TierMaster
)

var tierNames = map[Tier]string{
	TierRandom:    "random",
	TierFrequency: "frequency",
	TierLogical:   "logical",
	TierMaster:    "master",
}

// Lobby difficulty names accepted as aliases.
var tierAliases = map[string]Tier{
	"random":           TierRandom,
	"easy":             TierRandom,
	"frequency":        TierFrequency,
	"medium":           TierFrequency,
	"logical":          TierLogical,
	"hard":             TierLogical,
	"master":           TierMaster,
	"strategic-master": TierMaster,
	"challenger":       TierMaster,
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MarshalText lets tiers appear by name in JSON and YAML.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText parses a tier name or alias.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTier maps a tier name or lobby alias to a Tier.
func ParseTier(s string) (Tier, error) {
	if t, ok := tierAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// Tiers lists every tier from weakest to strongest.
func Tiers() []Tier {
	return []Tier{TierRandom, TierFrequency, TierLogical, TierMaster}
}

// Options configures a strategy. Zero values are replaced by defaults.
type Options struct {
	Policy        Policy
	Limits        Limits
	MaxCandidates int
	Rand          *rand.Rand
	Logger        zerolog.Logger
}

// DefaultOptions returns the defaults with a randomly seeded source and a
// silent logger.
func DefaultOptions() Options {
	return Options{
		Policy:        DefaultPolicy(),
		Limits:        DefaultLimits(),
		MaxCandidates: DefaultMaxCandidates,
		Logger:        zerolog.Nop(),
	}
}

func (o Options) withDefaults() Options {
	if o.Policy == (Policy{}) {
		o.Policy = DefaultPolicy()
	}
	if o.Limits == (Limits{}) {
		o.Limits = DefaultLimits()
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = DefaultMaxCandidates
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return o
}

// New builds the strategy for tier.
func New(tier Tier, opts Options) (Strategy, error) {
	opts = opts.withDefaults()
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	switch tier {
	case TierRandom:
		return &randomTier{rng: opts.Rand}, nil
	case TierFrequency:
		return &frequencyTier{rng: opts.Rand}, nil
	case TierLogical:
		return &logicalTier{rng: opts.Rand}, nil
	case TierMaster:
		return NewMaster(opts), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(tier))
}
