package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AsyncSite/deduction-server/internal/arena"
	"github.com/AsyncSite/deduction-server/internal/game"
	"github.com/AsyncSite/deduction-server/internal/keywords"
	"github.com/AsyncSite/deduction-server/internal/solver"
)

var runFlags struct {
	tiers    []string
	games    int
	preset   string
	seed     uint64
	parallel int
	keywords string
	jsonOut  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a tournament between solver tiers",
	Long: `Run plays --games all-AI matches with one seat per --tiers entry and
prints win rates and turn statistics per tier. Seats rotate every game.
The same --seed always produces the same results.`,
	RunE: runBenchmark,
}

func init() {
	f := runCmd.Flags()
	f.StringSliceVar(&runFlags.tiers, "tiers", []string{"master", "logical"}, "Tiers to seat, in order (random, frequency, logical, master)")
	f.IntVar(&runFlags.games, "games", 200, "Number of matches")
	f.StringVar(&runFlags.preset, "preset", "intermediate", "Match preset (beginner, intermediate, advanced)")
	f.Uint64Var(&runFlags.seed, "seed", 1, "Tournament seed")
	f.IntVar(&runFlags.parallel, "parallel", 0, "Concurrent matches (0 = GOMAXPROCS)")
	f.StringVar(&runFlags.keywords, "keywords", "", "Keyword pool file (default: embedded pool)")
	f.BoolVar(&runFlags.jsonOut, "json", false, "Print the summary as JSON")
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
	match, ok := game.Presets[strings.ToLower(runFlags.preset)]
	if !ok {
		return fmt.Errorf("unknown preset %q", runFlags.preset)
	}
	tiers := make([]solver.Tier, 0, len(runFlags.tiers))
	for _, name := range runFlags.tiers {
		t, err := solver.ParseTier(name)
		if err != nil {
			return err
		}
		tiers = append(tiers, t)
	}
	opts, err := solverOptions()
	if err != nil {
		return err
	}
	if err := keywords.Init(runFlags.keywords); err != nil {
		return fmt.Errorf("load keywords: %w", err)
	}

	sum, err := arena.Benchmark(cmd.Context(), arena.BenchmarkConfig{
		Match:    match,
		Tiers:    tiers,
		Games:    runFlags.games,
		Seed:     runFlags.seed,
		Parallel: runFlags.parallel,
		Pool:     keywords.Default(),
		Options:  opts,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runFlags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	fmt.Fprintf(out, "%d games, preset %s, seed %d, %s\n\n",
		sum.Games, runFlags.preset, runFlags.seed, sum.Elapsed.Round(1e6))
	return printSummary(out, sum)
}

func printSummary(w io.Writer, sum arena.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "tier\tgames\twins\twin%\tmean\tmedian\tstddev\tmin\tmax\t")
	for _, t := range sum.Tiers {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\t%.2f\t%.1f\t%.2f\t%.0f\t%.0f\t\n",
			t.Tier, t.Games, t.Wins, 100*t.WinRate,
			t.MeanTurns, t.MedianTurns, t.StdDevTurns, t.MinTurns, t.MaxTurns)
	}
	fmt.Fprintf(tw, "unwon\t%d\t\t\t\t\t\t\t\t\n", sum.Unwon)
	return tw.Flush()
}
