package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AsyncSite/deduction-server/internal/game"
	"github.com/AsyncSite/deduction-server/internal/solver"
)

var solveFlags struct {
	file string
	tier string
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Pick the next guess for a saved game state",
	Long: `Solve reads a game state as JSON (--file, or stdin when omitted) and
prints the guess the chosen tier would make. The master tier also reports
its phase and hypothesis count.`,
	RunE: runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveFlags.file, "file", "", "State JSON file (default: stdin)")
	f.StringVar(&solveFlags.tier, "tier", "master", "Tier to ask")
}

func runSolve(cmd *cobra.Command, _ []string) error {
	var in io.Reader = cmd.InOrStdin()
	if solveFlags.file != "" {
		f, err := os.Open(solveFlags.file)
		if err != nil {
			return fmt.Errorf("open state: %w", err)
		}
		defer f.Close()
		in = f
	}
	var st game.State
	if err := json.NewDecoder(in).Decode(&st); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	tier, err := solver.ParseTier(solveFlags.tier)
	if err != nil {
		return err
	}
	opts, err := solverOptions()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if tier == solver.TierMaster {
		d, err := solver.NewMaster(opts).Decide(&st)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "phase:      %s\n", d.Phase)
		fmt.Fprintf(out, "hypotheses: %d", d.Hypotheses)
		if d.Capped {
			fmt.Fprint(out, " (capped)")
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "space:      %.0f\n", d.SearchSpace)
		printGuess(out, &st, d.Guess)
		return nil
	}

	s, err := solver.New(tier, opts)
	if err != nil {
		return err
	}
	guess, err := s.SelectGuess(&st)
	if err != nil {
		return err
	}
	printGuess(out, &st, guess)
	return nil
}

func printGuess(w io.Writer, st *game.State, guess []int) {
	fmt.Fprintln(w, "guess:")
	for _, i := range guess {
		fmt.Fprintf(w, "  %3d  %s\n", i, st.Keywords[i])
	}
}
