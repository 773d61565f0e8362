package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AsyncSite/deduction-server/internal/arena"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestRun_JSON(t *testing.T) {
	out := execute(t, "", "run",
		"--tiers", "master,random", "--games", "6", "--preset", "beginner",
		"--seed", "3", "--parallel", "2", "--json")

	var sum arena.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 6, sum.Games)
	require.Len(t, sum.Tiers, 2)
	assert.Equal(t, "master", sum.Tiers[0].Tier)
	assert.Equal(t, "random", sum.Tiers[1].Tier)
	wins := sum.Tiers[0].Wins + sum.Tiers[1].Wins
	assert.Equal(t, 6, wins+sum.Unwon)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, arena.Summary{
		Games: 2,
		Tiers: []arena.TierSummary{
			{Tier: "master", Games: 2, Wins: 2, WinRate: 1, MeanTurns: 3, MedianTurns: 3, MinTurns: 3, MaxTurns: 3},
			{Tier: "logical", Games: 2},
		},
		Elapsed: time.Second,
	}))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "win%")
	assert.Contains(t, lines[1], "master")
	assert.Contains(t, lines[1], "100.0")
	assert.Contains(t, lines[2], "logical")
	assert.Contains(t, lines[3], "unwon")
}

func TestSolve_Stdin(t *testing.T) {
	state := `{
		"keywords": ["alpha", "bravo", "charlie", "delta"],
		"answerCount": 2,
		"playerId": "me",
		"previousGuesses": [{"actorId": "me", "guess": [0, 1], "correctCount": 0}],
		"currentTurn": 2
	}`
	out := execute(t, state, "solve", "--tier", "master")
	assert.Contains(t, out, "phase:")
	assert.Contains(t, out, "charlie")
	assert.Contains(t, out, "delta")
	assert.NotContains(t, out, "alpha")
}
