package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cliApp := newCLIApp()
	cliApp.Writer = &stdout
	cliApp.ErrWriter = &stderr
	err := cliApp.Run(append([]string{"aphorism"}, args...))
	return stdout.String(), err
}

func TestSpread_SeedIsReproducible(t *testing.T) {
	first, err := run(t, "--seed", "42", "spread", "--spread", "celtic-cross", "what", "now")
	require.NoError(t, err)
	second, err := run(t, "--seed", "42", "spread", "--spread", "celtic-cross", "what", "now")
	require.NoError(t, err)
	require.Equal(t, first, second)

	var view spreadView
	require.NoError(t, json.Unmarshal([]byte(first), &view))
	require.Len(t, view.Cards, 10)
	require.Equal(t, 1, view.Cards[0].Position)
	require.NotEmpty(t, view.Cards[0].Slot)

	seen := make(map[string]bool)
	for _, c := range view.Cards {
		require.False(t, seen[c.ID], "card %s drawn twice", c.ID)
		seen[c.ID] = true
	}
}

func TestSpread_UnknownSpread(t *testing.T) {
	_, err := run(t, "spread", "--spread", "nope")
	require.Error(t, err)
}

func TestDraw(t *testing.T) {
	out, err := run(t, "--style", "lotus", "draw", "--n", "3")
	require.NoError(t, err)

	var view drawView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Len(t, view.Cards, 3)
	require.Equal(t, 75, view.Remaining)
	require.NotEmpty(t, view.SessionID)
	require.Contains(t, view.Cards[0].ImageURL, "/lotus/")

	_, err = run(t, "draw", "--n", "11")
	require.Error(t, err)
}

func TestDraw_PersistentSession(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "--data-dir", dir, "draw", "--n", "2")
	require.NoError(t, err)
	var first drawView
	require.NoError(t, json.Unmarshal([]byte(out), &first))

	out, err = run(t, "--data-dir", dir, "draw", "--session", first.SessionID, "--n", "2")
	require.NoError(t, err)
	var second drawView
	require.NoError(t, json.Unmarshal([]byte(out), &second))

	require.Equal(t, first.SessionID, second.SessionID)
	require.Equal(t, 74, second.Remaining)
	for _, a := range first.Cards {
		for _, b := range second.Cards {
			require.NotEqual(t, a.ID, b.ID, "session redealt a card")
		}
	}

	_, err = run(t, "draw", "--session", first.SessionID)
	require.Error(t, err, "session is unknown without the data dir")
}

func TestDaily(t *testing.T) {
	out, err := run(t, "daily", "--date", "2025-01-01")
	require.NoError(t, err)

	var view struct {
		Date string   `json:"date"`
		Card cardView `json:"card"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Equal(t, "2025-01-01", view.Date)
	require.Equal(t, "14", view.Card.ID)
	require.Equal(t, "reversed", string(view.Card.Orientation))

	_, err = run(t, "daily", "--date", "tomorrow")
	require.Error(t, err)
}

func TestConsult(t *testing.T) {
	out, err := run(t, "consult", "ab")
	require.NoError(t, err)

	var lot struct {
		SystemID     string `json:"system_id"`
		Personalized bool   `json:"personalized"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &lot))
	require.Equal(t, "guanyin", lot.SystemID)
	require.True(t, lot.Personalized)

	again, err := run(t, "consult", "ba")
	require.NoError(t, err)
	require.Equal(t, out, again, "character sums ignore order")
}

func TestStatsAndSpreads(t *testing.T) {
	out, err := run(t, "stats")
	require.NoError(t, err)
	require.Contains(t, out, `"total_lots": 5`)

	out, err = run(t, "spreads")
	require.NoError(t, err)
	require.Contains(t, out, `"celtic-cross"`)
}

func TestInvalidStyle(t *testing.T) {
	_, err := run(t, "--style", "noir", "daily")
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	_, err := run(t, "draw", "--session", "01JAAAAAAAAAAAAAAAAAAAAAAA")
	require.Error(t, err)
	require.Equal(t, 2, exitCode(err), "unknown session")

	_, err = run(t, "spread", "--spread", "nope")
	require.Equal(t, 2, exitCode(err), "unknown spread")

	_, err = run(t, "draw", "--n", "11")
	require.Equal(t, 1, exitCode(err), "invalid n")

	_, err = run(t, "daily", "--date", "tomorrow")
	require.Equal(t, 1, exitCode(err), "bad date")

	require.Equal(t, 1, exitCode(errors.New("boom")))
	require.Equal(t, 0, exitCode(nil))
}
