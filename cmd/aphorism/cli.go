package main

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/clkhoo5211/aphorism/internal/adapters/decks"
	"github.com/clkhoo5211/aphorism/internal/adapters/lots"
	"github.com/clkhoo5211/aphorism/internal/adapters/sessions"
	"github.com/clkhoo5211/aphorism/internal/app"
	"github.com/clkhoo5211/aphorism/internal/domain"
	"github.com/clkhoo5211/aphorism/internal/ports"
)

const dateLayout = "2006-01-02"

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	cliApp := &cli.App{
		Name:    "aphorism",
		Usage:   "Tarot readings and temple oracle lots",
		Version: Version,
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "seed", Usage: "Seed for a reproducible draw (0 = random)"},
			&cli.StringFlag{Name: "style", Aliases: []string{"s"}, Usage: "Deck style: riderWaite|hero|lotus|mythic"},
			&cli.StringFlag{Name: "data-dir", EnvVars: []string{"DATA_DIR"}, Usage: "Keep sessions in a SQLite database under this directory"},
		},
		Commands: []*cli.Command{
			drawCmd(),
			spreadCmd(),
			dailyCmd(),
			consultCmd(),
			statsCmd(),
			spreadsCmd(),
		},
	}
	// main picks the exit code; Run must return the error instead of exiting.
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

func drawCmd() *cli.Command {
	return &cli.Command{
		Name:  "draw",
		Usage: "Draw loose cards, starting a new session unless --session is given",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "n", Value: 1, Usage: "Number of cards (1-10)"},
			&cli.StringFlag{Name: "session", Usage: "Session id to keep drawing from"},
		},
		Action: func(c *cli.Context) error {
			env, err := newEnv(c)
			if err != nil {
				return outputError(err)
			}
			defer env.close()

			id := c.String("session")
			if id == "" {
				info, err := env.tarot.StartSession(c.Context)
				if err != nil {
					return outputError(err)
				}
				id = info.ID
			}

			resp, err := env.tarot.DrawCards(c.Context, id, c.Int("n"))
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, drawView{
				SessionID: resp.SessionID,
				Cards:     cardViews(resp.Cards, env.style),
				Remaining: resp.Remaining,
			})
		},
	}
}

func spreadCmd() *cli.Command {
	return &cli.Command{
		Name:      "spread",
		Usage:     "Lay out a spread",
		ArgsUsage: "[question]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "spread", Value: app.DefaultSpreadID, Usage: "Spread id (see `aphorism spreads`)"},
			&cli.StringFlag{Name: "session", Usage: "Draw from an existing session deck"},
		},
		Action: func(c *cli.Context) error {
			env, err := newEnv(c)
			if err != nil {
				return outputError(err)
			}
			defer env.close()

			resp, err := env.tarot.ReadSpread(c.Context, app.ReadSpreadRequest{
				Question:  strings.Join(c.Args().Slice(), " "),
				SpreadID:  c.String("spread"),
				Style:     string(env.style),
				SessionID: c.String("session"),
			})
			if err != nil {
				return outputError(err)
			}

			view := spreadView{
				Spread:    resp.Spread.Name,
				Style:     resp.Style,
				SessionID: resp.SessionID,
				Cards:     make([]cardView, len(resp.Cards)),
			}
			for i, pc := range resp.Cards {
				view.Cards[i] = newCardView(pc.DrawnCard, resp.Style)
				view.Cards[i].Position = pc.Position
				view.Cards[i].Slot = pc.Slot.Name
			}
			return outputJSON(c, view)
		},
	}
}

func dailyCmd() *cli.Command {
	return &cli.Command{
		Name:  "daily",
		Usage: "Show the major arcana card of the day",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "Date as YYYY-MM-DD (default today)"},
		},
		Action: func(c *cli.Context) error {
			date := time.Now()
			if raw := c.String("date"); raw != "" {
				parsed, err := time.Parse(dateLayout, raw)
				if err != nil {
					return cli.Exit("date must be formatted as YYYY-MM-DD", 1)
				}
				date = parsed
			}

			env, err := newEnv(c)
			if err != nil {
				return outputError(err)
			}
			defer env.close()

			card, err := env.tarot.DailyCard(c.Context, date)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, struct {
				Date string   `json:"date"`
				Card cardView `json:"card"`
			}{date.Format(dateLayout), newCardView(card, env.style)})
		},
	}
}

func consultCmd() *cli.Command {
	return &cli.Command{
		Name:      "consult",
		Usage:     "Draw an oracle lot; the same question always gets the same lot",
		ArgsUsage: "[question]",
		Action: func(c *cli.Context) error {
			env, err := newEnv(c)
			if err != nil {
				return outputError(err)
			}
			defer env.close()

			resp, err := env.oracle.Consult(c.Context, strings.Join(c.Args().Slice(), " "))
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, struct {
				domain.Lot
				Personalized bool `json:"personalized"`
			}{resp.Lot, resp.Personalized})
		},
	}
}

func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Count oracle lots per system",
		Action: func(c *cli.Context) error {
			env, err := newEnv(c)
			if err != nil {
				return outputError(err)
			}
			defer env.close()

			stats, err := env.oracle.Stats(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, stats)
		},
	}
}

func spreadsCmd() *cli.Command {
	return &cli.Command{
		Name:  "spreads",
		Usage: "List available spreads",
		Action: func(c *cli.Context) error {
			env, err := newEnv(c)
			if err != nil {
				return outputError(err)
			}
			defer env.close()

			spreads, err := env.tarot.Spreads(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, spreads)
		},
	}
}

// env holds the services a command runs against.
type env struct {
	tarot  *app.TarotService
	oracle *app.OracleService
	style  domain.DeckStyle
	close  func()
}

func newEnv(c *cli.Context) (*env, error) {
	style, err := domain.ParseDeckStyle(c.String("style"))
	if err != nil {
		return nil, err
	}

	var store ports.SessionStore = sessions.NewMemoryStore()
	closeStore := func() {}
	if dir := c.String("data-dir"); dir != "" {
		sqlite, err := sessions.OpenSQLite(dir)
		if err != nil {
			return nil, err
		}
		store = sqlite
		closeStore = func() { _ = sqlite.Close() }
	}

	rng := newRNG(c.Int64("seed"))
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelWarn}))

	return &env{
		tarot: app.NewTarotService(decks.NewEmbeddedStore(), store, nil, rng, app.TarotOptions{
			Style:  style,
			Logger: logger,
		}),
		oracle: app.NewOracleService(lots.NewEmbeddedStore(), rng),
		style:  style,
		close:  closeStore,
	}, nil
}

func newRNG(seed int64) domain.RNG {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

type cardView struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Position    int                `json:"position,omitempty"`
	Slot        string             `json:"slot,omitempty"`
	Orientation domain.Orientation `json:"orientation"`
	Meaning     string             `json:"meaning"`
	ImageURL    string             `json:"image_url"`
}

type drawView struct {
	SessionID string     `json:"session_id"`
	Cards     []cardView `json:"cards"`
	Remaining int        `json:"remaining"`
}

type spreadView struct {
	Spread    string           `json:"spread"`
	Style     domain.DeckStyle `json:"style"`
	SessionID string           `json:"session_id,omitempty"`
	Cards     []cardView       `json:"cards"`
}

func newCardView(dc domain.DrawnCard, style domain.DeckStyle) cardView {
	d := dc.Display(style)
	return cardView{
		ID:          dc.ID,
		Name:        d.Name,
		Orientation: dc.Orientation(),
		Meaning:     dc.Meaning(),
		ImageURL:    d.ImageURL,
	}
}

func cardViews(cards []domain.DrawnCard, style domain.DeckStyle) []cardView {
	out := make([]cardView, len(cards))
	for i, dc := range cards {
		out[i] = newCardView(dc, style)
	}
	return out
}

// outputJSON writes v as indented JSON to the app's writer.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError wraps err in a cli.Exit. Missing sessions, spreads and decks exit with 2.
func outputError(err error) error {
	if app.IsNotFound(err) {
		return cli.Exit(err.Error(), 2)
	}
	return cli.Exit(err.Error(), 1)
}
