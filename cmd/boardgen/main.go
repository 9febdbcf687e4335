// Command boardgen generates one balanced board from the command line.
//
// Examples:
//
//	boardgen -p 4
//	boardgen -p 6 --gold --seed 42 -o board.png
//	boardgen -p 3.5 --bonus=false --json
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/talgya/turbo-catan/internal/board"
	"github.com/talgya/turbo-catan/internal/entropy"
	"github.com/talgya/turbo-catan/internal/render"
)

type genOptions struct {
	players     float64
	bonus       bool
	gold        bool
	independent bool
	seed        int64
	output      string
	asJSON      bool
	verbose     bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var opts genOptions

	cmd := &cobra.Command{
		Use:   "boardgen",
		Short: "Generate a balanced hex board",
		Long: `Generate a balanced hex board for any number of players.

The seed is always printed; pass it back with --seed to reproduce a board.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), opts.verbose)
			if !cmd.Flags().Changed("seed") {
				opts.seed = entropy.CryptoSeed()
			}
			return runGen(stdout, opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.players, "players", "p", 4, "Number of players (fractional counts allowed)")
	cmd.Flags().BoolVar(&opts.bonus, "bonus", true, "Use the bonus roll table")
	cmd.Flags().BoolVar(&opts.gold, "gold", false, "Add gold as a sixth resource")
	cmd.Flags().BoolVar(&opts.independent, "independent", false, "Draw each resource's rolls independently instead of partitioning one bag")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed (drawn from crypto/rand when omitted)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the rendered board to this PNG file")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the board as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	return cmd
}

// setupLogging logs as text to a terminal and as JSON otherwise.
func setupLogging(w io.Writer, verbose bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func runGen(stdout io.Writer, opts genOptions) error {
	cfg := board.DefaultGenConfig(opts.players, opts.bonus)
	if opts.gold {
		cfg = cfg.WithGold()
	}
	if opts.independent {
		cfg.Strategy = board.BalanceIndependent
	}

	gen, err := board.NewGenerator(cfg, rand.New(rand.NewSource(opts.seed)))
	if err != nil {
		return err
	}
	b, err := gen.Generate()
	if err != nil {
		return fmt.Errorf("seed %d: %w", opts.seed, err)
	}
	slog.Debug("board generated",
		"seed", opts.seed,
		"balance_attempts", b.Stats.BalanceAttempts,
		"placement_attempts", b.Stats.PlacementAttempts,
		"elapsed", b.Stats.Elapsed,
	)

	if opts.output != "" {
		var buf bytes.Buffer
		if err := render.NewRenderer(render.DefaultOptions()).EncodePNG(&buf, b.All()); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
		slog.Info("board written", "path", opts.output, "size", humanize.Bytes(uint64(buf.Len())))
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Seed  int64        `json:"seed"`
			Board *board.Board `json:"board"`
		}{opts.seed, b})
	}
	printSummary(stdout, opts.seed, b)
	return nil
}

func printSummary(w io.Writer, seed int64, b *board.Board) {
	fmt.Fprintf(w, "players %v  seed %d  rings %d  tiles %d (+%d border)\n",
		b.Players, seed, b.Rings, len(b.Tiles), len(b.Border))
	counts := board.CategoryCounts(b.Tiles)
	for _, c := range board.AllCategories {
		if counts[c] == 0 {
			continue
		}
		if score, ok := b.Stats.Scores[c]; ok {
			fmt.Fprintf(w, "  %-7s %2d tiles  difficulty %d\n", c, counts[c], score)
		} else {
			fmt.Fprintf(w, "  %-7s %2d tiles\n", c, counts[c])
		}
	}
	fmt.Fprintf(w, "balanced in %d attempt(s), placed in %d, %s\n",
		b.Stats.BalanceAttempts, b.Stats.PlacementAttempts, b.Stats.Elapsed.Round(time.Microsecond))
	for _, t := range b.Tiles {
		fmt.Fprintln(w, " ", t)
	}
}
