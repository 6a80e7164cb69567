package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/symbiote-voice/internal/logging"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/replay"
	"github.com/danielpatrickdp/symbiote-voice/internal/store"
)

type exportFlags struct {
	db     string
	player string
	out    string
	last   int
}

func newExportCmd(a *app) *cobra.Command {
	f := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a player's logged decisions as a replay fixture",
		Long: `Writes the --last most recent decisions for --player as replay steps.

Decisions older than the window are folded into the fixture's start_state, so
the player's concepts and dream level match what the engine held. Voice
cooldowns and chaos windows are not logged and start empty on replay.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.export(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVar(&f.db, "db", "", "path to symbiote.db (default from config)")
	cmd.Flags().StringVar(&f.player, "player", "", "player UUID")
	cmd.Flags().StringVar(&f.out, "out", "", "output fixture JSON path")
	cmd.Flags().IntVar(&f.last, "last", 50, "number of most recent decisions to export (0 for all)")
	_ = cmd.MarkFlagRequired("player")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// #region export

func (a *app) export(w io.Writer, f *exportFlags) error {
	player, err := observation.ParsePlayerID(f.player)
	if err != nil {
		return fmt.Errorf("bad --player: %w", err)
	}

	st, err := store.NewSQLiteStore(a.dbPath(f.db))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()
	if err := logging.EnsureSchema(st.DB()); err != nil {
		return err
	}

	// a negative limit reads the whole history
	entries, err := logging.RecentDecisions(st.DB(), player.String(), -1)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no decisions logged for %s", player)
	}
	slices.Reverse(entries)

	split := 0
	if f.last > 0 && f.last < len(entries) {
		split = len(entries) - f.last
	}
	fixture, err := replay.FromDecisionWindow(player.String(), entries[:split], entries[split:], a.cfg.Policy().Advance)
	if err != nil {
		return err
	}
	if err := replay.WriteFixture(f.out, fixture); err != nil {
		return err
	}

	fmt.Fprintf(w, "Wrote fixture to %s (%d steps)\n", f.out, len(fixture.Steps))
	return nil
}

// #endregion export
