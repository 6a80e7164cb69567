package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/symbiote-voice/internal/logging"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
	"github.com/danielpatrickdp/symbiote-voice/internal/store"
)

type inspectFlags struct {
	db      string
	player  string
	tick    int64
	last    int
	jsonOut bool
}

func newInspectCmd(a *app) *cobra.Command {
	f := &inspectFlags{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show a player's progress and recent decisions",
		Long: `Prints the stored tracker for --player. Without --player, lists known players.

Stall scores are computed at --tick; by default the newest tick recorded for the player.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVar(&f.db, "db", "", "path to symbiote.db (default from config)")
	cmd.Flags().StringVar(&f.player, "player", "", "player UUID")
	cmd.Flags().Int64Var(&f.tick, "tick", -1, "tick to score stalls at")
	cmd.Flags().IntVar(&f.last, "last", 10, "number of recent decisions to show")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

// #region output-types

type inspectOutput struct {
	Player    string                  `json:"player"`
	Tick      int64                   `json:"tick"`
	Record    progress.Record         `json:"record"`
	Concepts  []conceptRow            `json:"concepts"`
	Decisions []logging.DecisionEntry `json:"decisions"`
}

type conceptRow struct {
	ConceptID string `json:"concept_id"`
	State     string `json:"state"`
	Score     int    `json:"score"`
}

// #endregion output-types

// #region inspect

func (a *app) inspect(w io.Writer, f *inspectFlags) error {
	st, err := store.NewSQLiteStore(a.dbPath(f.db))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()
	if err := logging.EnsureSchema(st.DB()); err != nil {
		return err
	}

	if f.player == "" {
		return listPlayers(w, st)
	}

	player, err := observation.ParsePlayerID(f.player)
	if err != nil {
		return fmt.Errorf("bad --player: %w", err)
	}
	tracker, err := st.Load(player)
	if err != nil {
		return err
	}
	decisions, err := logging.RecentDecisions(st.DB(), player.String(), f.last)
	if err != nil {
		return err
	}

	at := f.tick
	if at < 0 {
		at = max(tracker.LastProgressTick(), tracker.LastDreamTick())
		if len(decisions) > 0 {
			at = max(at, decisions[0].Tick)
		}
	}

	out := inspectOutput{
		Player:    player.String(),
		Tick:      at,
		Record:    progress.ToRecord(tracker),
		Concepts:  []conceptRow{},
		Decisions: decisions,
	}
	// threshold 0 keeps every concept, most stalled first
	for _, sig := range tracker.StalledSignals(at, 0) {
		out.Concepts = append(out.Concepts, conceptRow{
			ConceptID: sig.ConceptID,
			State:     string(sig.State),
			Score:     sig.CalculateStallScore(at),
		})
	}

	if f.jsonOut {
		return printJSON(w, out)
	}
	printInspect(w, out, tracker)
	return nil
}

func listPlayers(w io.Writer, st *store.SQLiteStore) error {
	players, err := st.Players()
	if err != nil {
		return err
	}
	if len(players) == 0 {
		fmt.Fprintln(w, "no players found")
		return nil
	}
	for _, p := range players {
		fmt.Fprintln(w, p)
	}
	return nil
}

func printInspect(w io.Writer, out inspectOutput, t progress.Tracker) {
	fmt.Fprintf(w, "Player:        %s\n", out.Player)
	fmt.Fprintf(w, "Dream level:   %d (%s)\n", t.DreamLevel(), t.Level().Suffix())
	fmt.Fprintf(w, "Last dream:    %d\n", t.LastDreamTick())
	fmt.Fprintf(w, "Last progress: %d\n", t.LastProgressTick())

	fmt.Fprintf(w, "\nConcepts (stall scored at tick %d):\n", out.Tick)
	if len(out.Concepts) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		fmt.Fprintf(w, "  %-28s  %-11s  %5s\n", "Concept", "State", "Stall")
		for _, r := range out.Concepts {
			fmt.Fprintf(w, "  %-28s  %-11s  %5d\n", r.ConceptID, r.State, r.Score)
		}
	}

	fmt.Fprintf(w, "\nRecent decisions:\n")
	if len(out.Decisions) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	fmt.Fprintf(w, "  %8s  %-7s  %-20s  %-6s  %-13s  %s\n", "Tick", "Kind", "Category", "Tier", "Outcome", "Line")
	for _, d := range out.Decisions {
		line := d.LineKey
		if line == "" {
			line = "-"
		}
		fmt.Fprintf(w, "  %8d  %-7s  %-20s  %-6s  %-13s  %s\n", d.Tick, d.Kind, d.Category, d.Tier, d.Outcome, line)
	}
}

// #endregion inspect

// #region helpers

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
