package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/symbiote-voice/internal/dialogue"
	"github.com/danielpatrickdp/symbiote-voice/internal/replay"
)

// errMismatch makes the command exit non-zero after the report is printed.
var errMismatch = errors.New("replay did not match expected results")

type replayFlags struct {
	corpus  string
	jsonOut bool
}

func newReplayCmd(a *app) *cobra.Command {
	f := &replayFlags{}
	cmd := &cobra.Command{
		Use:   "replay FIXTURE",
		Short: "Replay a fixture through an in-memory engine",
		Long: `Runs every step of a JSON fixture through a fresh arbiter and dream escalator,
prints per-step results and a summary, and fails when expected results differ.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.replay(cmd.OutOrStdout(), args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.corpus, "corpus", "", "corpus YAML (default: config corpus_path, else built-in)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

// #region replay

type replayOutput struct {
	Results    []replay.StepResult `json:"results"`
	Summary    summaryOutput       `json:"summary"`
	Mismatches []string            `json:"mismatches"`
}

type summaryOutput struct {
	Steps        int `json:"steps"`
	Spoken       int `json:"spoken"`
	CooledDown   int `json:"cooled_down"`
	Suppressed   int `json:"suppressed"`
	Silent       int `json:"silent"`
	UnknownLines int `json:"unknown_lines"`
	Dreams       int `json:"dreams"`
	DreamLevel   int `json:"final_dream_level"`
}

func (a *app) replay(w io.Writer, path string, f *replayFlags) error {
	fixture, err := replay.LoadFixture(path)
	if err != nil {
		return err
	}

	corpusPath := f.corpus
	if corpusPath == "" {
		corpusPath = a.cfg.CorpusPath
	}
	lines := dialogue.DefaultCorpus()
	if corpusPath != "" {
		if lines, err = dialogue.LoadCorpus(corpusPath); err != nil {
			return err
		}
	}

	results, summary, err := replay.Run(fixture, dialogue.NewRepository(lines), a.replayConfig())
	if err != nil {
		return err
	}
	mismatches := replay.Check(results, fixture.ExpectedResults)

	out := replayOutput{
		Results: results,
		Summary: summaryOutput{
			Steps:        summary.Steps,
			Spoken:       summary.Spoken,
			CooledDown:   summary.CooledDown,
			Suppressed:   summary.Suppressed,
			Silent:       summary.Silent,
			UnknownLines: summary.UnknownLines,
			Dreams:       summary.Dreams,
			DreamLevel:   summary.FinalTracker.DreamLevel(),
		},
		Mismatches: []string{},
	}
	for _, m := range mismatches {
		out.Mismatches = append(out.Mismatches, m.String())
	}

	if f.jsonOut {
		if err := printJSON(w, out); err != nil {
			return err
		}
	} else {
		printReplay(w, fixture.Description, out)
	}

	if len(mismatches) > 0 {
		return fmt.Errorf("%w: %d mismatches", errMismatch, len(mismatches))
	}
	return nil
}

// replayConfig builds the replay defaults from the loaded config.
func (a *app) replayConfig() replay.Config {
	cfg := replay.DefaultConfig()
	cfg.Arbiter.Policy = a.cfg.Policy().Advance
	cfg.Chaos = a.cfg.ChaosConfig()
	cfg.Dream = a.cfg.DreamConfig()
	if vc, err := a.cfg.VoiceConfig(); err == nil {
		cfg.Voice = vc
	}
	return cfg
}

func printReplay(w io.Writer, description string, out replayOutput) {
	if description != "" {
		fmt.Fprintf(w, "%s\n\n", description)
	}
	fmt.Fprintf(w, "%-12s  %-7s  %6s  %-6s  %-13s  %s\n", "Step", "Kind", "Tick", "Tier", "Outcome", "Line")
	fmt.Fprintf(w, "%-12s+-%-7s+-%6s+-%-6s+-%-13s+-%s\n",
		"------------", "-------", "------", "------", "-------------", "--------------------")
	for _, r := range out.Results {
		line := r.LineKey
		if line == "" {
			line = "-"
		}
		fmt.Fprintf(w, "%-12s  %-7s  %6d  %-6s  %-13s  %s\n", r.StepID, r.Kind, r.Tick, r.Tier, r.Outcome, line)
	}

	s := out.Summary
	fmt.Fprintf(w, "\nSteps: %d  Spoken: %d  Cooled down: %d  Suppressed: %d  Silent: %d  Unknown: %d\n",
		s.Steps, s.Spoken, s.CooledDown, s.Suppressed, s.Silent, s.UnknownLines)
	fmt.Fprintf(w, "Dreams: %d  Final dream level: %d\n", s.Dreams, s.DreamLevel)

	if len(out.Mismatches) == 0 {
		fmt.Fprintln(w, "\nAll expected results matched.")
		return
	}
	fmt.Fprintf(w, "\nMismatches:\n")
	for _, m := range out.Mismatches {
		fmt.Fprintf(w, "  %s\n", m)
	}
}

// #endregion replay
