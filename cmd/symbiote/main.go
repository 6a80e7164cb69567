package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/symbiote-voice/internal/config"
	"github.com/danielpatrickdp/symbiote-voice/internal/logging"
)

// #region main

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region root

// app carries state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "symbiote",
		Short: "Symbiote observation and voice arbitration engine",
		Long: `symbiote watches player events, decides whether the symbiote speaks,
and escalates dreams for players who stop making progress.

Configuration is read from --config (TOML) and SYMBIOTE_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Logging.Level = "debug"
			}
			logger, err := logging.NewLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "symbiote.toml", "path to TOML config")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(a),
		newInspectCmd(a),
		newReplayCmd(a),
		newExportCmd(a),
	)
	return root
}

// dbPath returns the --db flag when set, else the configured path.
func (a *app) dbPath(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.DBPath
}

// #endregion root
