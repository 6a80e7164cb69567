package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/symbiote-voice/internal/arbiter"
	"github.com/danielpatrickdp/symbiote-voice/internal/bridge"
	"github.com/danielpatrickdp/symbiote-voice/internal/chaos"
	"github.com/danielpatrickdp/symbiote-voice/internal/config"
	"github.com/danielpatrickdp/symbiote-voice/internal/dialogue"
	"github.com/danielpatrickdp/symbiote-voice/internal/dream"
	"github.com/danielpatrickdp/symbiote-voice/internal/logging"
	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/store"
	"github.com/danielpatrickdp/symbiote-voice/internal/tick"
	"github.com/danielpatrickdp/symbiote-voice/internal/voice"
)

const tickBacklog = 256

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and the game bridge",
		Long: `Opens the progress store, loads the dialogue corpus, starts the tick loop
and serves the bridge until SIGINT or SIGTERM.

When corpus_path is set the file is watched and reloaded on change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

// #region serve

func (a *app) serve(ctx context.Context) error {
	var lis net.Listener
	if a.cfg.BridgeAddr != "" {
		var err error
		if lis, err = net.Listen("tcp", a.cfg.BridgeAddr); err != nil {
			return fmt.Errorf("listen %s: %w", a.cfg.BridgeAddr, err)
		}
	}
	return runEngine(ctx, a.cfg, a.logger, lis)
}

// runEngine wires the engine and runs it until ctx is done. A nil lis runs
// without the bridge; otherwise runEngine owns lis and closes it on return.
func runEngine(ctx context.Context, cfg config.Config, logger *zap.Logger, lis net.Listener) error {
	if lis != nil {
		defer lis.Close()
	}

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if err := logging.EnsureSchema(st.DB()); err != nil {
		return err
	}

	lines := dialogue.DefaultCorpus()
	if cfg.CorpusPath != "" {
		if lines, err = dialogue.LoadCorpus(cfg.CorpusPath); err != nil {
			return err
		}
	}
	repo := dialogue.NewRepository(lines)

	voiceCfg, err := cfg.VoiceConfig()
	if err != nil {
		return err
	}
	speaker := logger.Named("voice")
	v := voice.NewService(voiceCfg, repo, func(player observation.PlayerID, s voice.StyledText) {
		speaker.Info("say",
			zap.Stringer("player", player),
			zap.String("line", s.LineKey),
			zap.Stringer("tier", s.Tier),
			zap.String("text", s.Text),
		)
	}, speaker)

	arbCfg := arbiter.DefaultConfig()
	arbCfg.Policy = cfg.Policy().Advance
	suppressor := chaos.New(cfg.ChaosConfig())
	arb := arbiter.New(arbCfg, st, repo, v, suppressor, st.DB(), logger.Named("arbiter"))
	dreams := dream.New(cfg.DreamConfig(), st, repo, v, st.DB(), logger.Named("dream"))

	loop := tick.NewLoop(cfg.TickInterval(), tickBacklog, logger.Named("tick"))

	bridgeAddr := ""
	var srv *grpc.Server
	if lis != nil {
		bridgeAddr = lis.Addr().String()
		srv = grpc.NewServer()
		bridge.Register(srv, bridge.NewServer(loop, arb, dreams, st, logger.Named("bridge")))
	}

	logger.Info("symbiote ready",
		zap.String("db", cfg.DBPath),
		zap.String("bridge", bridgeAddr),
		zap.Int("lines", repo.Len()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })

	if cfg.CorpusPath != "" {
		g.Go(func() error { return dialogue.Watch(gctx, cfg.CorpusPath, repo, logger.Named("corpus")) })
	}

	if srv != nil {
		g.Go(func() error {
			if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("bridge serve: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			srv.GracefulStop()
			return nil
		})
	}

	err = g.Wait()
	// The loop has stopped, so nothing else touches transient state.
	tracked := suppressor.Tracked()
	arb.ClearAll()
	logger.Info("symbiote stopped", zap.Int("chaos_windows_cleared", tracked))
	return err
}

// #endregion serve
