package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/internx-match/internal/accuracy"
	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/interview"
	"github.com/jonathan/internx-match/internal/llm"
	"github.com/jonathan/internx-match/internal/matching"
	"github.com/jonathan/internx-match/internal/scheduler"
	"github.com/jonathan/internx-match/internal/scoring"
	"github.com/jonathan/internx-match/internal/server"
	"github.com/jonathan/internx-match/internal/server/ratelimit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start an HTTP server exposing interview sessions, match scores and accuracy reports. With scheduler.enabled the daily accuracy snapshots are refreshed in the background.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg := rt.cfg
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	jwtConfig, err := config.NewJWTConfig(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	if err := cfg.RequireLLM(); err != nil {
		return err
	}

	client, err := llm.NewClient(ctx, llm.FromSettings(cfg.LLM), cfg.LLM.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}
	defer func() { _ = client.Close() }()

	scoreOpts := scoring.Options{
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
		Concurrency: cfg.LLM.Concurrency,
		RetryDelay:  scoring.DefaultOptions().RetryDelay,
	}
	rater, err := scoring.NewLLMRater(client, llm.TierLite)
	if err != nil {
		return fmt.Errorf("failed to create rater: %w", err)
	}
	rerater, err := scoring.NewLLMRater(client, llm.TierStandard)
	if err != nil {
		return fmt.Errorf("failed to create rater: %w", err)
	}
	scorer := scoring.NewScorer(rater, scoreOpts, rt.logger)
	rescorer := scoring.NewScorer(rerater, scoreOpts, rt.logger.Named("rescore"))

	aggregator := accuracy.NewAggregator(rt.store, cfg.Accuracy, rt.logger)
	srv, err := server.New(server.Config{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RateLimit:       ratelimit.FromSettings(cfg.RateLimit),
	}, server.Deps{
		Sessions: interview.NewManager(rt.store, scorer, cfg.Scoring, rt.logger).WithRescorer(rescorer),
		Matches:  matching.NewService(rt.store, cfg.Scoring, rt.logger),
		Accuracy: aggregator,
		Health:   rt.store,
		Tokens:   server.NewJWTService(jwtConfig).AsTokenValidator(),
		Logger:   rt.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(aggregator, cfg.Scheduler.Interval, rt.logger)
		g.Go(func() error { return sched.Start(gctx) })
	} else {
		rt.logger.Info("accuracy scheduler disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		rt.logger.Error("serve stopped with error", zap.Error(err))
		return err
	}
	return nil
}
