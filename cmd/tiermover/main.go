package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tiermover/pkg/config"
	"tiermover/pkg/metrics"
	"tiermover/pkg/mover"
	"tiermover/pkg/namespace"
	"tiermover/pkg/planner"
	"tiermover/pkg/policy"
	"tiermover/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tiermover",
		Short: "Storage-tiering move action engine",
		Long: `Relocates a file tree's block replicas across storage tiers to satisfy
a storage policy, running each move as an independent background job with
live, pollable progress.`,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(
		moveCmd(),
		policiesCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func moveCmd() *cobra.Command {
	var (
		layoutFile   string
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "move <path>=<policy> [<path>=<policy>...]",
		Short: "Run tiering jobs against a simulated namespace and poll their progress",
		Long: `Seeds an in-memory namespace from a layout file, then starts one move
job per path=policy pair. All jobs run concurrently; their progress is
polled and rendered until every job reaches a terminal state.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(verbose)
			defer logger.Sync()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			jobs, err := parseJobArgs(args)
			if err != nil {
				return err
			}

			ns := namespace.New(cfg.Namespace.BlockSize, logger)
			if err := seedLayout(ns, layoutFile); err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			var moverMetrics *metrics.MoverMetrics
			if cfg.Metrics.Enabled {
				moverMetrics = metrics.NewMoverMetrics(registry)
				go metrics.Serve(cfg.Metrics.Address, registry, logger)
			}

			mv := mover.NewLocalMover(ns, logger,
				mover.WithRetry(uint64(cfg.Mover.RetryAttempts), time.Duration(cfg.Mover.RetryBackoffMs)*time.Millisecond),
				mover.WithTransferDelay(time.Duration(cfg.Mover.TransferDelayMs)*time.Millisecond),
			)
			pl := planner.New(ns, logger)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			actions := make([]*mover.MoveAction, 0, len(jobs))
			for _, job := range jobs {
				action := mover.New(job.path, job.policy, pl, mv, logger,
					mover.WithConcurrency(cfg.Mover.TaskConcurrency),
					mover.WithMetrics(moverMetrics),
				)
				action.Start(ctx)
				actions = append(actions, action)
			}

			pollAndRender(ctx, actions, pollInterval)

			failed := 0
			for _, action := range actions {
				if action.Status().State == mover.StateFailed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d move jobs failed", failed, len(actions))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&layoutFile, "layout", "l", "", "JSON file describing the namespace to seed (required)")
	cmd.Flags().DurationVarP(&pollInterval, "poll", "p", 500*time.Millisecond, "status poll interval")
	cmd.MarkFlagRequired("layout")

	return cmd
}

func policiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List the built-in storage policies",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(renderPolicyTable())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Tiermover Storage Tiering Engine v0.1.0")
		},
	}
}

type jobArg struct {
	path   string
	policy types.PolicyID
}

func parseJobArgs(args []string) ([]jobArg, error) {
	jobs := make([]jobArg, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid job %q, expected <path>=<policy>", arg)
		}
		id := types.PolicyID(strings.ToUpper(parts[1]))
		if _, err := policy.Resolve(id); err != nil {
			return nil, err
		}
		jobs = append(jobs, jobArg{path: parts[0], policy: id})
	}
	return jobs, nil
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.LoadFromEnv(), nil
}

func setupLogger(verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, _ := config.Build()
	return logger
}
