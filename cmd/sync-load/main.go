// Command sync-load drives a running leaderboard server with synthetic devices.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/mazeball/internal/syncload"
	"github.com/okian/mazeball/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

type options struct {
	cfg        syncload.Config
	logFormat  string
	runTimeout time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "sync-load:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "sync-load",
		Short: "Load and verify a MazeBall leaderboard server",
		Long: `Simulates many devices syncing best times and claiming nicknames
concurrently, then fetches /leaderboard/all and checks that every level keeps
one minimum per device, stays sorted, hides unnamed devices and never lists
one nickname for two devices.

Example:
  sync-load --url http://localhost:8080 --devices 500 --workers 32`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.cfg.BaseURL, "url", "http://localhost:8080", "base URL of the server")
	f.IntVar(&opts.cfg.Devices, "devices", syncload.DefaultDevices, "number of synthetic devices")
	f.IntVar(&opts.cfg.Levels, "levels", syncload.DefaultLevels, "number of levels played")
	f.IntVar(&opts.cfg.Rounds, "rounds", syncload.DefaultRounds, "sync calls per device")
	f.IntVarP(&opts.cfg.Workers, "workers", "w", runtime.NumCPU()*2, "concurrent workers")
	f.Float64Var(&opts.cfg.NameShare, "name-share", syncload.DefaultNameShare, "fraction of devices that claim a nickname")
	f.DurationVar(&opts.cfg.Timeout, "timeout", syncload.DefaultTimeout, "per request timeout")
	f.Uint64Var(&opts.cfg.Seed, "seed", 0, "random seed (0 picks one)")
	f.BoolVarP(&opts.cfg.Verbose, "verbose", "v", false, "log progress")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format (text|json)")
	f.DurationVar(&opts.runTimeout, "run-timeout", defaultRunTimeout, "overall run deadline")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	if err := logger.Init(logger.WithFormat(opts.logFormat)); err != nil {
		return err
	}
	if opts.cfg.Verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.runTimeout)
	defer cancel()

	_, err := syncload.Run(ctx, &opts.cfg, logger.Named("sync-load"))
	return err
}
