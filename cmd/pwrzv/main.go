// pwrzv — host power reserve meter.
//
// Reads raw resource signals (procfs/sysfs on Linux, gopsutil and system
// utilities on macOS), scores each through a sigmoid transform, and reports
// the host's spare capacity as a 0-5 level with bottleneck attribution,
// in the spirit of a watch's power reserve indicator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kookyleo/pwrzv/internal/engine"
	"github.com/kookyleo/pwrzv/internal/metrics"
	"github.com/kookyleo/pwrzv/internal/output"
)

var (
	version = "1.0.0"
)

// detectSource is swapped out in tests to stub the platform.
var detectSource = metrics.Detect

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pwrzv: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		once     bool
		detailed string
		interval int
		quiet    bool
		verbose  bool
	)

	rootCmd := &cobra.Command{
		Use:   "pwrzv",
		Short: "Host power reserve meter",
		Long: `pwrzv — like a watch's power reserve indicator, for your host.

Scores CPU, memory, swap, disk, network, file descriptor and process
pressure through per-metric sigmoid transforms and reports the minimum
as a 0-5 power reserve level. The overall reserve is only as good as
the most constrained resource.

Default mode refreshes continuously; use --once for scripts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var format output.Format
			if cmd.Flags().Changed("detailed") {
				f, err := output.ParseFormat(detailed)
				if err != nil {
					return err
				}
				format = f
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %d", interval)
			}

			progress := output.NewVerboseProgress(!quiet, verbose)
			cfg := runConfig{
				once:     once,
				detailed: format,
				interval: time.Duration(interval) * time.Second,
				progress: progress,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&once, "once", false, "Evaluate once and exit")
	flags.StringVarP(&detailed, "detailed", "d", "", "Show per-metric breakdown (format: text, json, yaml)")
	flags.Lookup("detailed").NoOptDefVal = "text"
	flags.IntVarP(&interval, "interval", "t", 3, "Refresh interval in seconds (continuous mode)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newMCPCmd())
	return rootCmd
}

// runConfig holds the resolved root command options.
type runConfig struct {
	once     bool
	detailed output.Format // empty means level-only display
	interval time.Duration
	progress *output.Progress
}

// run drives the evaluation loop. Continuous mode repeats until the
// context is cancelled; once mode returns after the first round.
func run(ctx context.Context, cfg runConfig) error {
	src, err := detectSource()
	if err != nil {
		return err
	}
	cfg.progress.Debug("platform: %s", src.Platform())

	if cfg.once {
		return evaluateOnce(ctx, src, cfg)
	}

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	for {
		if err := evaluateOnce(ctx, src, cfg); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// evaluateOnce performs a single gather-and-score round and renders it.
func evaluateOnce(ctx context.Context, src metrics.Source, cfg runConfig) error {
	snap := metrics.Gather(ctx, src, metrics.DefaultGatherConfig())
	for _, msg := range snap.Errors {
		cfg.progress.Debug("gather: %s", msg)
	}

	table, warnings := engine.Resolve(src.Platform())
	for _, w := range warnings {
		cfg.progress.Log("config: %s", w)
	}

	res, err := engine.Evaluate(snap, table)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		res.Warnings = append(res.Warnings, w.String())
	}

	switch {
	case cfg.detailed != "":
		return output.Write(res, "-", cfg.detailed)
	case cfg.once:
		return output.WriteLevel(os.Stdout, res)
	default:
		fmt.Printf("%s Power Reserve: %d\n", time.Now().Format("15:04:05"), res.Level)
		return nil
	}
}
