package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"chunkenc/internal/config"
	"chunkenc/internal/preflight"
	"chunkenc/internal/services"
	"chunkenc/internal/workflow"
)

type runOverrides struct {
	concurrency     int
	segmentDuration int
	skipPreflight   bool
}

func (o *runOverrides) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.concurrency, "concurrency", 0, "Override encoding.concurrency")
	cmd.Flags().IntVar(&o.segmentDuration, "segment-duration", 0, "Override encoding.segment_duration in seconds")
	cmd.Flags().BoolVar(&o.skipPreflight, "skip-preflight", false, "Skip tool and scratch space checks")
}

func (o *runOverrides) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("concurrency") {
		if o.concurrency < 1 {
			return services.Wrap(services.ErrConfiguration, "setup", "flags", "--concurrency must be at least 1", nil)
		}
		cfg.Encoding.Concurrency = o.concurrency
	}
	if cmd.Flags().Changed("segment-duration") {
		if o.segmentDuration < 1 {
			return services.Wrap(services.ErrConfiguration, "setup", "flags", "--segment-duration must be at least 1", nil)
		}
		cfg.Encoding.SegmentDuration = o.segmentDuration
	}
	return nil
}

func (c *commandContext) runPreflight(ctx context.Context, cfg *config.Config, out io.Writer) error {
	results := preflight.RunAll(ctx, cfg, c.runner(cfg))
	if err := preflight.Failed(results); err != nil {
		colorize := shouldColorize(out)
		for _, r := range results {
			kind := statusOK
			if !r.Passed {
				kind = statusError
			}
			fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
		}
		return services.Wrap(services.ErrConfiguration, "setup", "preflight", "", err)
	}
	return nil
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	overrides := &runOverrides{}

	cmd := &cobra.Command{
		Use:   "encode <input> <output>",
		Short: "Encode one file, resuming any earlier progress",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := overrides.apply(cmd, cfg); err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd)
			defer cancel()

			if !overrides.skipPreflight {
				if err := ctx.runPreflight(runCtx, cfg, cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			mgr, _, _, err := ctx.manager()
			if err != nil {
				return err
			}
			report, err := mgr.Run(runCtx, workflow.Request{Input: args[0], Output: args[1]})
			if err != nil {
				if report.Workdir != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Progress kept in %s (stage %s); rerun the same command to resume.\n",
						report.Workdir, report.Stage)
				}
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	overrides.bind(cmd)
	return cmd
}

func printReport(out io.Writer, report workflow.Report) {
	colorize := shouldColorize(out)
	fmt.Fprintln(out, renderStatusLine("Output", statusOK, report.Published, colorize))
	fmt.Fprintln(out, renderStatusLine("Frames", statusOK,
		fmt.Sprintf("%d source, %d joined", report.SourceFrames, report.JoinedFrames), colorize))
	fmt.Fprintln(out, renderStatusLine("Segments", statusInfo,
		fmt.Sprintf("%d encoded, %d reused of %d", report.Encoded, report.Skipped, report.ExpectedSegments), colorize))
	if report.Resumed {
		fmt.Fprintln(out, renderStatusLine("Resumed", statusInfo, "yes", colorize))
	}
	workdir := report.Workdir
	if report.WorkdirRemoved {
		workdir += " (removed)"
	}
	fmt.Fprintln(out, renderStatusLine("Workdir", statusInfo, workdir, colorize))
	fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo, report.Elapsed.Round(time.Second).String(), colorize))
}
