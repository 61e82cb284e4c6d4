package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chunkenc/internal/discovery"
	"chunkenc/internal/job"
	"chunkenc/internal/logging"
	"chunkenc/internal/queue"
	"chunkenc/internal/services"
	"chunkenc/internal/stageexec"
	"chunkenc/internal/workflow"
)

type batchSummary struct {
	Completed int
	Failed    int
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	overrides := &runOverrides{}
	var dryRun bool
	var keepGoing bool

	cmd := &cobra.Command{
		Use:   "batch <indir> <outdir>",
		Short: "Encode every new video under a directory tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := overrides.apply(cmd, cfg); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			plan, err := discovery.Build(args[0], args[1], cfg.Batch)
			if err != nil {
				return services.Wrap(services.ErrFilesystem, "batch", "scan", "", err)
			}
			fmt.Fprintf(out, "found %d video files\n", plan.Found)
			fmt.Fprintf(out, "files that need encoding: %d\n", len(plan.Candidates))
			if dryRun {
				for _, c := range plan.Candidates {
					fmt.Fprintf(out, "%s -> %s\n", c.Rel, c.Output)
				}
				return nil
			}
			if len(plan.Candidates) == 0 {
				return nil
			}

			runCtx, cancel := signalContext(cmd)
			defer cancel()

			if !overrides.skipPreflight {
				if err := ctx.runPreflight(runCtx, cfg, cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			if err := os.MkdirAll(filepath.Dir(cfg.Paths.LedgerPath), 0o755); err != nil {
				return services.Wrap(services.ErrFilesystem, "batch", "ledger directory", cfg.Paths.LedgerPath, err)
			}
			lock, err := job.AcquireLock(cfg.Paths.LedgerPath + ".lock")
			if err != nil {
				return fmt.Errorf("another batch run holds the ledger: %w", err)
			}
			defer lock.Release()

			store, err := queue.OpenFromConfig(cfg)
			if err != nil {
				return services.Wrap(services.ErrFilesystem, "batch", "open ledger", cfg.Paths.LedgerPath, err)
			}
			defer store.Close()

			mgr, _, logger, err := ctx.manager()
			if err != nil {
				return err
			}
			summary, err := runBatch(runCtx, store, mgr, plan, keepGoing, out, logger)
			fmt.Fprintf(out, "batch finished: %d completed, %d failed\n", summary.Completed, summary.Failed)
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d files failed; see `chunkenc jobs --status failed`", summary.Failed, len(plan.Candidates))
			}
			return nil
		},
	}

	overrides.bind(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the files that would be encoded and exit")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Continue with the next file after a failure")
	return cmd
}

// runBatch encodes plan's candidates in order and records each run in the
// ledger. It stops at the first failure unless keepGoing is set.
func runBatch(ctx context.Context, store *queue.Store, mgr *workflow.Manager, plan discovery.Plan, keepGoing bool, out io.Writer, logger *slog.Logger) (batchSummary, error) {
	logger = logging.NewComponentLogger(logger, "batch")
	var summary batchSummary

	if reset, err := store.ResetStale(ctx); err != nil {
		return summary, err
	} else if reset > 0 {
		logging.WarnWithContext(logger, "reset interrupted ledger items", "ledger_reset",
			logging.Int64("count", reset),
			logging.String(logging.FieldImpact, "interrupted files are encoded again, resuming from their workdirs"),
		)
	}

	for _, c := range plan.Candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		item, err := store.Enqueue(ctx, c.Source, c.Output)
		if err != nil {
			return summary, err
		}

		fmt.Fprintf(out, "%s -> %s\n", c.Source, c.Output)
		jobID, _, err := mgr.JobFor(c.Source)
		if err != nil {
			return summary, err
		}
		if err := store.MarkEncoding(ctx, item.ID, jobID); err != nil {
			return summary, err
		}

		report, runErr := mgr.Run(ctx, workflow.Request{Input: c.Source, Output: c.Output})
		if runErr == nil {
			summary.Completed++
			if err := store.MarkCompleted(ctx, item.ID, report.JoinedFrames); err != nil {
				return summary, err
			}
			continue
		}

		// An interrupted run leaves the item in encoding; the next batch
		// resets it and resumes from the workdir.
		if ctx.Err() != nil {
			return summary, runErr
		}

		summary.Failed++
		details := services.Details(runErr)
		failure := queue.Failure{
			Stage:          stageexec.StageOf(runErr),
			Kind:           details.Kind,
			Message:        details.Message,
			FailedSegments: details.FailedSegments,
		}
		if err := store.MarkFailed(ctx, item.ID, failure); err != nil {
			return summary, err
		}
		printFailure(out, runErr)
		if !keepGoing {
			return summary, fmt.Errorf("stopped after %s failed (use --keep-going to continue)", c.Rel)
		}
	}
	return summary, nil
}
