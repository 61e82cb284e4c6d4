package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chunkenc/internal/job"
	"chunkenc/internal/jobstate"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <input>",
		Short: "Show the persisted progress of an input's job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, _, err := ctx.manager()
			if err != nil {
				return err
			}
			id, layout, err := mgr.JobFor(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Job "+id, colorize) {
				fmt.Fprintln(out, line)
			}

			rec, ok, err := jobstate.NewFileStore(layout.Root).Load()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, renderStatusLine("Stage", statusInfo, "no progress recorded", colorize))
				fmt.Fprintln(out, renderStatusLine("Workdir", statusInfo, layout.Root, colorize))
				return nil
			}

			fmt.Fprintln(out, renderStatusLine("Stage", stageKind(rec.LastStage), stageLabel(rec.LastStage), colorize))
			segments := fmt.Sprintf("%d completed", len(rec.CompletedSegmentIDs))
			if rec.ExpectedSegmentCount > 0 {
				segments = fmt.Sprintf("%d/%d completed", len(rec.CompletedSegmentIDs), rec.ExpectedSegmentCount)
			}
			fmt.Fprintln(out, renderStatusLine("Segments", statusInfo, segments, colorize))
			fmt.Fprintln(out, renderStatusLine("Workdir", statusInfo, layout.Root, colorize))
			if !rec.UpdatedAt.IsZero() {
				fmt.Fprintln(out, renderStatusLine("Updated", statusInfo, rec.UpdatedAt.Local().Format("2006-01-02 15:04:05"), colorize))
			}
			if _, err := os.Stat(layout.LockFile); err == nil {
				locked, _ := job.IsLocked(layout.LockFile)
				fmt.Fprintln(out, renderStatusLine("Running", statusInfo, yesNo(locked), colorize))
			}
			return nil
		},
	}
}
