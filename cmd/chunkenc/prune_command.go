package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chunkenc/internal/staging"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var opts staging.PruneOptions

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove finished or stale job workdirs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			result := staging.Prune(cmd.Context(), cfg.Paths.ScratchRoot, opts, logger)

			out := cmd.OutOrStdout()
			if len(result.Removed) == 0 {
				fmt.Fprintln(out, "Nothing to prune")
			} else {
				rows := make([][]string, 0, len(result.Removed))
				for _, r := range result.Removed {
					rows = append(rows, []string{r.Path, r.Reason})
				}
				fmt.Fprintln(out, renderTable([]string{"Workdir", "Reason"}, rows, nil))
			}
			for _, path := range result.Skipped {
				fmt.Fprintf(out, "Skipped %s (in use)\n", path)
			}
			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", e.Path, e.Error)
				}
				return fmt.Errorf("failed to remove %d workdirs", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&opts.OlderThan, "older-than", 0, "Also remove unfinished workdirs untouched for this long (e.g. 72h)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "List what would be removed without deleting")
	return cmd
}
