package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"chunkenc/internal/preflight"
	"chunkenc/internal/stage"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify tools, scratch space, and stage readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, cfg, _, err := ctx.manager()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg, ctx.runner(cfg))
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Stages", colorize) {
				fmt.Fprintln(out, line)
			}
			ready := true
			for _, h := range mgr.HealthChecks(cmd.Context()) {
				fmt.Fprintln(out, renderStatusLine(stageLabel(h.Stage), healthKind(h), h.Detail, colorize))
				ready = ready && h.Ready
			}

			if err := preflight.Failed(results); err != nil {
				return err
			}
			if !ready {
				return errors.New("one or more stages are not ready")
			}
			return nil
		},
	}
}

func healthKind(h stage.Health) statusKind {
	if h.Ready {
		return statusOK
	}
	return statusError
}
