package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"chunkenc/internal/queue"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List batch ledger items",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(statusFlags))
			for _, name := range statusFlags {
				s, err := queue.ParseStatus(name)
				if err != nil {
					return err
				}
				statuses = append(statuses, s)
			}
			return withLedger(ctx, func(store *queue.Store) error {
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No ledger items")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Stage", "Source", "Frames", "Duration", "Error"},
					jobRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (pending, encoding, completed, failed)")

	cmd.AddCommand(&cobra.Command{
		Use:   "retry",
		Short: "Move failed items back to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *queue.Store) error {
				n, err := store.RetryFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d failed items\n", n)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove completed items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *queue.Store) error {
				n, err := store.ClearCompleted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed items\n", n)
				return nil
			})
		},
	})
	return cmd
}

func withLedger(ctx *commandContext, fn func(*queue.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.OpenFromConfig(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func jobRows(items []*queue.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		errText := ""
		if item.ErrorKind != "" {
			errText = item.ErrorKind
			if len(item.FailedSegments) > 0 {
				errText += " (" + strings.Join(item.FailedSegments, ", ") + ")"
			}
		}
		frames := ""
		if item.Frames > 0 {
			frames = strconv.FormatInt(item.Frames, 10)
		}
		duration := ""
		if d := item.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			string(item.Status),
			item.Stage,
			filepath.Base(item.SourcePath),
			frames,
			duration,
			errText,
		})
	}
	return rows
}
