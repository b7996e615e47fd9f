package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"awstail/internal/checkpoint"
)

func newCheckpointCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or clear saved watch positions",
	}
	cmd.AddCommand(newCheckpointListCommand(ctx))
	cmd.AddCommand(newCheckpointClearCommand(ctx))
	return cmd
}

func (c *commandContext) withCheckpoints(fn func(*checkpoint.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := checkpoint.Open(cfg.Checkpoint.DatabasePath())
	if err != nil {
		return fmt.Errorf("open checkpoints: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newCheckpointListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved anchors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCheckpoints(func(store *checkpoint.Store) error {
				anchors, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(anchors) == 0 {
					fmt.Fprintln(out, "No checkpoints saved")
					return nil
				}
				rows := make([][]string, 0, len(anchors))
				for _, anchor := range anchors {
					filter := anchor.Filter
					if filter == "" {
						filter = "-"
					}
					rows = append(rows, []string{
						anchor.Group,
						filter,
						time.UnixMilli(anchor.StartMs).Local().Format("2006-01-02 15:04:05"),
						strconv.FormatInt(anchor.StartMs, 10),
						anchor.UpdatedAt.Local().Format(time.RFC3339),
					})
				}
				headers := []string{"Group", "Filter", "Resumes At", "Epoch ms", "Updated"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}

func newCheckpointClearCommand(ctx *commandContext) *cobra.Command {
	var group string
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove saved anchors for a group, or all of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if group == "" && !all {
				return fmt.Errorf("specify --group or --all")
			}
			return ctx.withCheckpoints(func(store *checkpoint.Store) error {
				removed, err := store.Delete(cmd.Context(), group)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d checkpoint(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Log group whose anchors should be removed")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every saved anchor")
	cmd.MarkFlagsMutuallyExclusive("group", "all")
	return cmd
}
