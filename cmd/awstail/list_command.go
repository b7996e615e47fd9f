package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"awstail/internal/logstream"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var region, profile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List log groups, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			awsOpts, err := awsOptions(cmd, cfg, region, profile)
			if err != nil {
				return err
			}
			runCtx, _, err := ctx.sessionLogger(cmd, cfg, "")
			if err != nil {
				return err
			}
			client, err := ctx.dial(runCtx, awsOpts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return logstream.ListGroups(runCtx, client, func(name string) error {
				_, err := fmt.Fprintln(out, name)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region (overrides config and environment)")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "AWS shared config profile")
	return cmd
}
