package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"awstail/internal/checkpoint"
	"awstail/internal/config"
	"awstail/internal/logfilter"
	"awstail/internal/logging"
	"awstail/internal/logs"
	"awstail/internal/logstream"
	"awstail/internal/query"
	"awstail/internal/services"
)

type logsOptions struct {
	group      string
	since      time.Duration
	watch      time.Duration
	filter     string
	timeout    time.Duration
	region     string
	profile    string
	where      string
	checkpoint bool
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print events of a log group, optionally following new ones",
		Long: `Print events of a log group starting --since ago.

Without --watch the command drains every page of the window and exits.
With --watch it keeps polling at the given interval until interrupted,
resuming each time from the newest event it has printed. Events sharing
that timestamp may print twice across polls.`,
		Example: `  awstail logs -g /aws/lambda/api -s 1h
  awstail logs -g /ecs/web -w 10s -f ERROR
  awstail logs -g /ecs/web -w 5s --where 'json.status >= 500.0'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runLogs(cmd, ctx, cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.group, "group", "g", "", "Log group name (required)")
	flags.VarP(newDurationValue(&opts.since, 5*time.Minute), "since", "s", "Lookback window for the first query (e.g. 5m, 2h, 1d)")
	flags.VarP(newDurationValue(&opts.watch, 0), "watch", "w", "Keep polling at this interval (e.g. 10s)")
	flags.StringVarP(&opts.filter, "filter", "f", "", "CloudWatch filter pattern applied by the backend")
	flags.VarP(newDurationValue(&opts.timeout, 30*time.Second), "timeout", "t", "Upper bound for a single backend query")
	flags.StringVarP(&opts.region, "region", "r", "", "AWS region (overrides config and environment)")
	flags.StringVarP(&opts.profile, "profile", "p", "", "AWS shared config profile")
	flags.StringVar(&opts.where, "where", "", "CEL predicate evaluated locally on each event")
	flags.BoolVar(&opts.checkpoint, "checkpoint", false, "Persist and resume the watch position for this group")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func runLogs(cmd *cobra.Command, cmdCtx *commandContext, cfg *config.Config, opts logsOptions) error {
	group := strings.TrimSpace(opts.group)
	if group == "" {
		return services.Wrap(services.ErrConfiguration, "logs", "validate", "--group must not be empty", nil)
	}

	flags := cmd.Flags()
	since := cfg.Tail.SinceDuration()
	if flags.Changed("since") {
		since = opts.since
	}
	timeout := cfg.Tail.TimeoutDuration()
	if flags.Changed("timeout") {
		timeout = opts.timeout
	}
	if timeout <= 0 {
		return services.Wrap(services.ErrConfiguration, "logs", "validate", "--timeout must be positive", nil)
	}
	awsOpts, err := awsOptions(cmd, cfg, opts.region, opts.profile)
	if err != nil {
		return err
	}
	predicate, err := logfilter.Compile(opts.where)
	if err != nil {
		return err
	}

	params := query.Params{
		Group:    group,
		Filter:   opts.filter,
		Lookback: since,
		PageSize: int32(cfg.Tail.PageSize),
	}
	// Reject a bad window before any network call.
	if _, err := query.Fresh(params, time.Now()); err != nil {
		return err
	}

	ctx, logger, err := cmdCtx.sessionLogger(cmd, cfg, group)
	if err != nil {
		return err
	}

	cycleOpts := logstream.Options{
		Params: params,
		Watch:  opts.watch,
		Retry: logstream.RetryPolicy{
			Attempts: cfg.Retry.Attempts,
			Backoff:  cfg.Retry.BackoffDuration(),
		},
	}
	var extra []logstream.CycleOption
	if opts.watch > 0 && (opts.checkpoint || cfg.Checkpoint.Enabled) {
		store, release, err := openCheckpoint(ctx, cfg, params, &cycleOpts, logger)
		if err != nil {
			return err
		}
		defer release()
		extra = append(extra, logstream.WithAnchors(store))
	} else if opts.checkpoint {
		logging.WarnWithContext(logger, "--checkpoint ignored without --watch", "checkpoint_ignored",
			logging.String(logging.FieldImpact, "one-shot runs always use the lookback window"),
		)
	}

	client, err := cmdCtx.dial(ctx, awsOpts)
	if err != nil {
		return err
	}

	emitterOpts := []logs.EmitterOption{}
	if predicate != nil {
		emitterOpts = append(emitterOpts, logs.WithPredicate(predicate))
	}
	emitter := logs.NewEmitter(cmd.OutOrStdout(), emitterOpts...)
	fetcher := logs.NewFetcher(client, emitter, timeout, logger)

	logger.Info("tail starting",
		logging.String("region", awsOpts.Region),
		logging.Duration("since", since),
		logging.Duration("watch", opts.watch),
		logging.Bool("predicate", predicate != nil),
	)
	return logstream.NewCycle(fetcher, cycleOpts, logger, extra...).Run(ctx)
}

// openCheckpoint locks the group, loads any saved anchor into opts.Resume and
// returns the store for the cycle to update.
func openCheckpoint(ctx context.Context, cfg *config.Config, params query.Params, opts *logstream.Options, logger *slog.Logger) (*checkpoint.Store, func(), error) {
	lock, err := checkpoint.AcquireLock(cfg.Checkpoint.Dir, params.Group)
	if err != nil {
		return nil, nil, err
	}
	store, err := checkpoint.Open(cfg.Checkpoint.DatabasePath())
	if err != nil {
		_ = lock.Release()
		return nil, nil, fmt.Errorf("open checkpoints: %w", err)
	}
	release := func() {
		if err := store.Close(); err != nil {
			logger.Debug("close checkpoints failed", logging.Error(err))
		}
		if err := lock.Release(); err != nil {
			logger.Debug("release checkpoint lock failed", logging.Error(err))
		}
	}

	anchor, found, err := store.Load(ctx, params.Group, params.Filter)
	if err != nil {
		release()
		return nil, nil, err
	}
	if found {
		start := anchor.StartMs
		opts.Resume = &start
	}
	return store, release, nil
}
