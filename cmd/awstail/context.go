package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"awstail/internal/cloudwatch"
	"awstail/internal/config"
	"awstail/internal/logging"
	"awstail/internal/logs"
	"awstail/internal/logstream"
	"awstail/internal/services"
)

// remoteClient is everything the commands need from a backend handle.
type remoteClient interface {
	logs.Backend
	logstream.GroupLister
}

type dialFunc func(ctx context.Context, opts cloudwatch.Options) (remoteClient, error)

func dialCloudWatch(ctx context.Context, opts cloudwatch.Options) (remoteClient, error) {
	client, err := cloudwatch.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type commandContext struct {
	configFlag   string
	logLevelFlag string
	dial         dialFunc

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(dial dialFunc) *commandContext {
	return &commandContext{dial: dial}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.ToLower(strings.TrimSpace(c.logLevelFlag)); level != "" {
			switch level {
			case "debug", "info", "warn", "error":
				cfg.Logging.Level = level
			default:
				c.configErr = services.Wrap(services.ErrConfiguration, "config", "validate",
					fmt.Sprintf("--log-level %q must be one of debug, info, warn, error", c.logLevelFlag), nil)
				return
			}
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// sessionLogger builds the diagnostic logger for one invocation and tags ctx
// with a fresh run ID.
func (c *commandContext) sessionLogger(cmd *cobra.Command, cfg *config.Config, group string) (context.Context, *slog.Logger, error) {
	var (
		logger *slog.Logger
		err    error
	)
	if strings.TrimSpace(cfg.Logging.File) == "" {
		logger, err = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Writer: cmd.ErrOrStderr(),
		})
	} else {
		logger, err = logging.NewFromConfig(cfg)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	ctx := services.WithRunID(cmd.Context(), uuid.NewString())
	if group != "" {
		ctx = services.WithGroup(ctx, group)
	}
	return ctx, logging.WithContext(ctx, logger), nil
}

// awsOptions merges --region/--profile over the configured values.
func awsOptions(cmd *cobra.Command, cfg *config.Config, region, profile string) (cloudwatch.Options, error) {
	opts := cloudwatch.Options{Region: cfg.AWS.Region, Profile: cfg.AWS.Profile}
	if cmd.Flags().Changed("region") {
		opts.Region = strings.ToLower(strings.TrimSpace(region))
		if err := config.ValidateRegion(opts.Region); err != nil {
			return cloudwatch.Options{}, err
		}
	}
	if cmd.Flags().Changed("profile") {
		opts.Profile = strings.TrimSpace(profile)
	}
	return opts, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
